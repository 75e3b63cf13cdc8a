package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmanzanog/stonk/internal/application"
	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/infrastructure/persistence/memory"
	"github.com/jmanzanog/stonk/internal/interfaces/view"
)

// --- Mocks ---

type stubQuotes struct {
	prices  map[string]string
	details map[string]domain.HoldingDetails
	history map[string]domain.PriceHistory
}

func (q *stubQuotes) GetSharePrice(_ context.Context, ticker string) domain.Decimal {
	if p, ok := q.prices[ticker]; ok {
		return domain.MustDecimal(p)
	}
	return domain.Zero
}

func (q *stubQuotes) GetHoldingDetails(_ context.Context, ticker string) (domain.HoldingDetails, bool) {
	d, ok := q.details[ticker]
	return d, ok
}

func (q *stubQuotes) GetPriceHistory(_ context.Context, ticker string, _ domain.ChartPeriod) (domain.PriceHistory, bool) {
	h, ok := q.history[ticker]
	return h, ok
}

func (q *stubQuotes) LogoURL(ticker string) string {
	return "http://127.0.0.1:8000/logos/" + ticker
}

// brokenService fails every listing with a storage error.
type brokenService struct {
	*application.PortfolioService
}

func (s brokenService) ListPortfolios(context.Context) (domain.Portfolios, error) {
	return nil, fmt.Errorf("connection refused")
}

// --- Test Setup ---

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestQuotes() *stubQuotes {
	name := "Apple Inc."
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &stubQuotes{
		prices:  map[string]string{"AAPL": "185.50", "MSFT": "410"},
		details: map[string]domain.HoldingDetails{"AAPL": {Name: &name}},
		history: map[string]domain.PriceHistory{
			"AAPL": {
				{Date: start, Close: domain.MustDecimal("100")},
				{Date: start.AddDate(0, 0, 1), Close: domain.MustDecimal("110")},
			},
			"IPO": {{Date: start, Close: domain.MustDecimal("10")}},
		},
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *application.PortfolioService) {
	t.Helper()
	service := application.NewPortfolioService(memory.NewPortfolioRepository(), newTestQuotes())
	router := gin.New()
	SetupRoutes(router, NewHandler(service))
	return router, service
}

func do(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d. Body: %s", want, w.Code, w.Body.String())
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
}

func createPortfolio(t *testing.T, router *gin.Engine, name string) {
	t.Helper()
	expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios", CreatePortfolioRequest{Name: name}), http.StatusCreated)
}

// --- Tests ---

func TestHandler_Health(t *testing.T) {
	router, _ := setupRouter(t)
	expectStatus(t, do(router, http.MethodGet, "/health", nil), http.StatusOK)
	expectStatus(t, do(router, http.MethodGet, "/api/v1/health", nil), http.StatusOK)
}

func TestHandler_CreatePortfolio(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodPost, "/api/v1/portfolios", CreatePortfolioRequest{Name: "Retirement"})
	expectStatus(t, w, http.StatusCreated)

	var v view.PortfolioView
	decode(t, w, &v)
	if v.Name != "Retirement" || !v.IsEmpty {
		t.Errorf("unexpected portfolio: %+v", v)
	}
	if v.Display.TotalValue != view.EmptyTotal {
		t.Errorf("expected %q, got %q", view.EmptyTotal, v.Display.TotalValue)
	}

	expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios", CreatePortfolioRequest{Name: "Retirement"}), http.StatusConflict)
}

func TestHandler_CreatePortfolio_BadRequest(t *testing.T) {
	router, _ := setupRouter(t)

	testCases := []struct {
		name string
		body any
	}{
		{"invalid json", "invalid json"},
		{"missing name", map[string]any{}},
		{"blank name", map[string]any{"name": "   "}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios", tc.body), http.StatusBadRequest)
		})
	}
}

func TestHandler_ListPortfolios(t *testing.T) {
	router, _ := setupRouter(t)
	createPortfolio(t, router, "Zeta")
	createPortfolio(t, router, "Alpha")

	w := do(router, http.MethodGet, "/api/v1/portfolios", nil)
	expectStatus(t, w, http.StatusOK)

	var v view.PortfoliosView
	decode(t, w, &v)
	if len(v.Portfolios) != 2 || v.Portfolios[0].Name != "Alpha" {
		t.Errorf("expected portfolios sorted by name, got %+v", v.Portfolios)
	}
}

func TestHandler_ListPortfolios_ServiceError(t *testing.T) {
	service := application.NewPortfolioService(memory.NewPortfolioRepository(), newTestQuotes())
	router := gin.New()
	SetupRoutes(router, NewHandler(brokenService{service}))

	w := do(router, http.MethodGet, "/api/v1/portfolios", nil)
	expectStatus(t, w, http.StatusInternalServerError)

	var errResp ErrorResponse
	decode(t, w, &errResp)
	if errResp.Error == "" {
		t.Error("expected non-empty error message")
	}
}

func TestHandler_GetAndDeletePortfolio(t *testing.T) {
	router, _ := setupRouter(t)
	createPortfolio(t, router, "My Stocks")

	expectStatus(t, do(router, http.MethodGet, "/api/v1/portfolios/My%20Stocks", nil), http.StatusOK)
	expectStatus(t, do(router, http.MethodDelete, "/api/v1/portfolios/My%20Stocks", nil), http.StatusNoContent)
	expectStatus(t, do(router, http.MethodDelete, "/api/v1/portfolios/My%20Stocks", nil), http.StatusNotFound)
	expectStatus(t, do(router, http.MethodGet, "/api/v1/portfolios/My%20Stocks", nil), http.StatusNotFound)
}

func TestHandler_AddHolding_AppendThenMerge(t *testing.T) {
	router, _ := setupRouter(t)
	createPortfolio(t, router, "Retirement")

	w := do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings",
		AddHoldingRequest{Ticker: "aapl", NumShares: domain.MustDecimal("10"), AveragePrice: domain.MustDecimal("100")})
	expectStatus(t, w, http.StatusCreated)

	var added AddHoldingResponse
	decode(t, w, &added)
	if added.Merged || added.Holding.Ticker != "AAPL" {
		t.Errorf("unexpected response: %+v", added)
	}
	if added.Holding.Display.LastPrice != "$185.50" {
		t.Errorf("expected refreshed price $185.50, got %s", added.Holding.Display.LastPrice)
	}
	if added.Holding.LogoURL != "http://127.0.0.1:8000/logos/AAPL" {
		t.Errorf("unexpected logo url %q", added.Holding.LogoURL)
	}

	w = do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings",
		AddHoldingRequest{Ticker: "AAPL", NumShares: domain.MustDecimal("10"), AveragePrice: domain.MustDecimal("200")})
	expectStatus(t, w, http.StatusOK)

	var merged AddHoldingResponse
	decode(t, w, &merged)
	if !merged.Merged {
		t.Error("expected merge")
	}
	if !merged.Holding.AveragePrice.Equal(domain.MustDecimal("150")) {
		t.Errorf("expected average 150, got %s", merged.Holding.AveragePrice)
	}
	if !merged.Holding.NumShares.Equal(domain.MustDecimal("20")) {
		t.Errorf("expected 20 shares, got %s", merged.Holding.NumShares)
	}
}

func TestHandler_AddHolding_Errors(t *testing.T) {
	router, _ := setupRouter(t)
	createPortfolio(t, router, "Retirement")

	testCases := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"invalid json", "/api/v1/portfolios/Retirement/holdings", "{", http.StatusBadRequest},
		{"missing ticker", "/api/v1/portfolios/Retirement/holdings", map[string]any{"num_shares": 1}, http.StatusBadRequest},
		{"zero shares", "/api/v1/portfolios/Retirement/holdings", map[string]any{"ticker": "AAPL", "num_shares": 0}, http.StatusBadRequest},
		{"NaN shares", "/api/v1/portfolios/Retirement/holdings", map[string]any{"ticker": "AAPL", "num_shares": "NaN", "average_price": 100}, http.StatusBadRequest},
		{"infinite price", "/api/v1/portfolios/Retirement/holdings", map[string]any{"ticker": "AAPL", "num_shares": 1, "average_price": "Infinity"}, http.StatusBadRequest},
		{"unknown portfolio", "/api/v1/portfolios/Nope/holdings", map[string]any{"ticker": "AAPL", "num_shares": 1}, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectStatus(t, do(router, http.MethodPost, tc.path, tc.body), tc.status)
		})
	}

	w := do(router, http.MethodGet, "/api/v1/portfolios/Retirement", nil)
	expectStatus(t, w, http.StatusOK)
	var got struct {
		Holdings []json.RawMessage `json:"holdings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode portfolio: %v", err)
	}
	if len(got.Holdings) != 0 {
		t.Errorf("expected rejected holdings to leave the portfolio empty, got %d", len(got.Holdings))
	}
}

func TestHandler_AddHoldingsBatch(t *testing.T) {
	router, _ := setupRouter(t)
	createPortfolio(t, router, "Retirement")

	w := do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings/batch", map[string]any{
		"holdings": []map[string]any{
			{"ticker": "AAPL", "num_shares": 1, "average_price": 100},
			{"ticker": "MSFT", "num_shares": "2.5", "average_price": "300"},
			{"ticker": "BAD", "num_shares": -1, "average_price": 1},
		},
	})
	expectStatus(t, w, http.StatusOK)

	var result application.AddHoldingsResult
	decode(t, w, &result)
	if len(result.Successful) != 2 || len(result.Failed) != 1 {
		t.Fatalf("expected 2 successful and 1 failed, got %+v", result)
	}
	if result.Refresh == nil || result.Refresh.Updated != 2 {
		t.Errorf("expected a refresh of 2 holdings, got %+v", result.Refresh)
	}

	expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings/batch", map[string]any{}), http.StatusBadRequest)
}

func TestHandler_GetAndDeleteHolding(t *testing.T) {
	router, _ := setupRouter(t)
	createPortfolio(t, router, "Retirement")
	expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings",
		map[string]any{"ticker": "MSFT", "num_shares": 1, "average_price": 400}), http.StatusCreated)

	w := do(router, http.MethodGet, "/api/v1/portfolios/Retirement/holdings/msft", nil)
	expectStatus(t, w, http.StatusOK)
	var v view.HoldingView
	decode(t, w, &v)
	if v.Display.Gains != "+$10.00" {
		t.Errorf("expected +$10.00, got %s", v.Display.Gains)
	}

	expectStatus(t, do(router, http.MethodDelete, "/api/v1/portfolios/Retirement/holdings/MSFT", nil), http.StatusNoContent)
	expectStatus(t, do(router, http.MethodDelete, "/api/v1/portfolios/Retirement/holdings/MSFT", nil), http.StatusNotFound)
	expectStatus(t, do(router, http.MethodGet, "/api/v1/portfolios/Retirement/holdings/MSFT", nil), http.StatusNotFound)
}

func TestHandler_RefreshHoldingDetails(t *testing.T) {
	router, _ := setupRouter(t)
	createPortfolio(t, router, "Retirement")
	for _, ticker := range []string{"AAPL", "MSFT"} {
		expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings",
			map[string]any{"ticker": ticker, "num_shares": 1, "average_price": 1}), http.StatusCreated)
	}

	w := do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings/AAPL/details", nil)
	expectStatus(t, w, http.StatusOK)
	var v view.HoldingView
	decode(t, w, &v)
	if v.Display.Name != "Apple Inc." {
		t.Errorf("expected details to be applied, got %q", v.Display.Name)
	}

	expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings/MSFT/details", nil), http.StatusBadGateway)
}

func TestHandler_RefreshPortfolio(t *testing.T) {
	router, _ := setupRouter(t)
	createPortfolio(t, router, "Retirement")
	for _, ticker := range []string{"AAPL", "GONE"} {
		expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios/Retirement/holdings",
			map[string]any{"ticker": ticker, "num_shares": 1, "average_price": 1}), http.StatusCreated)
	}

	w := do(router, http.MethodPost, "/api/v1/portfolios/Retirement/refresh", nil)
	expectStatus(t, w, http.StatusOK)

	var resp RefreshResponse
	decode(t, w, &resp)
	if resp.Refresh.Attempted != 2 || resp.Refresh.Updated != 1 {
		t.Errorf("unexpected summary %+v", resp.Refresh)
	}
	if len(resp.Refresh.Failed) != 1 || resp.Refresh.Failed[0] != "GONE" {
		t.Errorf("expected GONE to fail, got %v", resp.Refresh.Failed)
	}

	expectStatus(t, do(router, http.MethodPost, "/api/v1/portfolios/Nope/refresh", nil), http.StatusNotFound)
}

func TestHandler_GetPriceHistory(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/v1/quotes/aapl/history?period=1y", nil)
	expectStatus(t, w, http.StatusOK)

	var v view.HistoryView
	decode(t, w, &v)
	if v.Ticker != "AAPL" || v.Period != domain.ChartPeriodYear || len(v.Points) != 2 {
		t.Errorf("unexpected history view %+v", v)
	}
	if v.Display.ChangePercent != "+10.00%" {
		t.Errorf("expected +10.00%%, got %s", v.Display.ChangePercent)
	}

	expectStatus(t, do(router, http.MethodGet, "/api/v1/quotes/AAPL/history?period=2y", nil), http.StatusBadRequest)
	expectStatus(t, do(router, http.MethodGet, "/api/v1/quotes/NONE/history", nil), http.StatusBadGateway)
}

func TestHandler_GetPriceChart(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/v1/quotes/AAPL/chart.png?period=1mo", nil)
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG body")
	}

	expectStatus(t, do(router, http.MethodGet, "/api/v1/quotes/IPO/chart.png", nil), http.StatusUnprocessableEntity)
	expectStatus(t, do(router, http.MethodGet, "/api/v1/quotes/NONE/chart.png", nil), http.StatusBadGateway)
}
