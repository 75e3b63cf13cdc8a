package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	quotePath      = "/quote"
	profilePath    = "/stock/profile2"
	metricPath     = "/stock/metric"
	candlePath     = "/stock/candle"
)

// Client implements marketdata.Source using the Finnhub API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new Finnhub API client.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// NewClientWithHTTPClient creates a new Finnhub client with a custom HTTP client.
func NewClientWithHTTPClient(apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// SetBaseURL sets the base URL for the API.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// quoteResponse represents the Finnhub quote response.
type quoteResponse struct {
	Current       float64 `json:"c"`  // Current price
	PreviousClose float64 `json:"pc"` // Previous close price
	Timestamp     int64   `json:"t"`  // Timestamp
}

// profileResponse represents the Finnhub company profile response.
type profileResponse struct {
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
	MarketCapitalization float64 `json:"marketCapitalization"` // millions
	Name                 string  `json:"name"`
	Weburl               string  `json:"weburl"`
}

// metricResponse holds the subset of basic financials used for details.
type metricResponse struct {
	Metric struct {
		PERatio            *float64 `json:"peBasicExclExtraTTM"`
		Beta               *float64 `json:"beta"`
		DividendYield      *float64 `json:"dividendYieldIndicatedAnnual"`
		FiftyTwoWeekHigh   *float64 `json:"52WeekHigh"`
		FiftyTwoWeekLow    *float64 `json:"52WeekLow"`
		AverageVolume10Day *float64 `json:"10DayAverageTradingVolume"` // millions
	} `json:"metric"`
}

// candleResponse represents the Finnhub candle response.
type candleResponse struct {
	Close     []float64 `json:"c"`
	Timestamp []int64   `json:"t"`
	Status    string    `json:"s"`
}

// candleSpec maps a chart period onto a Finnhub resolution and look-back window.
type candleSpec struct {
	resolution string
	years      int
	months     int
	days       int
}

var candleSpecs = map[domain.ChartPeriod]candleSpec{
	domain.ChartPeriodDay:       {resolution: "15", days: 1},
	domain.ChartPeriodWeek:      {resolution: "D", days: 7},
	domain.ChartPeriodMonth:     {resolution: "D", months: 1},
	domain.ChartPeriodYear:      {resolution: "W", years: 1},
	domain.ChartPeriodFiveYears: {resolution: "M", years: 5},
}

// Price retrieves the current price for a symbol.
func (c *Client) Price(ctx context.Context, ticker string) (domain.Decimal, error) {
	q, err := c.getQuote(ctx, ticker)
	if err != nil {
		return domain.Zero, err
	}
	return floatDecimal(q.Current)
}

// Details combines the company profile with basic financials. The profile is
// required; metrics and the previous close are filled in when available.
func (c *Client) Details(ctx context.Context, ticker string) (domain.HoldingDetails, error) {
	profile, err := c.getProfile(ctx, ticker)
	if err != nil {
		return domain.HoldingDetails{}, err
	}

	details := domain.HoldingDetails{
		Name:     optionalString(profile.Name),
		Industry: optionalString(profile.FinnhubIndustry),
		Country:  optionalString(profile.Country),
		Website:  optionalString(profile.Weburl),
	}
	if profile.MarketCapitalization > 0 {
		details.MarketCap = optionalFloat(profile.MarketCapitalization * 1e6)
	}

	if m, err := c.getMetrics(ctx, ticker); err != nil {
		slog.DebugContext(ctx, "finnhub metrics unavailable", "ticker", ticker, "error", err)
	} else {
		details.PERatio = optionalFloatPtr(m.Metric.PERatio)
		details.Beta = optionalFloatPtr(m.Metric.Beta)
		details.DividendYield = optionalFloatPtr(m.Metric.DividendYield)
		details.FiftyTwoWeekHigh = optionalFloatPtr(m.Metric.FiftyTwoWeekHigh)
		details.FiftyTwoWeekLow = optionalFloatPtr(m.Metric.FiftyTwoWeekLow)
		if v := m.Metric.AverageVolume10Day; v != nil {
			volume := int64(*v * 1e6)
			details.AverageVolume = &volume
		}
	}

	if q, err := c.getQuote(ctx, ticker); err != nil {
		slog.DebugContext(ctx, "finnhub quote unavailable", "ticker", ticker, "error", err)
	} else if q.PreviousClose > 0 {
		details.PreviousClose = optionalFloat(q.PreviousClose)
	}

	return details, nil
}

// History retrieves closing candles for the period ending now.
func (c *Client) History(ctx context.Context, ticker string, period domain.ChartPeriod) ([]domain.RawPricePoint, error) {
	spec, ok := candleSpecs[period]
	if !ok {
		return nil, fmt.Errorf("unsupported period: %s", period)
	}
	to := c.now()
	from := to.AddDate(-spec.years, -spec.months, -spec.days)

	params := url.Values{}
	params.Add("resolution", spec.resolution)
	params.Add("from", strconv.FormatInt(from.Unix(), 10))
	params.Add("to", strconv.FormatInt(to.Unix(), 10))

	var candles candleResponse
	if err := c.getJSON(ctx, candlePath, ticker, params, &candles); err != nil {
		return nil, err
	}

	switch candles.Status {
	case "no_data":
		return []domain.RawPricePoint{}, nil
	case "ok":
	default:
		return nil, fmt.Errorf("candle request failed for symbol %s: status %q", ticker, candles.Status)
	}
	if len(candles.Close) != len(candles.Timestamp) {
		return nil, fmt.Errorf("candle response for %s has %d closes and %d timestamps", ticker, len(candles.Close), len(candles.Timestamp))
	}

	points := make([]domain.RawPricePoint, 0, len(candles.Close))
	for i, closePrice := range candles.Close {
		d, err := floatDecimal(closePrice)
		if err != nil {
			return nil, err
		}
		points = append(points, domain.RawPricePoint{
			Date:  time.Unix(candles.Timestamp[i], 0).UTC().Format(time.RFC3339),
			Close: d,
		})
	}
	return points, nil
}

func (c *Client) getQuote(ctx context.Context, ticker string) (*quoteResponse, error) {
	var quoteResp quoteResponse
	if err := c.getJSON(ctx, quotePath, ticker, nil, &quoteResp); err != nil {
		return nil, err
	}

	// Finnhub returns 0 for all fields if symbol not found
	if quoteResp.Current == 0 && quoteResp.PreviousClose == 0 && quoteResp.Timestamp == 0 {
		return nil, fmt.Errorf("no quote data found for symbol: %s", ticker)
	}
	return &quoteResp, nil
}

func (c *Client) getProfile(ctx context.Context, ticker string) (*profileResponse, error) {
	var profileResp profileResponse
	if err := c.getJSON(ctx, profilePath, ticker, nil, &profileResp); err != nil {
		return nil, err
	}

	// An empty object means the symbol is unknown
	if profileResp.Name == "" && profileResp.Currency == "" {
		return nil, fmt.Errorf("no profile data found for symbol: %s", ticker)
	}
	return &profileResp, nil
}

func (c *Client) getMetrics(ctx context.Context, ticker string) (*metricResponse, error) {
	params := url.Values{}
	params.Add("metric", "all")

	var metricResp metricResponse
	if err := c.getJSON(ctx, metricPath, ticker, params, &metricResp); err != nil {
		return nil, err
	}
	return &metricResp, nil
}

func (c *Client) getJSON(ctx context.Context, path, ticker string, params url.Values, out any) error {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return marketdata.ErrEmptyTicker
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("symbol", ticker)
	params.Set("token", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr, "path", path)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func floatDecimal(f float64) (domain.Decimal, error) {
	d, err := domain.NewDecimalFromFloat(f)
	if err != nil {
		return domain.Zero, fmt.Errorf("failed to parse price: %w", err)
	}
	return d, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(f float64) *domain.Decimal {
	d, err := domain.NewDecimalFromFloat(f)
	if err != nil {
		return nil
	}
	return &d
}

func optionalFloatPtr(f *float64) *domain.Decimal {
	if f == nil {
		return nil
	}
	return optionalFloat(*f)
}

var _ marketdata.Source = (*Client)(nil)
