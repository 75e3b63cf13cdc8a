package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmanzanog/stonk/internal/application"
	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/interfaces/view"
)

// PortfolioService defines the interface for portfolio operations
type PortfolioService interface {
	AddPortfolio(ctx context.Context, name string) (*domain.Portfolio, error)
	ListPortfolios(ctx context.Context) (domain.Portfolios, error)
	GetPortfolio(ctx context.Context, name string) (*domain.Portfolio, error)
	DeletePortfolio(ctx context.Context, name string) error
	RefreshPortfolio(ctx context.Context, name string) (*domain.Portfolio, application.RefreshSummary, error)
	AddHolding(ctx context.Context, portfolioName, ticker string, numShares, averagePrice domain.Decimal) (*domain.Holding, bool, error)
	AddHoldings(ctx context.Context, portfolioName string, requests []application.AddHoldingRequest) (*application.AddHoldingsResult, error)
	GetHolding(ctx context.Context, portfolioName, ticker string) (*domain.Holding, error)
	RemoveHolding(ctx context.Context, portfolioName, ticker string) error
	RefreshHoldingDetails(ctx context.Context, portfolioName, ticker string) (*domain.Holding, bool, error)
	GetPriceHistory(ctx context.Context, ticker string, period domain.ChartPeriod) (domain.PriceHistory, error)
	LogoURL(ticker string) string
}

type Handler struct {
	portfolioService PortfolioService
}

func NewHandler(portfolioService PortfolioService) *Handler {
	return &Handler{
		portfolioService: portfolioService,
	}
}

type CreatePortfolioRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddHoldingRequest struct {
	Ticker       string         `json:"ticker" binding:"required"`
	NumShares    domain.Decimal `json:"num_shares"`
	AveragePrice domain.Decimal `json:"average_price"`
}

type AddHoldingsRequest struct {
	Holdings []application.AddHoldingRequest `json:"holdings" binding:"required"`
}

type AddHoldingResponse struct {
	Holding view.HoldingView `json:"holding"`
	Merged  bool             `json:"merged"`
}

type RefreshResponse struct {
	Portfolio view.PortfolioView        `json:"portfolio"`
	Refresh   application.RefreshSummary `json:"refresh"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPortfolioNotFound), errors.Is(err, domain.ErrHoldingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicatePortfolio):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPortfolio), errors.Is(err, domain.ErrInvalidHolding):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrHistoryUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, view.ErrNotEnoughPoints):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, msg string, err error, attrs ...any) {
	status := statusFor(err)
	attrs = append(attrs, "status", status, "error", err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), msg, attrs...)
	} else {
		slog.WarnContext(c.Request.Context(), msg, attrs...)
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "Invalid request", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

func (h *Handler) ListPortfolios(c *gin.Context) {
	portfolios, err := h.portfolioService.ListPortfolios(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list portfolios", err)
		return
	}

	v, err := view.NewPortfoliosView(portfolios, h.portfolioService.LogoURL)
	if err != nil {
		h.fail(c, "Failed to build portfolios view", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) CreatePortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := h.portfolioService.AddPortfolio(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, "Failed to create portfolio", err, "portfolio", req.Name)
		return
	}
	h.writePortfolio(c, http.StatusCreated, p)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	name := c.Param("name")

	p, err := h.portfolioService.GetPortfolio(c.Request.Context(), name)
	if err != nil {
		h.fail(c, "Failed to get portfolio", err, "portfolio", name)
		return
	}
	h.writePortfolio(c, http.StatusOK, p)
}

func (h *Handler) DeletePortfolio(c *gin.Context) {
	name := c.Param("name")

	if err := h.portfolioService.DeletePortfolio(c.Request.Context(), name); err != nil {
		h.fail(c, "Failed to delete portfolio", err, "portfolio", name)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RefreshPortfolio(c *gin.Context) {
	name := c.Param("name")

	p, summary, err := h.portfolioService.RefreshPortfolio(c.Request.Context(), name)
	if err != nil {
		h.fail(c, "Failed to refresh portfolio", err, "portfolio", name)
		return
	}

	v, err := view.NewPortfolioView(p, h.portfolioService.LogoURL)
	if err != nil {
		h.fail(c, "Failed to build portfolio view", err, "portfolio", name)
		return
	}
	c.JSON(http.StatusOK, RefreshResponse{Portfolio: v, Refresh: summary})
}

func (h *Handler) AddHolding(c *gin.Context) {
	name := c.Param("name")

	var req AddHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	holding, appended, err := h.portfolioService.AddHolding(c.Request.Context(), name, req.Ticker, req.NumShares, req.AveragePrice)
	if err != nil {
		h.fail(c, "Failed to add holding", err, "portfolio", name, "ticker", req.Ticker)
		return
	}

	v, err := view.NewHoldingView(holding, h.portfolioService.LogoURL)
	if err != nil {
		h.fail(c, "Failed to build holding view", err, "ticker", req.Ticker)
		return
	}

	status := http.StatusOK
	if appended {
		status = http.StatusCreated
	}
	c.JSON(status, AddHoldingResponse{Holding: v, Merged: !appended})
}

func (h *Handler) AddHoldingsBatch(c *gin.Context) {
	name := c.Param("name")

	var req AddHoldingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.portfolioService.AddHoldings(c.Request.Context(), name, req.Holdings)
	if err != nil {
		h.fail(c, "Failed to add holdings", err, "portfolio", name, "count", len(req.Holdings))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHolding(c *gin.Context) {
	name, ticker := c.Param("name"), c.Param("ticker")

	holding, err := h.portfolioService.GetHolding(c.Request.Context(), name, ticker)
	if err != nil {
		h.fail(c, "Failed to get holding", err, "portfolio", name, "ticker", ticker)
		return
	}
	h.writeHolding(c, holding)
}

func (h *Handler) DeleteHolding(c *gin.Context) {
	name, ticker := c.Param("name"), c.Param("ticker")

	if err := h.portfolioService.RemoveHolding(c.Request.Context(), name, ticker); err != nil {
		h.fail(c, "Failed to delete holding", err, "portfolio", name, "ticker", ticker)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RefreshHoldingDetails(c *gin.Context) {
	name, ticker := c.Param("name"), c.Param("ticker")

	holding, ok, err := h.portfolioService.RefreshHoldingDetails(c.Request.Context(), name, ticker)
	if err != nil {
		h.fail(c, "Failed to refresh holding details", err, "portfolio", name, "ticker", ticker)
		return
	}
	if !ok {
		slog.WarnContext(c.Request.Context(), "Holding details unavailable", "portfolio", name, "ticker", ticker)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "holding details unavailable"})
		return
	}
	h.writeHolding(c, holding)
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	ticker := domain.NormalizeTicker(c.Param("ticker"))
	history, period, ok := h.loadHistory(c, ticker)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view.NewHistoryView(ticker, period, history))
}

func (h *Handler) GetPriceChart(c *gin.Context) {
	ticker := domain.NormalizeTicker(c.Param("ticker"))
	history, period, ok := h.loadHistory(c, ticker)
	if !ok {
		return
	}

	png, err := view.RenderPriceChart(ticker, period, history)
	if err != nil {
		h.fail(c, "Failed to render price chart", err, "ticker", ticker, "period", period)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) loadHistory(c *gin.Context, ticker string) (domain.PriceHistory, domain.ChartPeriod, bool) {
	period, err := domain.ParseChartPeriod(c.DefaultQuery("period", string(domain.ChartPeriodMonth)))
	if err != nil {
		h.badRequest(c, err)
		return nil, "", false
	}

	history, err := h.portfolioService.GetPriceHistory(c.Request.Context(), ticker, period)
	if err != nil {
		h.fail(c, "Failed to get price history", err, "ticker", ticker, "period", period)
		return nil, "", false
	}
	return history, period, true
}

func (h *Handler) writePortfolio(c *gin.Context, status int, p *domain.Portfolio) {
	v, err := view.NewPortfolioView(p, h.portfolioService.LogoURL)
	if err != nil {
		h.fail(c, "Failed to build portfolio view", err, "portfolio", p.Name)
		return
	}
	c.JSON(status, v)
}

func (h *Handler) writeHolding(c *gin.Context, holding *domain.Holding) {
	v, err := view.NewHoldingView(holding, h.portfolioService.LogoURL)
	if err != nil {
		h.fail(c, "Failed to build holding view", err, "ticker", holding.Ticker())
		return
	}
	c.JSON(http.StatusOK, v)
}
