package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata"
)

const (
	defaultBaseURL = "http://127.0.0.1:8000"
	pricesPath     = "/prices"
	infoPath       = "/info"
	historyPath    = "/history"
	logosPath      = "/logos"
)

// Client implements marketdata.Source against the Stonk quote API, a small
// yfinance-backed service exposing prices, company info, history and logos.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new client with default settings.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL creates a new client with a custom base URL.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.SetBaseURL(baseURL)
	return c
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

// SetBaseURL sets the base URL for the API.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

type priceResponse struct {
	Price *domain.Decimal `json:"price"`
}

type infoResponse struct {
	Name             *string         `json:"name"`
	Description      *string         `json:"description"`
	Sector           *string         `json:"sector"`
	Website          *string         `json:"website"`
	MarketCap        *domain.Decimal `json:"marketCap"`
	PERatio          *domain.Decimal `json:"peRatio"`
	DividendYield    *domain.Decimal `json:"dividendYield"`
	Beta             *domain.Decimal `json:"beta"`
	FiftyTwoWeekHigh *domain.Decimal `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  *domain.Decimal `json:"fiftyTwoWeekLow"`
	PreviousClose    *domain.Decimal `json:"previousClose"`
	AverageVolume    *int64          `json:"averageVolume"`
	Industry         *string         `json:"industry"`
	Country          *string         `json:"country"`
	Employees        *int64          `json:"employees"`
}

type historyResponse struct {
	History *[]domain.RawPricePoint `json:"history"`
}

// errorResponse is FastAPI's error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Price returns the last traded price for ticker.
func (c *Client) Price(ctx context.Context, ticker string) (domain.Decimal, error) {
	reqURL, err := c.tickerURL(pricesPath, ticker)
	if err != nil {
		return domain.Zero, err
	}

	var priceResp priceResponse
	if err := c.getJSON(ctx, reqURL, &priceResp); err != nil {
		return domain.Zero, err
	}
	if priceResp.Price == nil {
		return domain.Zero, fmt.Errorf("price request returned no price data for symbol: %s", ticker)
	}
	return *priceResp.Price, nil
}

// Details returns the sparse company and market snapshot for ticker.
func (c *Client) Details(ctx context.Context, ticker string) (domain.HoldingDetails, error) {
	reqURL, err := c.tickerURL(infoPath, ticker)
	if err != nil {
		return domain.HoldingDetails{}, err
	}

	var info infoResponse
	if err := c.getJSON(ctx, reqURL, &info); err != nil {
		return domain.HoldingDetails{}, err
	}

	return domain.HoldingDetails{
		Name:             info.Name,
		Description:      info.Description,
		Sector:           info.Sector,
		Industry:         info.Industry,
		Country:          info.Country,
		Website:          info.Website,
		Employees:        info.Employees,
		MarketCap:        info.MarketCap,
		PERatio:          info.PERatio,
		DividendYield:    info.DividendYield,
		Beta:             info.Beta,
		FiftyTwoWeekHigh: info.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  info.FiftyTwoWeekLow,
		PreviousClose:    info.PreviousClose,
		AverageVolume:    info.AverageVolume,
	}, nil
}

// History returns the raw closing-price series for ticker over period.
// The service maps the period to its own span and interval.
func (c *Client) History(ctx context.Context, ticker string, period domain.ChartPeriod) ([]domain.RawPricePoint, error) {
	reqURL, err := c.tickerURL(historyPath, ticker)
	if err != nil {
		return nil, err
	}
	reqURL += "?" + url.Values{"period": {string(period)}}.Encode()

	var historyResp historyResponse
	if err := c.getJSON(ctx, reqURL, &historyResp); err != nil {
		return nil, err
	}
	if historyResp.History == nil {
		return nil, fmt.Errorf("history request returned no history field for symbol: %s", ticker)
	}
	return *historyResp.History, nil
}

// LogoURL returns where the service serves the company logo for ticker.
func (c *Client) LogoURL(ticker string) string {
	return c.baseURL + logosPath + "/" + url.PathEscape(domain.NormalizeTicker(ticker))
}

func (c *Client) tickerURL(path, ticker string) (string, error) {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return "", marketdata.ErrEmptyTicker
	}
	return fmt.Sprintf("%s%s/%s", c.baseURL, path, url.PathEscape(ticker)), nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
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
			slog.Warn("failed to close response body", "error", closeErr, "url", reqURL)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
			return fmt.Errorf("API error: %s", errResp.Detail)
		}
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Compile-time checks.
var (
	_ marketdata.Source     = (*Client)(nil)
	_ marketdata.LogoSource = (*Client)(nil)
)
