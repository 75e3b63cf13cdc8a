package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata"
)

const (
	defaultBaseURL = "https://api.twelvedata.com"
	pricePath      = "/price"
	quotePath      = "/quote"
	profilePath    = "/profile"
	timeSeriesPath = "/time_series"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func NewClientWithHTTPClient(apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// apiStatus is embedded in every response; errors arrive with HTTP 200.
type apiStatus struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s apiStatus) err() error {
	if s.Status == "error" {
		return fmt.Errorf("API error %d: %s", s.Code, s.Message)
	}
	return nil
}

type priceResponse struct {
	apiStatus
	Price *domain.Decimal `json:"price"`
}

type quoteResponse struct {
	apiStatus
	Name          string          `json:"name"`
	PreviousClose *domain.Decimal `json:"previous_close"`
	AverageVolume string          `json:"average_volume"`
	FiftyTwoWeek  struct {
		Low  *domain.Decimal `json:"low"`
		High *domain.Decimal `json:"high"`
	} `json:"fifty_two_week"`
}

type profileResponse struct {
	apiStatus
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Employees   int64  `json:"employees"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Country     string `json:"country"`
}

type timeSeriesResponse struct {
	apiStatus
	Meta struct {
		ExchangeTimezone string `json:"exchange_timezone"`
	} `json:"meta"`
	Values []struct {
		Datetime string         `json:"datetime"`
		Close    domain.Decimal `json:"close"`
	} `json:"values"`
}

type seriesSpec struct {
	interval   string
	outputSize int
}

var seriesSpecs = map[domain.ChartPeriod]seriesSpec{
	domain.ChartPeriodDay:       {interval: "15min", outputSize: 26},
	domain.ChartPeriodWeek:      {interval: "1day", outputSize: 5},
	domain.ChartPeriodMonth:     {interval: "1day", outputSize: 22},
	domain.ChartPeriodYear:      {interval: "1week", outputSize: 52},
	domain.ChartPeriodFiveYears: {interval: "1month", outputSize: 60},
}

func (c *Client) Price(ctx context.Context, ticker string) (domain.Decimal, error) {
	var priceResp priceResponse
	if err := c.getJSON(ctx, pricePath, ticker, nil, &priceResp); err != nil {
		return domain.Zero, err
	}
	if err := priceResp.err(); err != nil {
		return domain.Zero, fmt.Errorf("price request failed for symbol %s: %w", ticker, err)
	}
	if priceResp.Price == nil {
		return domain.Zero, fmt.Errorf("price request returned no price data for symbol: %s", ticker)
	}
	return *priceResp.Price, nil
}

// Details merges the quote (market fields) with the company profile. The
// profile endpoint needs a paid plan, so its failure only drops those fields.
func (c *Client) Details(ctx context.Context, ticker string) (domain.HoldingDetails, error) {
	var quoteResp quoteResponse
	if err := c.getJSON(ctx, quotePath, ticker, nil, &quoteResp); err != nil {
		return domain.HoldingDetails{}, err
	}
	if err := quoteResp.err(); err != nil {
		return domain.HoldingDetails{}, fmt.Errorf("quote request failed for symbol %s: %w", ticker, err)
	}

	details := domain.HoldingDetails{
		Name:             optionalString(quoteResp.Name),
		PreviousClose:    quoteResp.PreviousClose,
		FiftyTwoWeekHigh: quoteResp.FiftyTwoWeek.High,
		FiftyTwoWeekLow:  quoteResp.FiftyTwoWeek.Low,
	}
	if v, err := strconv.ParseInt(quoteResp.AverageVolume, 10, 64); err == nil {
		details.AverageVolume = &v
	}

	var profile profileResponse
	err := c.getJSON(ctx, profilePath, ticker, nil, &profile)
	if err == nil {
		err = profile.err()
	}
	if err != nil {
		slog.DebugContext(ctx, "twelvedata profile unavailable", "ticker", ticker, "error", err)
		return details, nil
	}

	if profile.Name != "" {
		details.Name = &profile.Name
	}
	details.Sector = optionalString(profile.Sector)
	details.Industry = optionalString(profile.Industry)
	details.Website = optionalString(profile.Website)
	details.Description = optionalString(profile.Description)
	details.Country = optionalString(profile.Country)
	if profile.Employees > 0 {
		details.Employees = &profile.Employees
	}
	return details, nil
}

// History returns the series oldest first; the API serves it newest first.
func (c *Client) History(ctx context.Context, ticker string, period domain.ChartPeriod) ([]domain.RawPricePoint, error) {
	spec, ok := seriesSpecs[period]
	if !ok {
		return nil, fmt.Errorf("unsupported period: %s", period)
	}
	params := url.Values{}
	params.Add("interval", spec.interval)
	params.Add("outputsize", strconv.Itoa(spec.outputSize))

	var series timeSeriesResponse
	if err := c.getJSON(ctx, timeSeriesPath, ticker, params, &series); err != nil {
		return nil, err
	}
	if err := series.err(); err != nil {
		return nil, fmt.Errorf("time series request failed for symbol %s: %w", ticker, err)
	}

	loc := exchangeLocation(series.Meta.ExchangeTimezone)
	points := make([]domain.RawPricePoint, 0, len(series.Values))
	for _, v := range series.Values {
		points = append(points, domain.RawPricePoint{Date: toRFC3339(v.Datetime, loc), Close: v.Close})
	}
	slices.Reverse(points)
	return points, nil
}

// seriesLayouts are the exchange-local formats the time series endpoint uses
// for intraday and daily bars.
var seriesLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

func exchangeLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Debug("Unknown exchange timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// toRFC3339 rewrites an exchange-local datetime as RFC3339. Unrecognised values
// pass through untouched and are dropped by the history reducer.
func toRFC3339(datetime string, loc *time.Location) string {
	for _, layout := range seriesLayouts {
		if t, err := time.ParseInLocation(layout, datetime, loc); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return datetime
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
	params.Set("apikey", c.apiKey)

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

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ marketdata.Source = (*Client)(nil)
