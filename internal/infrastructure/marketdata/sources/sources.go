// Package sources builds the configured market-data backend.
package sources

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata/finnhub"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata/twelvedata"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata/yfinance"
)

const (
	YFinance   = "yfinance"
	Finnhub    = "finnhub"
	TwelveData = "twelvedata"
)

type Options struct {
	Provider string
	// BaseURL overrides the provider's default endpoint when set.
	BaseURL          string
	FinnhubAPIKey    string
	TwelveDataAPIKey string
	Timeout          time.Duration
}

func New(opts Options) (marketdata.Source, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	switch strings.ToLower(opts.Provider) {
	case YFinance, "":
		c := yfinance.NewClientWithHTTPClient(httpClient)
		if opts.BaseURL != "" {
			c.SetBaseURL(opts.BaseURL)
		}
		return c, nil
	case Finnhub:
		if opts.FinnhubAPIKey == "" {
			return nil, fmt.Errorf("finnhub provider requires an API key")
		}
		c := finnhub.NewClientWithHTTPClient(opts.FinnhubAPIKey, httpClient)
		if opts.BaseURL != "" {
			c.SetBaseURL(opts.BaseURL)
		}
		return c, nil
	case TwelveData:
		if opts.TwelveDataAPIKey == "" {
			return nil, fmt.Errorf("twelvedata provider requires an API key")
		}
		c := twelvedata.NewClientWithHTTPClient(opts.TwelveDataAPIKey, httpClient)
		if opts.BaseURL != "" {
			c.SetBaseURL(opts.BaseURL)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", opts.Provider)
	}
}
