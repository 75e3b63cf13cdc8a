package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata"
	"github.com/jmanzanog/stonk/internal/infrastructure/marketdata/sources"
)

type globalOptions struct {
	provider         string
	baseURL          string
	finnhubAPIKey    string
	twelveDataAPIKey string
	timeout          time.Duration
}

func (o *globalOptions) source() (marketdata.Source, error) {
	return sources.New(sources.Options{
		Provider:         o.provider,
		BaseURL:          o.baseURL,
		FinnhubAPIKey:    o.finnhubAPIKey,
		TwelveDataAPIKey: o.twelveDataAPIKey,
		Timeout:          o.timeout,
	})
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "stonkctl",
		Short: "Query share prices, company info and price history",
		Long: `stonkctl talks to the same market data providers as the stonk server
and prints prices, company details and price history, or renders a chart.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultProvider := os.Getenv("MARKET_DATA_PROVIDER")
	if defaultProvider == "" {
		defaultProvider = sources.YFinance
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.provider, "provider", "p", defaultProvider, "Market data provider: yfinance, finnhub or twelvedata")
	flags.StringVar(&opts.baseURL, "base-url", os.Getenv("YFINANCE_BASE_URL"), "Override the provider endpoint")
	flags.StringVar(&opts.finnhubAPIKey, "finnhub-api-key", os.Getenv("FINNHUB_API_KEY"), "Finnhub API key (defaults to FINNHUB_API_KEY)")
	flags.StringVar(&opts.twelveDataAPIKey, "twelvedata-api-key", os.Getenv("TWELVE_DATA_API_KEY"), "Twelve Data API key (defaults to TWELVE_DATA_API_KEY)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(priceCmd(opts))
	rootCmd.AddCommand(infoCmd(opts))
	rootCmd.AddCommand(historyCmd(opts))
	rootCmd.AddCommand(chartCmd(opts))

	return rootCmd
}
