package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/interfaces/view"
)

// maxParallelQuotes bounds the price command's fan-out.
const maxParallelQuotes = 4

func priceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price TICKER...",
		Short: "Print the last price of one or more tickers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := opts.source()
			if err != nil {
				return err
			}

			prices := make([]string, len(args))
			var (
				mu   sync.Mutex
				errs []error
			)
			var g errgroup.Group
			g.SetLimit(maxParallelQuotes)
			for i, ticker := range args {
				g.Go(func() error {
					price, err := src.Price(cmd.Context(), ticker)
					if err != nil {
						mu.Lock()
						errs = append(errs, fmt.Errorf("%s: %w", domain.NormalizeTicker(ticker), err))
						mu.Unlock()
						prices[i] = view.Absent
						return nil
					}
					prices[i] = view.Currency(price)
					return nil
				})
			}
			_ = g.Wait()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for i, ticker := range args {
				fmt.Fprintf(w, "%s\t%s\n", domain.NormalizeTicker(ticker), prices[i])
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
}

func infoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info TICKER",
		Short: "Print company details and key statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := opts.source()
			if err != nil {
				return err
			}
			ticker := domain.NormalizeTicker(args[0])

			d, err := src.Details(cmd.Context(), ticker)
			if err != nil {
				return fmt.Errorf("failed to fetch details for %s: %w", ticker, err)
			}

			rows := [][2]string{
				{"Ticker", ticker},
				{"Name", view.Text(d.Name)},
				{"Sector", view.Text(d.Sector)},
				{"Industry", view.Text(d.Industry)},
				{"Country", view.Text(d.Country)},
				{"Website", view.Text(d.Website)},
				{"Employees", view.Employees(d.Employees)},
				{"Market Cap", view.MarketCap(d.MarketCap)},
				{"P/E Ratio", view.Number(d.PERatio, 2)},
				{"Dividend Yield", view.Percent(d.DividendYield)},
				{"Beta", view.Number(d.Beta, 2)},
				{"52W High", view.OptionalCurrency(d.FiftyTwoWeekHigh)},
				{"52W Low", view.OptionalCurrency(d.FiftyTwoWeekLow)},
				{"Previous Close", view.OptionalCurrency(d.PreviousClose)},
				{"Avg Volume", view.Volume(d.AverageVolume)},
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if d.Description != nil && *d.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", strings.TrimSpace(*d.Description))
			}
			return nil
		},
	}
}

func periodFlag(cmd *cobra.Command, target *string, def domain.ChartPeriod) {
	names := make([]string, len(domain.ChartPeriods))
	for i, p := range domain.ChartPeriods {
		names[i] = string(p)
	}
	cmd.Flags().StringVar(target, "period", string(def), "Chart period: "+strings.Join(names, ", "))
}

func fetchHistory(cmd *cobra.Command, opts *globalOptions, ticker, periodName string) (domain.ChartPeriod, domain.PriceHistory, error) {
	period, err := domain.ParseChartPeriod(periodName)
	if err != nil {
		return "", nil, err
	}
	src, err := opts.source()
	if err != nil {
		return "", nil, err
	}
	raw, err := src.History(cmd.Context(), ticker, period)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch history for %s: %w", ticker, err)
	}
	return period, domain.ReducePriceHistory(raw), nil
}

func historyCmd(opts *globalOptions) *cobra.Command {
	var periodName string

	cmd := &cobra.Command{
		Use:   "history TICKER",
		Short: "Print closing prices and the change over a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := domain.NormalizeTicker(args[0])
			period, history, err := fetchHistory(cmd, opts, ticker, periodName)
			if err != nil {
				return err
			}

			hv := view.NewHistoryView(ticker, period, history)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s  %s  %s (%s)\n",
				hv.Ticker, hv.PeriodName, hv.Display.Price, hv.Display.Change, hv.Display.ChangePercent)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, p := range hv.Points {
				fmt.Fprintf(w, "%s\t%s\n", p.Date.Format("2006-01-02 15:04"), view.Currency(p.Close))
			}
			return w.Flush()
		},
	}
	periodFlag(cmd, &periodName, domain.ChartPeriodMonth)
	return cmd
}

func chartCmd(opts *globalOptions) *cobra.Command {
	var (
		periodName string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "chart TICKER",
		Short: "Render a PNG price chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := domain.NormalizeTicker(args[0])
			period, history, err := fetchHistory(cmd, opts, ticker, periodName)
			if err != nil {
				return err
			}

			png, err := view.RenderPriceChart(ticker, period, history)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = fmt.Sprintf("%s-%s.png", strings.ToLower(ticker), period)
			}
			if err := os.WriteFile(outPath, png, 0o644); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}
	periodFlag(cmd, &periodName, domain.ChartPeriodYear)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default TICKER-PERIOD.png)")
	return cmd
}
