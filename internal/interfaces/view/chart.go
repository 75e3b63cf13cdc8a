package view

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jmanzanog/stonk/internal/domain"
)

// ErrNotEnoughPoints is returned when a series is too short to draw a line.
var ErrNotEnoughPoints = errors.New("need at least 2 data points")

var (
	upColor   = drawing.ColorFromHex("16a34a") // green-600
	downColor = drawing.ColorFromHex("dc2626") // red-600
)

var axisDateLayouts = map[domain.ChartPeriod]string{
	domain.ChartPeriodDay:       "15:04",
	domain.ChartPeriodWeek:      "Mon 2",
	domain.ChartPeriodMonth:     "Jan 2",
	domain.ChartPeriodYear:      "Jan 06",
	domain.ChartPeriodFiveYears: "2006",
}

// RenderPriceChart renders a PNG line chart of closing prices. The line is
// green when the period closed at or above its first point and red otherwise.
func RenderPriceChart(ticker string, period domain.ChartPeriod, history domain.PriceHistory) ([]byte, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrNotEnoughPoints, len(history))
	}

	xValues := make([]time.Time, len(history))
	yValues := make([]float64, len(history))
	for i, p := range history {
		xValues[i] = p.Date
		yValues[i] = p.Close.Float64()
	}

	color := upColor
	if change, ok := history.Change(nil); ok && change.Amount.IsNegative() {
		color = downColor
	}

	layout, ok := axisDateLayouts[period]
	if !ok {
		layout = "Jan 2"
	}

	low, high := history.Range()
	yMin, yMax := low.Float64(), high.Float64()
	if yMax <= yMin {
		// a flat series has no span to pad
		yMin, yMax = yMin-1, yMax+1
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s (%s)", ticker, period.DisplayName()),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(layout)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: ticker,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 2.5,
					FillColor:   color.WithAlpha(40),
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
