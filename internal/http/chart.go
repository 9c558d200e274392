package http

import (
	"strconv"
	"strings"

	"budgetmate/internal/core"
)

const (
	chartWidth   = 600
	chartHeight  = 240
	chartPadding = 24
)

// LineChart is a precomputed SVG line of expense totals per date.
type LineChart struct {
	Width, Height int
	Points        string
	Labels        []ChartLabel
	Max           core.Money
}

// ChartLabel marks one data point.
type ChartLabel struct {
	X, Y  int
	Date  string
	Total core.Money
}

// CategoryBar is one row of the by-category breakdown.
type CategoryBar struct {
	Category core.Category
	Amount   core.Money
	Percent  int
}

// buildLineChart scales series into the chart box. Dates are spaced
// evenly; the y axis starts at zero.
func buildLineChart(series []core.DateTotal) LineChart {
	c := LineChart{Width: chartWidth, Height: chartHeight}
	if len(series) == 0 {
		return c
	}

	for _, p := range series {
		if p.Total.Cents > c.Max.Cents {
			c.Max = p.Total
		}
	}

	plotW := chartWidth - 2*chartPadding
	plotH := chartHeight - 2*chartPadding
	pts := make([]string, 0, len(series))
	for i, p := range series {
		x := chartPadding + plotW/2
		if len(series) > 1 {
			x = chartPadding + i*plotW/(len(series)-1)
		}
		y := chartHeight - chartPadding
		if c.Max.Cents > 0 {
			y -= int(p.Total.Cents * int64(plotH) / c.Max.Cents)
		}
		pts = append(pts, strconv.Itoa(x)+","+strconv.Itoa(y))
		c.Labels = append(c.Labels, ChartLabel{X: x, Y: y, Date: p.Date.String(), Total: p.Total})
	}
	c.Points = strings.Join(pts, " ")
	return c
}

// buildCategoryBars turns category totals into rows sorted by amount,
// each with its whole-percent share of the total.
func buildCategoryBars(totals map[core.Category]core.Money) []CategoryBar {
	sorted := core.SortedCategoryAmounts(totals)
	var sum int64
	for _, ca := range sorted {
		sum += ca.Amount.Cents
	}

	bars := make([]CategoryBar, 0, len(sorted))
	for _, ca := range sorted {
		pct := 0
		if sum > 0 {
			pct = int((ca.Amount.Cents*100 + sum/2) / sum)
		}
		bars = append(bars, CategoryBar{Category: ca.Category, Amount: ca.Amount, Percent: pct})
	}
	return bars
}
