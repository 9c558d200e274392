package http

import (
	"strings"
	"testing"

	"budgetmate/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLineChart(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		c := buildLineChart(nil)
		assert.Empty(t, c.Points)
		assert.Equal(t, chartWidth, c.Width)
	})

	t.Run("single point is centred", func(t *testing.T) {
		c := buildLineChart([]core.DateTotal{{Date: core.NewDate(2026, 3, 1), Total: core.Money{Cents: 500}}})
		require.Len(t, c.Labels, 1)
		assert.Equal(t, chartWidth/2, c.Labels[0].X)
		assert.Equal(t, chartPadding, c.Labels[0].Y, "the maximum touches the top of the plot")
	})

	t.Run("scaled to maximum", func(t *testing.T) {
		c := buildLineChart([]core.DateTotal{
			{Date: core.NewDate(2026, 3, 1), Total: core.Money{Cents: 15000}},
			{Date: core.NewDate(2026, 3, 2), Total: core.Money{Cents: 0}},
			{Date: core.NewDate(2026, 3, 3), Total: core.Money{Cents: 7500}},
		})
		assert.Equal(t, int64(15000), c.Max.Cents)
		require.Len(t, c.Labels, 3)
		assert.Equal(t, chartPadding, c.Labels[0].X)
		assert.Equal(t, chartWidth-chartPadding, c.Labels[2].X)
		assert.Equal(t, chartHeight-chartPadding, c.Labels[1].Y)
		assert.Equal(t, "2026-03-03", c.Labels[2].Date)
		assert.Len(t, strings.Fields(c.Points), 3)
	})
}

func TestBuildCategoryBars(t *testing.T) {
	bars := buildCategoryBars(map[core.Category]core.Money{
		"Food": {Cents: 2500},
		"Rent": {Cents: 7500},
	})
	require.Len(t, bars, 2)
	assert.Equal(t, core.Category("Rent"), bars[0].Category)
	assert.Equal(t, 75, bars[0].Percent)
	assert.Equal(t, 25, bars[1].Percent)

	assert.Empty(t, buildCategoryBars(nil))

	zero := buildCategoryBars(map[core.Category]core.Money{"Food": {}})
	require.Len(t, zero, 1)
	assert.Equal(t, 0, zero[0].Percent)
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{123456, "1,234.56"},
		{-5000, "-50.00"},
		{100000000, "1,000,000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(core.Money{Cents: tt.cents}))
	}
	assert.Equal(t, "March 2026", formatMonth("2026-03"))
	assert.Equal(t, "garbage", formatMonth("garbage"))
}
