// Package charts renders transaction data as PNG images for chat delivery.
package charts

import (
	"bytes"
	"sort"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/dompetdev/dompetbot/internal/model"
)

type Generator struct {
	width  int
	height int
}

func NewGenerator() *Generator {
	return &Generator{width: 800, height: 500}
}

// ExpenseBarChart draws per-category expense totals. Returns nil bytes when
// the period holds no expenses.
func (g *Generator) ExpenseBarChart(transactions []model.Transaction, title string) ([]byte, error) {
	totals := make(map[string]float64)
	for _, tx := range transactions {
		if tx.Type == model.TypeExpense {
			totals[tx.Category] += tx.Amount
		}
	}
	if len(totals) == 0 {
		return nil, nil
	}

	categories := make([]string, 0, len(totals))
	for name := range totals {
		categories = append(categories, name)
	}
	sort.Slice(categories, func(i, j int) bool {
		return totals[categories[i]] > totals[categories[j]]
	})

	bars := make([]chart.Value, 0, len(categories))
	for _, name := range categories {
		bars = append(bars, chart.Value{
			Label: name,
			Value: totals[name],
		})
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    g.width,
		Height:   g.height,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
