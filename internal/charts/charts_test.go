package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dompetdev/dompetbot/internal/model"
)

func TestExpenseBarChartRendersPNG(t *testing.T) {
	g := NewGenerator()

	transactions := []model.Transaction{
		{ID: "1", Type: model.TypeExpense, Category: "Food", Amount: 150_000, Date: time.Now()},
		{ID: "2", Type: model.TypeExpense, Category: "Transport", Amount: 80_000, Date: time.Now()},
		{ID: "3", Type: model.TypeIncome, Category: "Salary", Amount: 5_000_000, Date: time.Now()},
	}

	png, err := g.ExpenseBarChart(transactions, "Pengeluaran Minggu Ini")
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestExpenseBarChartEmptyPeriod(t *testing.T) {
	g := NewGenerator()

	png, err := g.ExpenseBarChart(nil, "Kosong")
	require.NoError(t, err)
	assert.Nil(t, png)

	// income-only periods draw nothing either
	png, err = g.ExpenseBarChart([]model.Transaction{
		{ID: "1", Type: model.TypeIncome, Category: "Salary", Amount: 100, Date: time.Now()},
	}, "Kosong")
	require.NoError(t, err)
	assert.Nil(t, png)
}
