package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dompetdev/dompetbot/internal/model"
)

func testCategories() []model.Category {
	return []model.Category{
		{ID: "c1", Name: "Makanan", Type: model.TypeExpense, Keywords: "makan, kopi, cafe, resto, sarapan"},
		{ID: "c2", Name: "Transportasi", Type: model.TypeExpense, Keywords: "bensin, gojek, grab, parkir, tol"},
		{ID: "c3", Name: "Belanja", Type: model.TypeExpense, Keywords: "beli, belanja, tokopedia, shopee"},
		{ID: "c4", Name: "Gaji", Type: model.TypeIncome, Keywords: "gaji, gajian, salary"},
		{ID: "c5", Name: "Bonus", Type: model.TypeIncome, Keywords: "bonus, thr, insentif"},
	}
}

func TestClassifyPicksHighestKeywordScore(t *testing.T) {
	cats := testCategories()

	// "beli" scores 4 for Belanja; "kopi" plus "cafe" would outscore it
	assert.Equal(t, "Belanja", Classify(cats, "beli pulsa 50rb", model.TypeExpense))
	assert.Equal(t, "Makanan", Classify(cats, "sarapan kopi di cafe", model.TypeExpense))
}

func TestClassifyIsDeterministic(t *testing.T) {
	cats := testCategories()

	first := Classify(cats, "beli kopi susu di starbucks", model.TypeExpense)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Classify(cats, "beli kopi susu di starbucks", model.TypeExpense))
	}
}

func TestClassifyFallsBackToOther(t *testing.T) {
	cats := testCategories()

	assert.Equal(t, Fallback, Classify(cats, "xyzabc", model.TypeExpense))
	assert.Equal(t, Fallback, Classify(nil, "beli kopi", model.TypeExpense))
}

func TestClassifyMatchesAreCaseInsensitive(t *testing.T) {
	cats := testCategories()

	assert.Equal(t, "Makanan", Classify(cats, "KOPI di CAFE", model.TypeExpense))
}

func TestClassifyIncomeOnlySeesIncomeCategories(t *testing.T) {
	cats := testCategories()

	// "beli" is an expense keyword; an income transaction skips it
	assert.Equal(t, Fallback, Classify(cats, "beli sesuatu", model.TypeIncome))
	assert.Equal(t, "Gaji", Classify(cats, "gajian bulan ini", model.TypeIncome))
}

func TestClassifyStrictlyHighestWins(t *testing.T) {
	cats := []model.Category{
		{ID: "a", Name: "First", Type: model.TypeExpense, Keywords: "abcd"},
		{ID: "b", Name: "Second", Type: model.TypeExpense, Keywords: "wxyz"},
	}

	// equal scores keep the first encountered category
	assert.Equal(t, "First", Classify(cats, "abcd wxyz", model.TypeExpense))
}
