package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dompetdev/dompetbot/internal/model"
	"github.com/dompetdev/dompetbot/internal/repository"
)

func newTestFinance(t *testing.T) *Finance {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "finance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(context.Background()))
	return NewFinance(store)
}

func setBalance(t *testing.T, f *Finance, name string, balance float64) *model.Account {
	t.Helper()
	ctx := context.Background()
	account, err := f.store.GetAccountByName(ctx, name)
	require.NoError(t, err)
	updated, err := f.SetAccountBalance(ctx, account.ID, balance)
	require.NoError(t, err)
	return updated
}

func TestRecordExpenseDebitsAccountAndClassifies(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()
	setBalance(t, f, "BCA", 1_000_000)

	result, err := f.RecordTransaction(ctx, &model.ParsedTransaction{
		Type:        model.TypeExpense,
		Amount:      25_000,
		AccountName: "BCA",
		Note:        "Beli kopi 25rb BCA",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(975_000), result.Account.Balance)
	assert.Equal(t, "Food", result.CategoryName)
	assert.True(t, result.AutoClassified)
	assert.NotEmpty(t, result.Transaction.ID)
}

func TestRecordIncomeCreditsAccount(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()
	setBalance(t, f, "BCA", 100_000)

	result, err := f.RecordTransaction(ctx, &model.ParsedTransaction{
		Type:        model.TypeIncome,
		Amount:      5_000_000,
		AccountName: "BCA",
		Note:        "Gaji bulan ini",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(5_100_000), result.Account.Balance)
	assert.Equal(t, "Salary", result.CategoryName)
}

func TestRecordUnknownAccountFails(t *testing.T) {
	f := newTestFinance(t)

	_, err := f.RecordTransaction(context.Background(), &model.ParsedTransaction{
		Type:        model.TypeExpense,
		Amount:      10_000,
		AccountName: "Mandiri",
		Note:        "beli sesuatu",
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordTransferMovesBothBalances(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()
	setBalance(t, f, "BCA", 500_000)
	gopay := setBalance(t, f, "GoPay", 50_000)

	result, err := f.RecordTransaction(ctx, &model.ParsedTransaction{
		Type:          model.TypeTransfer,
		Amount:        100_000,
		AccountName:   "BCA",
		ToAccountName: "GoPay",
		Note:          "Transfer 100rb dari BCA ke GoPay",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(400_000), result.Account.Balance)
	assert.Equal(t, gopay.ID, result.Transaction.ToAccountID)

	target, err := f.AccountByID(ctx, gopay.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(150_000), target.Balance)
}

func TestRecordTransferWithUnknownTargetKeepsBalances(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()
	setBalance(t, f, "BCA", 500_000)

	result, err := f.RecordTransaction(ctx, &model.ParsedTransaction{
		Type:          model.TypeTransfer,
		Amount:        100_000,
		AccountName:   "BCA",
		ToAccountName: "Mandiri",
		Note:          "Transfer 100rb dari BCA ke Mandiri",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(500_000), result.Account.Balance)
	assert.Empty(t, result.Transaction.ToAccountID)
}

func TestRecordExpenseBumpsBudgetExactlyOnce(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()
	setBalance(t, f, "BCA", 1_000_000)

	_, err := f.CreateBudget(ctx, "Food", 500_000)
	require.NoError(t, err)

	_, err = f.RecordTransaction(ctx, &model.ParsedTransaction{
		Type:        model.TypeExpense,
		Amount:      30_000,
		AccountName: "BCA",
		Note:        "makan siang",
	})
	require.NoError(t, err)

	budget, err := f.BudgetByCategory(ctx, "Food")
	require.NoError(t, err)
	assert.Equal(t, float64(30_000), budget.Spent)

	// a later delete does not touch the budget counter
	transactions, err := f.RecentTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, transactions, 1)

	_, err = f.DeleteTransactionByQuery(ctx, transactions[0].ID)
	require.NoError(t, err)

	budget, err = f.BudgetByCategory(ctx, "Food")
	require.NoError(t, err)
	assert.Equal(t, float64(30_000), budget.Spent)
}

func TestDeleteByQueryRestoresBalance(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()
	setBalance(t, f, "BCA", 1_000_000)

	recorded, err := f.RecordTransaction(ctx, &model.ParsedTransaction{
		Type:        model.TypeExpense,
		Amount:      75_000,
		AccountName: "BCA",
		Note:        "belanja bulanan unik",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(925_000), recorded.Account.Balance)

	deleted, err := f.DeleteTransactionByQuery(ctx, "bulanan unik")
	require.NoError(t, err)
	require.NotNil(t, deleted.Deleted)
	assert.Equal(t, recorded.Transaction.ID, deleted.Deleted.ID)
	assert.Equal(t, float64(1_000_000), deleted.Account.Balance)
}

func TestDeleteByQueryAmbiguousReturnsMatches(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()
	setBalance(t, f, "BCA", 1_000_000)

	for i := 0; i < 2; i++ {
		_, err := f.RecordTransaction(ctx, &model.ParsedTransaction{
			Type:        model.TypeExpense,
			Amount:      10_000,
			AccountName: "BCA",
			Note:        "parkir motor",
		})
		require.NoError(t, err)
	}

	result, err := f.DeleteTransactionByQuery(ctx, "parkir")
	require.NoError(t, err)
	assert.Nil(t, result.Deleted)
	assert.Len(t, result.Matches, 2)
}

func TestCreateGoalStartsAtZero(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()

	goal, err := f.CreateGoal(ctx, "Liburan Bali", 10_000_000, "✈️", "blue")
	require.NoError(t, err)
	assert.Zero(t, goal.CurrentAmount)
	assert.Equal(t, float64(10_000_000), goal.TargetAmount)

	updated, err := f.AddToGoal(ctx, goal.ID, 500_000)
	require.NoError(t, err)
	assert.Equal(t, float64(500_000), updated.CurrentAmount)
}

func TestAvailableBudgetCategoriesExcludesTaken(t *testing.T) {
	f := newTestFinance(t)
	ctx := context.Background()

	before, err := f.AvailableBudgetCategories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	_, err = f.CreateBudget(ctx, before[0].Name, 100_000)
	require.NoError(t, err)

	after, err := f.AvailableBudgetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	for _, c := range after {
		assert.NotEqual(t, before[0].Name, c.Name)
		assert.Equal(t, model.TypeExpense, c.Type)
	}
}
