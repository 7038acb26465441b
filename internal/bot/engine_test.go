package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dompetdev/dompetbot/internal/auth"
	"github.com/dompetdev/dompetbot/internal/charts"
	"github.com/dompetdev/dompetbot/internal/model"
	"github.com/dompetdev/dompetbot/internal/parser"
	"github.com/dompetdev/dompetbot/internal/repository"
	"github.com/dompetdev/dompetbot/internal/service"
)

const testChat int64 = 42

func newTestEngine(t *testing.T) (*Engine, *repository.SQLiteStore) {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(context.Background()))

	finance := service.NewFinance(store)
	authSvc := auth.NewService(store.DB())
	engine := NewEngine(finance, authSvc, parser.NewRuleParser(store), charts.NewGenerator())
	return engine, store
}

func TestFreeTextRecordsExpense(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	resp := engine.HandleText(ctx, testChat, "Beli kopi 25rb BCA")
	assert.Contains(t, resp.Text, "Transaksi Dicatat")
	assert.Contains(t, resp.Text, "Food")

	account, err := store.GetAccountByName(ctx, "BCA")
	require.NoError(t, err)
	assert.Equal(t, float64(-25_000), account.Balance)
}

func TestFreeTextNotUnderstood(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp := engine.HandleText(context.Background(), testChat, "halo apa kabar")
	assert.Contains(t, resp.Text, "tidak dipahami")
	require.NotNil(t, resp.Keyboard)
}

func TestAddAccountFlow(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	resp := engine.HandleCallback(ctx, testChat, "acc_add")
	assert.Contains(t, resp.Text, "nama akun")

	resp = engine.HandleText(ctx, testChat, "Mandiri Payroll")
	assert.Contains(t, resp.Text, "jenis akun")

	resp = engine.HandleCallback(ctx, testChat, "type_Bank")
	assert.Contains(t, resp.Text, "saldo awal")

	resp = engine.HandleText(ctx, testChat, "500rb")
	assert.Contains(t, resp.Text, "Mandiri Payroll")
	assert.Contains(t, resp.Text, "dibuat")

	account, err := store.GetAccountByName(ctx, "Mandiri Payroll")
	require.NoError(t, err)
	assert.Equal(t, float64(500_000), account.Balance)
}

func TestInvalidAmountReprompts(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleCallback(ctx, testChat, "acc_add")
	engine.HandleText(ctx, testChat, "Tabungan")
	engine.HandleCallback(ctx, testChat, "type_Bank")

	resp := engine.HandleText(ctx, testChat, "bukan angka")
	assert.Contains(t, resp.Text, "Jumlah tidak dikenali")

	// the step did not advance; a valid amount still completes the flow
	resp = engine.HandleText(ctx, testChat, "1jt")
	assert.Contains(t, resp.Text, "dibuat")
}

func TestBackMainClearsActiveFlow(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleCallback(ctx, testChat, "acc_add")
	engine.HandleText(ctx, testChat, "Setengah Jalan")

	resp := engine.HandleCallback(ctx, testChat, "back_main")
	assert.Contains(t, resp.Text, "Menu Utama")

	// the flow is gone: plain text goes to the parser again
	resp = engine.HandleText(ctx, testChat, "halo")
	assert.Contains(t, resp.Text, "tidak dipahami")
}

func TestStaleButtonDoesNotAdvanceFlow(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp := engine.HandleCallback(context.Background(), testChat, "type_Bank")
	assert.Contains(t, resp.Text, "tidak berlaku")
}

func TestUnknownCallbackIsSafe(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp := engine.HandleCallback(context.Background(), testChat, "no_such_token")
	assert.Contains(t, resp.Text, "tidak dikenali")
	require.NotNil(t, resp.Keyboard)
}

func TestOTPCommandIssuesAndVerifies(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	resp := engine.HandleText(ctx, testChat, "/otp")
	assert.Contains(t, resp.Text, "Kode OTP")

	// the stored code is what the chat was shown
	var code string
	require.NoError(t, store.DB().QueryRow(
		`SELECT code FROM otp_codes WHERE chat_id = ?`, testChat).Scan(&code))
	assert.Contains(t, resp.Text, code)

	wrong := engine.HandleText(ctx, testChat, "/verify 0000")
	assert.Contains(t, wrong.Text, "Sisa percobaan: 2")

	ok := engine.HandleText(ctx, testChat, "/verify "+code)
	assert.Contains(t, ok.Text, "Verifikasi berhasil")
}

func TestReportDateFlow(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	engine.HandleText(ctx, testChat, "Beli kopi 25rb BCA")

	resp := engine.HandleCallback(ctx, testChat, "report_date")
	assert.Contains(t, resp.Text, "tanggal")

	resp = engine.HandleText(ctx, testChat, "bukan tanggal")
	assert.Contains(t, resp.Text, "Tanggal tidak dikenali")

	today := time.Now().Format("02-01-2006")
	resp = engine.HandleText(ctx, testChat, today)
	assert.Contains(t, resp.Text, "Laporan")
	assert.Contains(t, resp.Text, "kopi")
}

func TestDeleteCommandRemovesTransaction(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	engine.HandleText(ctx, testChat, "Beli kopi 25rb BCA")

	resp := engine.HandleText(ctx, testChat, "hapus kopi")
	assert.Contains(t, resp.Text, "Transaksi Dihapus")

	remaining, err := store.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestClearAllRequiresConfirmation(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	engine.HandleText(ctx, testChat, "Beli kopi 25rb BCA")

	resp := engine.HandleCallback(ctx, testChat, "menu_clear_all")
	assert.Contains(t, resp.Text, "Hapus SEMUA data")

	accounts, err := store.GetAccounts(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, accounts)

	resp = engine.HandleCallback(ctx, testChat, "confirm_clear_all")
	assert.Contains(t, resp.Text, "dihapus")

	accounts, err = store.GetAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestBudgetResetButtonZeroesSpent(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, store.AddBudget(ctx, &model.Budget{Category: "Food", Limit: 1_000_000, Spent: 600_000}))
	require.NoError(t, store.AddBudget(ctx, &model.Budget{Category: "Transport", Limit: 500_000, Spent: 200_000}))

	resp := engine.HandleCallback(ctx, testChat, "budget_reset")
	assert.Contains(t, resp.Text, "direset")

	resp = engine.HandleCallback(ctx, testChat, "breset_Food")
	assert.Contains(t, resp.Text, "Food")

	food, err := store.GetBudgetByCategory(ctx, "Food")
	require.NoError(t, err)
	assert.Zero(t, food.Spent)

	transport, err := store.GetBudgetByCategory(ctx, "Transport")
	require.NoError(t, err)
	assert.Equal(t, float64(200_000), transport.Spent)
}

func TestSaldoCommand(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp := engine.HandleText(context.Background(), testChat, "/saldo")
	assert.Contains(t, resp.Text, "Saldo Akun")
	assert.Contains(t, resp.Text, "BCA Main")
}

func TestGoalFlowCreatesGoalAtZero(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	engine.HandleCallback(ctx, testChat, "goal_add")
	engine.HandleText(ctx, testChat, "Liburan Bali")
	resp := engine.HandleText(ctx, testChat, "10jt")
	assert.Contains(t, resp.Text, "ikon")

	resp = engine.HandleCallback(ctx, testChat, "gicon_✈️")
	assert.Contains(t, resp.Text, "warna")

	resp = engine.HandleCallback(ctx, testChat, "gcolor_blue")
	assert.Contains(t, resp.Text, "Liburan Bali")

	goals, err := store.GetGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, float64(10_000_000), goals[0].TargetAmount)
	assert.Zero(t, goals[0].CurrentAmount)
}
