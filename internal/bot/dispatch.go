package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dompetdev/dompetbot/internal/model"
	"github.com/dompetdev/dompetbot/internal/repository"
)

// dispatchCallback routes a parsed button press. Every menu_* entry point
// and back_main clears the active flow before rendering.
func (e *Engine) dispatchCallback(ctx context.Context, chatID int64, st *chatState, cb Callback) Response {
	switch cb.Kind {
	case CbBackMain:
		st.resetFlow()
		return Response{Text: "🏠 *Menu Utama*\n\nPilih aksi atau ketik transaksi:", Keyboard: mainMenuKeyboard()}

	case CbMenuBalance:
		st.resetFlow()
		return e.renderBalance(ctx)
	case CbMenuList:
		st.resetFlow()
		return e.renderRecent(ctx)
	case CbMenuAccounts:
		st.resetFlow()
		return Response{Text: "🏦 *Kelola Akun*\n\nPilih aksi:", Keyboard: accountsMenuKeyboard()}
	case CbMenuReport:
		st.resetFlow()
		return Response{Text: "📊 *Laporan*\n\nPilih periode:", Keyboard: reportMenuKeyboard()}
	case CbMenuGoals:
		st.resetFlow()
		return e.renderGoals(ctx)
	case CbMenuBudgets:
		st.resetFlow()
		return e.renderBudgets(ctx)
	case CbMenuCategories:
		st.resetFlow()
		return e.renderCategories(ctx)
	case CbMenuHelp:
		st.resetFlow()
		return e.renderHelp()
	case CbMenuClearAll:
		st.resetFlow()
		return Response{
			Text:     "⚠️ *Hapus SEMUA data?*\n\nAkun, transaksi, target, dan anggaran akan dihapus. Tindakan ini tidak bisa dibatalkan.",
			Keyboard: confirmKeyboard("🗑 Ya, Hapus Semua", "confirm_clear_all"),
		}
	case CbConfirmClearAll:
		if err := e.svc.ClearAll(ctx); err != nil {
			return e.failure(err)
		}
		st.resetFlow()
		return Response{Text: "✅ Semua data keuangan dihapus.", Keyboard: mainMenuKeyboard()}

	case CbAccountList:
		return e.renderAccountList(ctx)
	case CbAccountAdd:
		st.resetFlow()
		st.flow = flowAddAccount
		st.step = 1
		return Response{Text: "🏦 *Tambah Akun*\n\nMasukkan nama akun:", Keyboard: backKeyboard()}
	case CbAccountEditBalance:
		return e.selectAccount(ctx, "✏️ Pilih akun yang saldonya diubah:", "sel_edit_")
	case CbAccountDelete:
		return e.selectAccount(ctx, "🗑 Pilih akun yang dihapus:", "sel_del_")
	case CbSelectAccountEdit:
		account, err := e.svc.AccountByID(ctx, cb.Arg)
		if errors.Is(err, repository.ErrNotFound) {
			return Response{Text: "❌ Akun tidak ditemukan.", Keyboard: backKeyboard()}
		}
		if err != nil {
			return e.failure(err)
		}
		st.resetFlow()
		st.flow = flowEditBalance
		st.step = 1
		st.accountID = account.ID
		return Response{
			Text:     fmt.Sprintf("✏️ Saldo *%s* saat ini: %s\n\nMasukkan saldo baru:", account.Name, formatRupiah(account.Balance)),
			Keyboard: backKeyboard(),
		}
	case CbSelectAccountDelete:
		account, err := e.svc.AccountByID(ctx, cb.Arg)
		if errors.Is(err, repository.ErrNotFound) {
			return Response{Text: "❌ Akun tidak ditemukan.", Keyboard: backKeyboard()}
		}
		if err != nil {
			return e.failure(err)
		}
		return Response{
			Text:     fmt.Sprintf("⚠️ Hapus akun *%s*?\n\nSemua transaksi akun ini ikut terhapus.", account.Name),
			Keyboard: confirmKeyboard("🗑 Ya, Hapus", "confirm_del_"+account.ID),
		}
	case CbConfirmAccountDelete:
		if err := e.svc.RemoveAccount(ctx, cb.Arg); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Response{Text: "❌ Akun tidak ditemukan.", Keyboard: backKeyboard()}
			}
			return e.failure(err)
		}
		st.resetFlow()
		return Response{Text: "✅ Akun dan transaksinya dihapus.", Keyboard: mainMenuKeyboard()}
	case CbAccountType:
		if st.flow != flowAddAccount || st.step != 2 {
			return e.staleButton()
		}
		st.accountType = cb.Arg
		st.step = 3
		return Response{
			Text:     fmt.Sprintf("%s Akun *%s* (%s)\n\nMasukkan saldo awal:", model.AccountIcon(st.accountType), st.name, st.accountType),
			Keyboard: backKeyboard(),
		}

	case CbReportToday:
		day := e.now()
		return e.renderReport(ctx, "Laporan Hari Ini", startOfDay(day), endOfDay(day))
	case CbReportYesterday:
		day := e.now().AddDate(0, 0, -1)
		return e.renderReport(ctx, "Laporan Kemarin", startOfDay(day), endOfDay(day))
	case CbReportWeek:
		now := e.now()
		return e.renderReport(ctx, "Laporan Minggu Ini", startOfWeek(now), endOfDay(now))
	case CbReportMonth:
		now := e.now()
		return e.renderReport(ctx, "Laporan Bulan Ini", startOfMonth(now), endOfDay(now))
	case CbReportDate:
		st.resetFlow()
		st.flow = flowReportDate
		st.step = 1
		return Response{Text: "📆 Masukkan tanggal (DD-MM-YYYY):", Keyboard: backKeyboard()}
	case CbReportRange:
		st.resetFlow()
		st.flow = flowReportRange
		st.step = 1
		return Response{Text: "📆 Masukkan tanggal mulai (DD-MM-YYYY):", Keyboard: backKeyboard()}
	case CbReportChart:
		return e.renderChart(ctx, cb.Arg)

	case CbGoalList:
		return e.renderGoals(ctx)
	case CbGoalAdd:
		st.resetFlow()
		st.flow = flowAddGoal
		st.step = 1
		return Response{Text: "🎯 *Tambah Target*\n\nMasukkan nama target:", Keyboard: backKeyboard()}
	case CbGoalEdit:
		return e.selectGoal(ctx, "✏️ Pilih target yang diubah:", "gedit_")
	case CbGoalDelete:
		return e.selectGoal(ctx, "🗑 Pilih target yang dihapus:", "gdel_")
	case CbGoalAddAmount:
		return e.selectGoal(ctx, "💰 Pilih target tujuan dana:", "gadd_")
	case CbSelectGoalEdit:
		goal, resp := e.goalOr404(ctx, cb.Arg)
		if goal == nil {
			return resp
		}
		st.resetFlow()
		st.flow = flowEditGoal
		st.step = 1
		st.goalID = goal.ID
		return Response{
			Text:     fmt.Sprintf("✏️ Target *%s* saat ini: %s\n\nMasukkan jumlah target baru:", goal.Name, formatRupiah(goal.TargetAmount)),
			Keyboard: backKeyboard(),
		}
	case CbSelectGoalDelete:
		goal, resp := e.goalOr404(ctx, cb.Arg)
		if goal == nil {
			return resp
		}
		return Response{
			Text:     fmt.Sprintf("⚠️ Hapus target *%s*?", goal.Name),
			Keyboard: confirmKeyboard("🗑 Ya, Hapus", "gconfirm_del_"+goal.ID),
		}
	case CbConfirmGoalDelete:
		if err := e.svc.RemoveGoal(ctx, cb.Arg); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Response{Text: "❌ Target tidak ditemukan.", Keyboard: backKeyboard()}
			}
			return e.failure(err)
		}
		st.resetFlow()
		return Response{Text: "✅ Target dihapus.", Keyboard: mainMenuKeyboard()}
	case CbSelectGoalAdd:
		goal, resp := e.goalOr404(ctx, cb.Arg)
		if goal == nil {
			return resp
		}
		st.resetFlow()
		st.flow = flowAddToGoal
		st.step = 1
		st.goalID = goal.ID
		return Response{
			Text:     fmt.Sprintf("💰 Target *%s*: %s / %s\n\nMasukkan jumlah dana:", goal.Name, formatRupiah(goal.CurrentAmount), formatRupiah(goal.TargetAmount)),
			Keyboard: backKeyboard(),
		}
	case CbGoalIcon:
		if st.flow != flowAddGoal || st.step != 3 {
			return e.staleButton()
		}
		st.icon = cb.Arg
		st.step = 4
		return Response{Text: "Pilih warna target:", Keyboard: goalColorKeyboard()}
	case CbGoalColor:
		if st.flow != flowAddGoal || st.step != 4 {
			return e.staleButton()
		}
		goal, err := e.svc.CreateGoal(ctx, st.name, st.target, st.icon, cb.Arg)
		if err != nil {
			return e.failure(err)
		}
		st.resetFlow()
		return Response{
			Text:     fmt.Sprintf("✅ Target %s *%s* dibuat.\n\n🎯 Target: %s\n💰 Terkumpul: %s", goal.Icon, goal.Name, formatRupiah(goal.TargetAmount), formatRupiah(goal.CurrentAmount)),
			Keyboard: mainMenuKeyboard(),
		}

	case CbBudgetList:
		return e.renderBudgets(ctx)
	case CbBudgetAdd:
		categories, err := e.svc.AvailableBudgetCategories(ctx)
		if err != nil {
			return e.failure(err)
		}
		if len(categories) == 0 {
			return Response{Text: "📭 Semua kategori pengeluaran sudah punya anggaran.", Keyboard: budgetsMenuKeyboard()}
		}
		names := make([]string, len(categories))
		for i, c := range categories {
			names[i] = c.Name
		}
		st.resetFlow()
		st.flow = flowAddBudget
		st.step = 1
		return Response{Text: "📐 *Tambah Anggaran*\n\nPilih kategori:", Keyboard: budgetCategoryKeyboard(names)}
	case CbBudgetCategory:
		if st.flow != flowAddBudget || st.step != 1 {
			return e.staleButton()
		}
		st.budgetName = cb.Arg
		st.step = 2
		return Response{
			Text:     fmt.Sprintf("📐 Anggaran *%s*\n\nMasukkan batas bulanan:", st.budgetName),
			Keyboard: backKeyboard(),
		}
	case CbBudgetEdit:
		return e.selectBudget(ctx, "✏️ Pilih anggaran yang diubah:", "bedit_")
	case CbBudgetDelete:
		return e.selectBudget(ctx, "🗑 Pilih anggaran yang dihapus:", "bdel_")
	case CbSelectBudgetEdit:
		budget, err := e.svc.BudgetByCategory(ctx, cb.Arg)
		if errors.Is(err, repository.ErrNotFound) {
			return Response{Text: "❌ Anggaran tidak ditemukan.", Keyboard: backKeyboard()}
		}
		if err != nil {
			return e.failure(err)
		}
		st.resetFlow()
		st.flow = flowEditBudget
		st.step = 1
		st.budgetName = budget.Category
		return Response{
			Text:     fmt.Sprintf("✏️ Anggaran *%s* saat ini: %s\n\nMasukkan batas baru:", budget.Category, formatRupiah(budget.Limit)),
			Keyboard: backKeyboard(),
		}
	case CbSelectBudgetDelete:
		return Response{
			Text:     fmt.Sprintf("⚠️ Hapus anggaran *%s*?", cb.Arg),
			Keyboard: confirmKeyboard("🗑 Ya, Hapus", "bconfirm_del_"+cb.Arg),
		}
	case CbConfirmBudgetDelete:
		if err := e.svc.RemoveBudget(ctx, cb.Arg); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Response{Text: "❌ Anggaran tidak ditemukan.", Keyboard: backKeyboard()}
			}
			return e.failure(err)
		}
		st.resetFlow()
		return Response{Text: "✅ Anggaran dihapus.", Keyboard: mainMenuKeyboard()}
	case CbBudgetReset:
		return e.selectBudget(ctx, "🔁 Pilih anggaran yang direset:", "breset_")
	case CbSelectBudgetReset:
		if err := e.svc.ResetBudgetSpent(ctx, cb.Arg); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Response{Text: "❌ Anggaran tidak ditemukan.", Keyboard: backKeyboard()}
			}
			return e.failure(err)
		}
		return Response{
			Text:     fmt.Sprintf("✅ Pemakaian anggaran *%s* direset ke nol.", cb.Arg),
			Keyboard: mainMenuKeyboard(),
		}
	case CbBudgetResetAll:
		return Response{
			Text:     "⚠️ Reset pemakaian semua anggaran ke nol?",
			Keyboard: confirmKeyboard("🔄 Ya, Reset", "bconfirm_reset_all"),
		}
	case CbConfirmBudgetResetAll:
		if err := e.svc.ResetAllBudgets(ctx); err != nil {
			return e.failure(err)
		}
		st.resetFlow()
		return Response{Text: "✅ Pemakaian semua anggaran direset.", Keyboard: mainMenuKeyboard()}

	case CbCategoryList:
		return e.renderCategories(ctx)
	case CbCategoryAdd:
		st.resetFlow()
		st.flow = flowAddCategory
		st.step = 1
		return Response{Text: "🏷 *Tambah Kategori*\n\nMasukkan nama kategori:", Keyboard: backKeyboard()}
	case CbCategoryType:
		if st.flow != flowAddCategory || st.step != 2 {
			return e.staleButton()
		}
		st.categoryType = cb.Arg
		st.step = 3
		return Response{Text: "Pilih ikon kategori:", Keyboard: categoryIconKeyboard()}
	case CbCategoryIcon:
		if st.flow != flowAddCategory || st.step != 3 {
			return e.staleButton()
		}
		st.icon = cb.Arg
		st.step = 4
		return Response{
			Text:     "🔑 Masukkan kata kunci untuk klasifikasi otomatis, pisahkan dengan koma.\nContoh: `kopi, cafe, resto`\n\nKetik `-` jika tidak ada.",
			Keyboard: backKeyboard(),
		}
	case CbCategoryEdit:
		return e.selectCategory(ctx, "✏️ Pilih kategori yang diganti nama:", "cedit_")
	case CbCategoryKeywords:
		return e.selectCategory(ctx, "🔑 Pilih kategori yang diubah kata kuncinya:", "ckw_")
	case CbCategoryDelete:
		return e.selectCategory(ctx, "🗑 Pilih kategori yang dihapus:", "cdel_")
	case CbSelectCategoryEdit:
		category, resp := e.categoryOr404(ctx, cb.Arg)
		if category == nil {
			return resp
		}
		st.resetFlow()
		st.flow = flowEditCategoryName
		st.step = 1
		st.categoryID = category.ID
		return Response{
			Text:     fmt.Sprintf("✏️ Kategori %s *%s*\n\nMasukkan nama baru:", category.Icon, category.Name),
			Keyboard: backKeyboard(),
		}
	case CbSelectCategoryKeywords:
		category, resp := e.categoryOr404(ctx, cb.Arg)
		if category == nil {
			return resp
		}
		st.resetFlow()
		st.flow = flowEditCategoryKeywords
		st.step = 1
		st.categoryID = category.ID
		current := category.Keywords
		if current == "" {
			current = "(kosong)"
		}
		return Response{
			Text:     fmt.Sprintf("🔑 Kata kunci *%s* saat ini:\n_%s_\n\nMasukkan kata kunci baru, pisahkan dengan koma:", category.Name, current),
			Keyboard: backKeyboard(),
		}
	case CbSelectCategoryDelete:
		category, resp := e.categoryOr404(ctx, cb.Arg)
		if category == nil {
			return resp
		}
		return Response{
			Text:     fmt.Sprintf("⚠️ Hapus kategori %s *%s*?", category.Icon, category.Name),
			Keyboard: confirmKeyboard("🗑 Ya, Hapus", "cconfirm_del_"+category.ID),
		}
	case CbConfirmCategoryDelete:
		if err := e.svc.RemoveCategory(ctx, cb.Arg); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Response{Text: "❌ Kategori tidak ditemukan.", Keyboard: backKeyboard()}
			}
			return e.failure(err)
		}
		st.resetFlow()
		return Response{Text: "✅ Kategori dihapus.", Keyboard: mainMenuKeyboard()}
	}

	return Response{Text: "❓ Menu tidak dikenali.", Keyboard: mainMenuKeyboard()}
}

// staleButton handles a press from an outdated keyboard without touching
// the active flow.
func (e *Engine) staleButton() Response {
	return Response{Text: "❓ Tombol sudah tidak berlaku.", Keyboard: mainMenuKeyboard()}
}

func (e *Engine) selectAccount(ctx context.Context, prompt, prefix string) Response {
	accounts, _, err := e.svc.Accounts(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(accounts) == 0 {
		return Response{Text: "📭 Belum ada akun.", Keyboard: accountsMenuKeyboard()}
	}
	return Response{Text: prompt, Keyboard: accountSelectKeyboard(accounts, prefix)}
}

func (e *Engine) selectGoal(ctx context.Context, prompt, prefix string) Response {
	goals, err := e.svc.Goals(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(goals) == 0 {
		return Response{Text: "📭 Belum ada target.", Keyboard: goalsMenuKeyboard()}
	}
	return Response{Text: prompt, Keyboard: goalSelectKeyboard(goals, prefix)}
}

func (e *Engine) selectBudget(ctx context.Context, prompt, prefix string) Response {
	budgets, err := e.svc.Budgets(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(budgets) == 0 {
		return Response{Text: "📭 Belum ada anggaran.", Keyboard: budgetsMenuKeyboard()}
	}
	return Response{Text: prompt, Keyboard: budgetSelectKeyboard(budgets, prefix)}
}

func (e *Engine) selectCategory(ctx context.Context, prompt, prefix string) Response {
	categories, err := e.svc.Categories(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(categories) == 0 {
		return Response{Text: "📭 Belum ada kategori.", Keyboard: categoriesMenuKeyboard()}
	}
	return Response{Text: prompt, Keyboard: categorySelectKeyboard(categories, prefix)}
}

func (e *Engine) goalOr404(ctx context.Context, id string) (*model.Goal, Response) {
	goal, err := e.svc.GoalByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Response{Text: "❌ Target tidak ditemukan.", Keyboard: backKeyboard()}
	}
	if err != nil {
		return nil, e.failure(err)
	}
	return goal, Response{}
}

func (e *Engine) categoryOr404(ctx context.Context, id string) (*model.Category, Response) {
	category, err := e.svc.CategoryByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Response{Text: "❌ Kategori tidak ditemukan.", Keyboard: backKeyboard()}
	}
	if err != nil {
		return nil, e.failure(err)
	}
	return category, Response{}
}

// renderChart turns a chart_<start>_<end> payload into a PNG render.
func (e *Engine) renderChart(ctx context.Context, arg string) Response {
	startRaw, endRaw, ok := strings.Cut(arg, "_")
	if !ok {
		return Response{Text: "❓ Rentang grafik tidak valid.", Keyboard: backKeyboard()}
	}
	start, err1 := time.ParseInLocation("2006-01-02", startRaw, time.Local)
	end, err2 := time.ParseInLocation("2006-01-02", endRaw, time.Local)
	if err1 != nil || err2 != nil {
		return Response{Text: "❓ Rentang grafik tidak valid.", Keyboard: backKeyboard()}
	}

	transactions, err := e.svc.TransactionsBetween(ctx, startOfDay(start), endOfDay(end))
	if err != nil {
		return e.failure(err)
	}
	title := fmt.Sprintf("Pengeluaran %s - %s", formatDay(start), formatDay(end))
	png, err := e.charts.ExpenseBarChart(transactions, title)
	if err != nil {
		return e.failure(err)
	}
	if png == nil {
		return Response{Text: "📭 Tidak ada pengeluaran pada periode ini.", Keyboard: backKeyboard()}
	}
	return Response{
		Text:     fmt.Sprintf("📊 %s", title),
		Keyboard: backKeyboard(),
		PhotoPNG: png,
	}
}
