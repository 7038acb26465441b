package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dompetdev/dompetbot/internal/model"
)

func markup(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(btn("◀️ Menu Utama", "back_main"))
}

func backKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(backRow())
}

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("💰 Saldo", "menu_balance"),
			btn("📋 Riwayat", "menu_list"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("🏦 Akun", "menu_accounts"),
			btn("📊 Laporan", "menu_report"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("🎯 Target", "menu_goals"),
			btn("📐 Anggaran", "menu_budgets"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("🏷 Kategori", "menu_categories"),
			btn("❓ Bantuan", "menu_help"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("🗑 Hapus Semua Data", "menu_clear_all"),
		),
	)
}

func accountsMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("📋 Daftar Akun", "acc_list"),
			btn("➕ Tambah Akun", "acc_add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("✏️ Ubah Saldo", "acc_edit_balance"),
			btn("🗑 Hapus Akun", "acc_delete"),
		),
		backRow(),
	)
}

func accountSelectKeyboard(accounts []model.Account, prefix string) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(accounts)+1)
	for _, acc := range accounts {
		label := fmt.Sprintf("%s %s (%s)", model.AccountIcon(acc.Type), acc.Name, formatRupiah(acc.Balance))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(label, prefix+acc.ID)))
	}
	rows = append(rows, backRow())
	return markup(rows...)
}

func accountTypeKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("🏦 Bank", "type_"+model.AccountBank),
			btn("📱 E-Wallet", "type_"+model.AccountEWallet),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("💵 Tunai", "type_"+model.AccountCash),
			btn("💳 Kredit", "type_"+model.AccountCredit),
		),
		backRow(),
	)
}

func confirmKeyboard(yesLabel, yesData string) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn(yesLabel, yesData),
			btn("❌ Batal", "back_main"),
		),
	)
}

func reportMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("📅 Hari Ini", "report_today"),
			btn("📅 Kemarin", "report_yesterday"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("📅 Minggu Ini", "report_week"),
			btn("📅 Bulan Ini", "report_month"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("📆 Tanggal Tertentu", "report_date"),
			btn("📆 Rentang Tanggal", "report_range"),
		),
		backRow(),
	)
}

func reportKeyboard(start, end string) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("📊 Grafik", fmt.Sprintf("chart_%s_%s", start, end)),
		),
		backRow(),
	)
}

func goalsMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("📋 Daftar Target", "goal_list"),
			btn("➕ Tambah Target", "goal_add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("💰 Tambah Dana", "goal_add_amount"),
			btn("✏️ Ubah Target", "goal_edit"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("🗑 Hapus Target", "goal_delete"),
		),
		backRow(),
	)
}

func goalSelectKeyboard(goals []model.Goal, prefix string) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(goals)+1)
	for _, g := range goals {
		label := fmt.Sprintf("%s %s (%d%%)", g.Icon, g.Name, percent(g.CurrentAmount, g.TargetAmount))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(label, prefix+g.ID)))
	}
	rows = append(rows, backRow())
	return markup(rows...)
}

var goalIcons = []string{"🎯", "✈️", "🏠", "🚗", "💍", "🎓", "📱", "🏖"}

func goalIconKeyboard() *tgbotapi.InlineKeyboardMarkup {
	row1 := make([]tgbotapi.InlineKeyboardButton, 0, 4)
	row2 := make([]tgbotapi.InlineKeyboardButton, 0, 4)
	for i, icon := range goalIcons {
		b := btn(icon, "gicon_"+icon)
		if i < 4 {
			row1 = append(row1, b)
		} else {
			row2 = append(row2, b)
		}
	}
	return markup(row1, row2, backRow())
}

var goalColors = []struct{ Label, Value string }{
	{"🔵 Biru", "blue"},
	{"🟢 Hijau", "green"},
	{"🟣 Ungu", "purple"},
	{"🟠 Oranye", "orange"},
}

func goalColorKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn(goalColors[0].Label, "gcolor_"+goalColors[0].Value),
			btn(goalColors[1].Label, "gcolor_"+goalColors[1].Value),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn(goalColors[2].Label, "gcolor_"+goalColors[2].Value),
			btn(goalColors[3].Label, "gcolor_"+goalColors[3].Value),
		),
		backRow(),
	)
}

func budgetsMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("📋 Daftar Anggaran", "budget_list"),
			btn("➕ Tambah Anggaran", "budget_add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("✏️ Ubah Batas", "budget_edit"),
			btn("🗑 Hapus Anggaran", "budget_delete"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("🔁 Reset Satu", "budget_reset"),
			btn("🔄 Reset Semua", "budget_reset_all"),
		),
		backRow(),
	)
}

func budgetSelectKeyboard(budgets []model.Budget, prefix string) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(budgets)+1)
	for _, b := range budgets {
		label := fmt.Sprintf("%s %s (%s)", budgetStatusIcon(b), b.Category, formatRupiah(b.Limit))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(label, prefix+b.Category)))
	}
	rows = append(rows, backRow())
	return markup(rows...)
}

func budgetCategoryKeyboard(names []string) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(names)/2+2)
	for i := 0; i < len(names); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{btn(names[i], "bcat_"+names[i])}
		if i+1 < len(names) {
			row = append(row, btn(names[i+1], "bcat_"+names[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, backRow())
	return markup(rows...)
}

func categoriesMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("📋 Daftar Kategori", "cat_list"),
			btn("➕ Tambah Kategori", "cat_add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("✏️ Ubah Nama", "cat_edit"),
			btn("🔑 Ubah Kata Kunci", "cat_keywords"),
		),
		tgbotapi.NewInlineKeyboardRow(
			btn("🗑 Hapus Kategori", "cat_delete"),
		),
		backRow(),
	)
}

func categorySelectKeyboard(categories []model.Category, prefix string) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn(fmt.Sprintf("%s %s", c.Icon, c.Name), prefix+c.ID),
		))
	}
	rows = append(rows, backRow())
	return markup(rows...)
}

func categoryTypeKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		tgbotapi.NewInlineKeyboardRow(
			btn("📉 Pengeluaran", "cattype_"+model.TypeExpense),
			btn("📈 Pemasukan", "cattype_"+model.TypeIncome),
		),
		backRow(),
	)
}

var categoryIcons = []string{"🍔", "🚗", "🛒", "📄", "🎮", "💊", "📚", "💰"}

func categoryIconKeyboard() *tgbotapi.InlineKeyboardMarkup {
	row1 := make([]tgbotapi.InlineKeyboardButton, 0, 4)
	row2 := make([]tgbotapi.InlineKeyboardButton, 0, 4)
	for i, icon := range categoryIcons {
		b := btn(icon, "cicon_"+icon)
		if i < 4 {
			row1 = append(row1, b)
		} else {
			row2 = append(row2, b)
		}
	}
	return markup(row1, row2, backRow())
}
