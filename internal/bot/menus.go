package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dompetdev/dompetbot/internal/model"
)

func (e *Engine) renderBalance(ctx context.Context) Response {
	accounts, total, err := e.svc.Accounts(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(accounts) == 0 {
		return Response{Text: "📭 Belum ada akun. Tambahkan lewat menu Akun.", Keyboard: backKeyboard()}
	}

	var b strings.Builder
	b.WriteString("💰 *Saldo Akun*\n\n")
	for _, acc := range accounts {
		fmt.Fprintf(&b, "%s %s: %s\n", model.AccountIcon(acc.Type), acc.Name, formatRupiah(acc.Balance))
	}
	b.WriteString("\n━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "💎 Total: %s", formatRupiah(total))
	return Response{Text: b.String(), Keyboard: backKeyboard()}
}

func (e *Engine) renderRecent(ctx context.Context) Response {
	transactions, err := e.svc.RecentTransactions(ctx, 10)
	if err != nil {
		return e.failure(err)
	}
	names, err := e.accountNames(ctx)
	if err != nil {
		return e.failure(err)
	}
	return Response{
		Text:     reportText(transactions, names, "10 Transaksi Terakhir"),
		Keyboard: backKeyboard(),
	}
}

// renderReport builds a period report plus the chart shortcut button.
func (e *Engine) renderReport(ctx context.Context, title string, start, end time.Time) Response {
	transactions, err := e.svc.TransactionsBetween(ctx, start, end)
	if err != nil {
		return e.failure(err)
	}
	names, err := e.accountNames(ctx)
	if err != nil {
		return e.failure(err)
	}
	return Response{
		Text:     reportText(transactions, names, title),
		Keyboard: reportKeyboard(start.Format("2006-01-02"), end.Format("2006-01-02")),
	}
}

func (e *Engine) renderGoals(ctx context.Context) Response {
	goals, err := e.svc.Goals(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(goals) == 0 {
		return Response{Text: "📭 Belum ada target tabungan.", Keyboard: goalsMenuKeyboard()}
	}

	var b strings.Builder
	b.WriteString("🎯 *Target Tabungan*\n\n")
	for _, g := range goals {
		pct := percent(g.CurrentAmount, g.TargetAmount)
		fmt.Fprintf(&b, "%s *%s*\n", g.Icon, g.Name)
		fmt.Fprintf(&b, "%s %d%%\n", progressBar(pct), pct)
		fmt.Fprintf(&b, "%s / %s\n\n", formatRupiah(g.CurrentAmount), formatRupiah(g.TargetAmount))
	}
	return Response{Text: strings.TrimRight(b.String(), "\n"), Keyboard: goalsMenuKeyboard()}
}

func (e *Engine) renderBudgets(ctx context.Context) Response {
	budgets, err := e.svc.Budgets(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(budgets) == 0 {
		return Response{Text: "📭 Belum ada anggaran.", Keyboard: budgetsMenuKeyboard()}
	}

	var b strings.Builder
	b.WriteString("📐 *Anggaran Bulanan*\n\n")
	for _, budget := range budgets {
		pct := percent(budget.Spent, budget.Limit)
		fmt.Fprintf(&b, "%s *%s*\n", budgetStatusIcon(budget), budget.Category)
		fmt.Fprintf(&b, "%s %d%%\n", progressBar(pct), pct)
		fmt.Fprintf(&b, "%s / %s\n\n", formatRupiah(budget.Spent), formatRupiah(budget.Limit))
	}
	return Response{Text: strings.TrimRight(b.String(), "\n"), Keyboard: budgetsMenuKeyboard()}
}

func (e *Engine) renderCategories(ctx context.Context) Response {
	categories, err := e.svc.Categories(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(categories) == 0 {
		return Response{Text: "📭 Belum ada kategori.", Keyboard: categoriesMenuKeyboard()}
	}

	var b strings.Builder
	b.WriteString("🏷 *Kategori*\n\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "%s *%s* (%s)\n", c.Icon, c.Name, indonesianType(c.Type))
		if c.Keywords != "" {
			fmt.Fprintf(&b, "   _%s_\n", c.Keywords)
		}
	}
	return Response{Text: strings.TrimRight(b.String(), "\n"), Keyboard: categoriesMenuKeyboard()}
}

func (e *Engine) renderAccountList(ctx context.Context) Response {
	accounts, total, err := e.svc.Accounts(ctx)
	if err != nil {
		return e.failure(err)
	}
	if len(accounts) == 0 {
		return Response{Text: "📭 Belum ada akun.", Keyboard: accountsMenuKeyboard()}
	}

	var b strings.Builder
	b.WriteString("🏦 *Daftar Akun*\n\n")
	for _, acc := range accounts {
		fmt.Fprintf(&b, "%s *%s* (%s)\n   %s\n", model.AccountIcon(acc.Type), acc.Name, acc.Type, formatRupiah(acc.Balance))
	}
	fmt.Fprintf(&b, "\n💎 Total: %s", formatRupiah(total))
	return Response{Text: b.String(), Keyboard: accountsMenuKeyboard()}
}

func (e *Engine) accountNames(ctx context.Context) (map[string]string, error) {
	accounts, _, err := e.svc.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(accounts))
	for _, acc := range accounts {
		names[acc.ID] = acc.Name
	}
	return names, nil
}

func progressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct / 10
	return strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
}

// startOfDay truncates to local midnight.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
