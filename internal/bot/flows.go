package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dompetdev/dompetbot/internal/parser"
	"github.com/dompetdev/dompetbot/internal/repository"
)

// parseDay reads DD-MM-YYYY (slashes accepted) in local time.
func parseDay(text string) (time.Time, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), "/", "-")
	return time.ParseInLocation("2-1-2006", text, time.Local)
}

const badAmountPrompt = "❌ Jumlah tidak dikenali. Contoh: `50000`, `50rb`, `1.5jt`"
const badDatePrompt = "❌ Tanggal tidak dikenali. Format: `DD-MM-YYYY`"

// handleFlowInput feeds one text message into the chat's active flow.
// Invalid input re-prompts without advancing the step.
func (e *Engine) handleFlowInput(ctx context.Context, st *chatState, text string) Response {
	switch st.flow {
	case flowAddAccount:
		return e.addAccountInput(ctx, st, text)
	case flowEditBalance:
		return e.editBalanceInput(ctx, st, text)
	case flowReportDate:
		return e.reportDateInput(ctx, st, text)
	case flowReportRange:
		return e.reportRangeInput(ctx, st, text)
	case flowAddGoal:
		return e.addGoalInput(st, text)
	case flowEditGoal:
		return e.editGoalInput(ctx, st, text)
	case flowAddToGoal:
		return e.addToGoalInput(ctx, st, text)
	case flowAddBudget:
		return e.addBudgetInput(ctx, st, text)
	case flowEditBudget:
		return e.editBudgetInput(ctx, st, text)
	case flowAddCategory:
		return e.addCategoryInput(ctx, st, text)
	case flowEditCategoryName:
		return e.editCategoryNameInput(ctx, st, text)
	case flowEditCategoryKeywords:
		return e.editCategoryKeywordsInput(ctx, st, text)
	}

	st.resetFlow()
	return Response{Text: "❓ Sesi berakhir. Silakan mulai ulang.", Keyboard: mainMenuKeyboard()}
}

func (e *Engine) addAccountInput(ctx context.Context, st *chatState, text string) Response {
	switch st.step {
	case 1:
		if text == "" {
			return Response{Text: "❌ Nama tidak boleh kosong. Masukkan nama akun:", Keyboard: backKeyboard()}
		}
		st.name = text
		st.step = 2
		return Response{Text: fmt.Sprintf("🏦 Akun *%s*\n\nPilih jenis akun:", st.name), Keyboard: accountTypeKeyboard()}
	case 3:
		amount, err := parser.ParseAmount(text)
		if err != nil {
			return Response{Text: badAmountPrompt, Keyboard: backKeyboard()}
		}
		account, err := e.svc.CreateAccount(ctx, st.name, st.accountType, amount)
		if err != nil {
			return e.failure(err)
		}
		st.resetFlow()
		return Response{
			Text:     fmt.Sprintf("✅ Akun *%s* dibuat.\n\n💰 Saldo awal: %s", account.Name, formatRupiah(account.Balance)),
			Keyboard: mainMenuKeyboard(),
		}
	}
	return Response{Text: "Pilih jenis akun dari tombol di atas.", Keyboard: accountTypeKeyboard()}
}

func (e *Engine) editBalanceInput(ctx context.Context, st *chatState, text string) Response {
	amount, err := parser.ParseAmount(text)
	if err != nil {
		return Response{Text: badAmountPrompt, Keyboard: backKeyboard()}
	}
	account, err := e.svc.SetAccountBalance(ctx, st.accountID, amount)
	if errors.Is(err, repository.ErrNotFound) {
		st.resetFlow()
		return Response{Text: "❌ Akun tidak ditemukan.", Keyboard: backKeyboard()}
	}
	if err != nil {
		return e.failure(err)
	}
	st.resetFlow()
	return Response{
		Text:     fmt.Sprintf("✅ Saldo *%s* diperbarui: %s", account.Name, formatRupiah(account.Balance)),
		Keyboard: mainMenuKeyboard(),
	}
}

func (e *Engine) reportDateInput(ctx context.Context, st *chatState, text string) Response {
	day, err := parseDay(text)
	if err != nil {
		return Response{Text: badDatePrompt, Keyboard: backKeyboard()}
	}
	st.resetFlow()
	return e.renderReport(ctx, "Laporan "+formatDay(day), startOfDay(day), endOfDay(day))
}

func (e *Engine) reportRangeInput(ctx context.Context, st *chatState, text string) Response {
	day, err := parseDay(text)
	if err != nil {
		return Response{Text: badDatePrompt, Keyboard: backKeyboard()}
	}
	if st.step == 1 {
		st.rangeStart = startOfDay(day)
		st.step = 2
		return Response{
			Text:     fmt.Sprintf("📆 Mulai: %s\n\nMasukkan tanggal akhir (DD-MM-YYYY):", formatDay(st.rangeStart)),
			Keyboard: backKeyboard(),
		}
	}
	end := endOfDay(day)
	if end.Before(st.rangeStart) {
		return Response{Text: "❌ Tanggal akhir sebelum tanggal mulai. Masukkan lagi:", Keyboard: backKeyboard()}
	}
	start := st.rangeStart
	st.resetFlow()
	title := fmt.Sprintf("Laporan %s s/d %s", formatDay(start), formatDay(end))
	return e.renderReport(ctx, title, start, end)
}

func (e *Engine) addGoalInput(st *chatState, text string) Response {
	switch st.step {
	case 1:
		if text == "" {
			return Response{Text: "❌ Nama tidak boleh kosong. Masukkan nama target:", Keyboard: backKeyboard()}
		}
		st.name = text
		st.step = 2
		return Response{Text: fmt.Sprintf("🎯 Target *%s*\n\nMasukkan jumlah target:", st.name), Keyboard: backKeyboard()}
	case 2:
		amount, err := parser.ParseAmount(text)
		if err != nil {
			return Response{Text: badAmountPrompt, Keyboard: backKeyboard()}
		}
		st.target = amount
		st.step = 3
		return Response{Text: "Pilih ikon target:", Keyboard: goalIconKeyboard()}
	}
	return Response{Text: "Pilih dari tombol di atas.", Keyboard: backKeyboard()}
}

func (e *Engine) editGoalInput(ctx context.Context, st *chatState, text string) Response {
	amount, err := parser.ParseAmount(text)
	if err != nil {
		return Response{Text: badAmountPrompt, Keyboard: backKeyboard()}
	}
	goalID := st.goalID
	if err := e.svc.SetGoalTarget(ctx, goalID, amount); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			st.resetFlow()
			return Response{Text: "❌ Target tidak ditemukan.", Keyboard: backKeyboard()}
		}
		return e.failure(err)
	}
	st.resetFlow()
	return Response{Text: fmt.Sprintf("✅ Target diperbarui: %s", formatRupiah(amount)), Keyboard: mainMenuKeyboard()}
}

func (e *Engine) addToGoalInput(ctx context.Context, st *chatState, text string) Response {
	amount, err := parser.ParseAmount(text)
	if err != nil {
		return Response{Text: badAmountPrompt, Keyboard: backKeyboard()}
	}
	goal, err := e.svc.AddToGoal(ctx, st.goalID, amount)
	if errors.Is(err, repository.ErrNotFound) {
		st.resetFlow()
		return Response{Text: "❌ Target tidak ditemukan.", Keyboard: backKeyboard()}
	}
	if err != nil {
		return e.failure(err)
	}
	st.resetFlow()
	pct := percent(goal.CurrentAmount, goal.TargetAmount)
	return Response{
		Text: fmt.Sprintf("✅ Dana ditambahkan ke *%s*.\n\n%s %d%%\n%s / %s",
			goal.Name, progressBar(pct), pct, formatRupiah(goal.CurrentAmount), formatRupiah(goal.TargetAmount)),
		Keyboard: mainMenuKeyboard(),
	}
}

func (e *Engine) addBudgetInput(ctx context.Context, st *chatState, text string) Response {
	if st.step != 2 {
		return Response{Text: "Pilih kategori dari tombol di atas.", Keyboard: backKeyboard()}
	}
	amount, err := parser.ParseAmount(text)
	if err != nil {
		return Response{Text: badAmountPrompt, Keyboard: backKeyboard()}
	}
	budget, err := e.svc.CreateBudget(ctx, st.budgetName, amount)
	if err != nil {
		return e.failure(err)
	}
	st.resetFlow()
	return Response{
		Text:     fmt.Sprintf("✅ Anggaran *%s* dibuat: %s per bulan.", budget.Category, formatRupiah(budget.Limit)),
		Keyboard: mainMenuKeyboard(),
	}
}

func (e *Engine) editBudgetInput(ctx context.Context, st *chatState, text string) Response {
	amount, err := parser.ParseAmount(text)
	if err != nil {
		return Response{Text: badAmountPrompt, Keyboard: backKeyboard()}
	}
	if err := e.svc.SetBudgetLimit(ctx, st.budgetName, amount); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			st.resetFlow()
			return Response{Text: "❌ Anggaran tidak ditemukan.", Keyboard: backKeyboard()}
		}
		return e.failure(err)
	}
	category := st.budgetName
	st.resetFlow()
	return Response{
		Text:     fmt.Sprintf("✅ Batas anggaran *%s* diperbarui: %s", category, formatRupiah(amount)),
		Keyboard: mainMenuKeyboard(),
	}
}

func (e *Engine) addCategoryInput(ctx context.Context, st *chatState, text string) Response {
	switch st.step {
	case 1:
		if text == "" {
			return Response{Text: "❌ Nama tidak boleh kosong. Masukkan nama kategori:", Keyboard: backKeyboard()}
		}
		st.name = text
		st.step = 2
		return Response{Text: fmt.Sprintf("🏷 Kategori *%s*\n\nPilih jenis:", st.name), Keyboard: categoryTypeKeyboard()}
	case 4:
		if text == "-" {
			text = ""
		}
		category, err := e.svc.CreateCategory(ctx, st.name, st.categoryType, st.icon, text)
		if err != nil {
			return e.failure(err)
		}
		st.resetFlow()
		reply := fmt.Sprintf("✅ Kategori %s *%s* dibuat.", category.Icon, category.Name)
		if category.Keywords != "" {
			reply += fmt.Sprintf("\n🔑 Kata kunci: _%s_", category.Keywords)
		}
		return Response{Text: reply, Keyboard: mainMenuKeyboard()}
	}
	return Response{Text: "Pilih dari tombol di atas.", Keyboard: backKeyboard()}
}

func (e *Engine) editCategoryNameInput(ctx context.Context, st *chatState, text string) Response {
	if text == "" {
		return Response{Text: "❌ Nama tidak boleh kosong. Masukkan nama baru:", Keyboard: backKeyboard()}
	}
	if err := e.svc.RenameCategory(ctx, st.categoryID, text); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			st.resetFlow()
			return Response{Text: "❌ Kategori tidak ditemukan.", Keyboard: backKeyboard()}
		}
		return e.failure(err)
	}
	st.resetFlow()
	return Response{Text: fmt.Sprintf("✅ Kategori diganti nama menjadi *%s*.", text), Keyboard: mainMenuKeyboard()}
}

func (e *Engine) editCategoryKeywordsInput(ctx context.Context, st *chatState, text string) Response {
	if err := e.svc.SetCategoryKeywords(ctx, st.categoryID, text); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			st.resetFlow()
			return Response{Text: "❌ Kategori tidak ditemukan.", Keyboard: backKeyboard()}
		}
		return e.failure(err)
	}
	st.resetFlow()
	return Response{Text: "✅ Kata kunci diperbarui.", Keyboard: mainMenuKeyboard()}
}
