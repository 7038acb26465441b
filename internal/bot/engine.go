package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dompetdev/dompetbot/internal/auth"
	"github.com/dompetdev/dompetbot/internal/charts"
	"github.com/dompetdev/dompetbot/internal/model"
	"github.com/dompetdev/dompetbot/internal/parser"
	"github.com/dompetdev/dompetbot/internal/repository"
	"github.com/dompetdev/dompetbot/internal/service"
)

// Engine turns inbound chat events into a single Response per event. It is
// transport-agnostic: the Telegram layer and the HTTP API both drive it.
type Engine struct {
	svc    *service.Finance
	auth   *auth.Service
	parser parser.Parser
	charts *charts.Generator
	states *stateStore
	now    func() time.Time
}

func NewEngine(svc *service.Finance, authSvc *auth.Service, p parser.Parser, gen *charts.Generator) *Engine {
	return &Engine{
		svc:    svc,
		auth:   authSvc,
		parser: p,
		charts: gen,
		states: newStateStore(),
		now:    time.Now,
	}
}

// WithClock overrides the clock. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// LastMessageID returns the id of the chat's live bot message, 0 if none.
func (e *Engine) LastMessageID(chatID int64) int {
	st, release := e.states.acquire(chatID)
	defer release()
	return st.lastMessageID
}

// SetLastMessageID records the chat's live bot message after a send.
func (e *Engine) SetLastMessageID(chatID int64, messageID int) {
	st, release := e.states.acquire(chatID)
	defer release()
	st.lastMessageID = messageID
}

// HandleText processes one inbound text message and returns the render for
// this turn. The chat's state is locked for the whole call.
func (e *Engine) HandleText(ctx context.Context, chatID int64, text string) Response {
	st, release := e.states.acquire(chatID)
	defer release()

	text = strings.TrimSpace(text)
	if st.flow != flowNone {
		return e.handleFlowInput(ctx, st, text)
	}
	return e.handleCommand(ctx, chatID, st, text)
}

// HandleCallback processes one inline-keyboard press.
func (e *Engine) HandleCallback(ctx context.Context, chatID int64, data string) Response {
	st, release := e.states.acquire(chatID)
	defer release()
	return e.dispatchCallback(ctx, chatID, st, ParseCallback(data))
}

func (e *Engine) handleCommand(ctx context.Context, chatID int64, st *chatState, text string) Response {
	lower := strings.ToLower(text)
	cmd := strings.TrimPrefix(lower, "/")

	switch {
	case cmd == "start":
		return Response{
			Text:     "👋 *Selamat datang di Dompet Pro!*\n\nCatat transaksi langsung dari chat, contoh:\n`Beli kopi 25rb BCA`\n`Gaji masuk 5jt BCA`\n`Transfer 100rb dari BCA ke GoPay`",
			Keyboard: mainMenuKeyboard(),
		}
	case cmd == "help" || cmd == "bantuan" || cmd == "menu":
		return e.renderHelp()
	case cmd == "otp":
		return e.issueOTP(ctx, chatID)
	case strings.HasPrefix(cmd, "verify"):
		return e.verifyOTP(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(cmd, "verify")))
	case cmd == "saldo" || cmd == "balance":
		return e.renderBalance(ctx)
	case cmd == "riwayat" || cmd == "list":
		return e.renderRecent(ctx)
	case cmd == "akun" || cmd == "accounts":
		st.resetFlow()
		return Response{Text: "🏦 *Kelola Akun*\n\nPilih aksi:", Keyboard: accountsMenuKeyboard()}
	case cmd == "laporan" || cmd == "report":
		st.resetFlow()
		return Response{Text: "📊 *Laporan*\n\nPilih periode:", Keyboard: reportMenuKeyboard()}
	case strings.HasPrefix(lower, "hapus ") || strings.HasPrefix(lower, "/hapus "):
		query := strings.TrimSpace(text[strings.Index(lower, "hapus ")+len("hapus "):])
		return e.deleteByQuery(ctx, query)
	}

	return e.recordFromText(ctx, text)
}

// recordFromText runs the free-text parser and records the transaction.
func (e *Engine) recordFromText(ctx context.Context, text string) Response {
	parsed, err := e.parser.Parse(ctx, text)
	if errors.Is(err, parser.ErrNotUnderstood) {
		return Response{
			Text:     "❓ Pesan tidak dipahami.\n\nContoh format:\n`Beli kopi 25rb BCA`\n`Gaji masuk 5jt BCA`\n`Transfer 100rb dari BCA ke GoPay`",
			Keyboard: mainMenuKeyboard(),
		}
	}
	if err != nil {
		return e.failure(err)
	}

	result, err := e.svc.RecordTransaction(ctx, parsed)
	if errors.Is(err, repository.ErrNotFound) {
		return e.renderUnknownAccount(ctx, parsed.AccountName)
	}
	if err != nil {
		return e.failure(err)
	}

	var b strings.Builder
	b.WriteString("✅ *Transaksi Dicatat*\n\n")
	fmt.Fprintf(&b, "%s %s: %s\n", typeIcon(result.Transaction.Type), indonesianType(result.Transaction.Type), formatRupiah(result.Transaction.Amount))
	if result.Category != nil {
		fmt.Fprintf(&b, "🏷 Kategori: %s %s\n", result.Category.Icon, result.CategoryName)
	} else {
		fmt.Fprintf(&b, "🏷 Kategori: %s\n", result.CategoryName)
	}
	fmt.Fprintf(&b, "%s Akun: %s\n", model.AccountIcon(result.Account.Type), result.Account.Name)
	fmt.Fprintf(&b, "💰 Saldo: %s\n", formatRupiah(result.Account.Balance))
	if result.Transaction.Note != "" {
		fmt.Fprintf(&b, "📝 Catatan: %s", result.Transaction.Note)
	}
	return Response{Text: strings.TrimRight(b.String(), "\n"), Keyboard: backKeyboard()}
}

func (e *Engine) deleteByQuery(ctx context.Context, query string) Response {
	if query == "" {
		return Response{Text: "❓ Format: `hapus <catatan atau id transaksi>`", Keyboard: backKeyboard()}
	}
	result, err := e.svc.DeleteTransactionByQuery(ctx, query)
	if errors.Is(err, repository.ErrNotFound) {
		return Response{Text: "❌ Transaksi tidak ditemukan.", Keyboard: backKeyboard()}
	}
	if err != nil {
		return e.failure(err)
	}
	if len(result.Matches) > 0 {
		var b strings.Builder
		b.WriteString("⚠️ Ditemukan beberapa transaksi. Hapus dengan id:\n\n")
		for _, tx := range result.Matches {
			fmt.Fprintf(&b, "%s %s - %s\n`hapus %s`\n\n", typeIcon(tx.Type), tx.Note, formatRupiah(tx.Amount), tx.ID)
		}
		return Response{Text: strings.TrimRight(b.String(), "\n"), Keyboard: backKeyboard()}
	}
	text := fmt.Sprintf("🗑 *Transaksi Dihapus*\n\n%s %s: %s", typeIcon(result.Deleted.Type), result.Deleted.Note, formatRupiah(result.Deleted.Amount))
	if result.Account != nil {
		text += fmt.Sprintf("\n💰 Saldo %s: %s", result.Account.Name, formatRupiah(result.Account.Balance))
	}
	return Response{Text: text, Keyboard: backKeyboard()}
}

func (e *Engine) issueOTP(ctx context.Context, chatID int64) Response {
	result, err := e.auth.Issue(ctx, chatID)

	var limited *auth.RateLimitError
	if errors.As(err, &limited) {
		if limited.Reason == "daily" {
			return Response{
				Text:     "❌ Batas harian OTP tercapai (10x per hari). Coba lagi besok.",
				Keyboard: backKeyboard(),
			}
		}
		minutes := int(limited.RetryAfter.Minutes())
		if limited.RetryAfter > 0 && minutes == 0 {
			minutes = 1
		}
		return Response{
			Text:     fmt.Sprintf("⏳ Terlalu banyak permintaan OTP. Coba lagi dalam %d menit.\n\nSisa jatah hari ini: %d", minutes, limited.RemainingDaily),
			Keyboard: backKeyboard(),
		}
	}
	if err != nil {
		return e.failure(err)
	}

	label := "Kode baru dibuat."
	if result.IsExisting {
		label = "Kode sebelumnya masih berlaku."
	}
	return Response{
		Text: fmt.Sprintf("🔐 *Kode OTP Anda:*\n\n`%s`\n\n%s Berlaku sampai %s.\nVerifikasi dengan `/verify %s`.\n\nSisa jatah hari ini: %d",
			result.Code, label, result.ExpiresAt.Local().Format("15:04"), result.Code, result.RemainingDaily),
		Keyboard: backKeyboard(),
	}
}

func (e *Engine) verifyOTP(ctx context.Context, chatID int64, code string) Response {
	if code == "" {
		return Response{Text: "❓ Format: `/verify 1234`", Keyboard: backKeyboard()}
	}
	result, err := e.auth.Verify(ctx, chatID, code)
	if err != nil {
		return e.failure(err)
	}

	switch result.Status {
	case auth.VerifyOK:
		until, err := e.auth.StartSession(ctx, chatID)
		if err != nil {
			return e.failure(err)
		}
		return Response{
			Text:     fmt.Sprintf("✅ *Verifikasi berhasil!*\n\nSesi aktif sampai %s.", until.Local().Format("02/01/2006 15:04")),
			Keyboard: mainMenuKeyboard(),
		}
	case auth.VerifyWrongCode:
		return Response{
			Text:     fmt.Sprintf("❌ Kode OTP salah. Sisa percobaan: %d", result.AttemptsLeft),
			Keyboard: backKeyboard(),
		}
	case auth.VerifyExpired:
		return Response{Text: "❌ Kode OTP kadaluarsa. Minta kode baru dengan /otp.", Keyboard: backKeyboard()}
	case auth.VerifyTooManyAttempts:
		return Response{Text: "❌ Terlalu banyak percobaan salah. Minta kode baru dengan /otp.", Keyboard: backKeyboard()}
	}
	return Response{Text: "❌ Kode OTP tidak ditemukan. Minta kode baru dengan /otp.", Keyboard: backKeyboard()}
}

func (e *Engine) renderHelp() Response {
	return Response{
		Text: "❓ *Bantuan*\n\n" +
			"*Catat transaksi:*\n" +
			"`Beli kopi 25rb BCA`\n" +
			"`Gaji masuk 5jt BCA`\n" +
			"`Transfer 100rb dari BCA ke GoPay`\n\n" +
			"*Perintah:*\n" +
			"/saldo - saldo semua akun\n" +
			"/riwayat - transaksi terakhir\n" +
			"/akun - kelola akun\n" +
			"/laporan - laporan periode\n" +
			"/otp - minta kode login web\n" +
			"/verify <kode> - verifikasi kode\n" +
			"`hapus <catatan>` - hapus transaksi",
		Keyboard: mainMenuKeyboard(),
	}
}

func (e *Engine) renderUnknownAccount(ctx context.Context, name string) Response {
	accounts, _, err := e.svc.Accounts(ctx)
	if err != nil {
		return e.failure(err)
	}
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "❌ Akun %q tidak ditemukan.\n\n", name)
	} else {
		b.WriteString("❌ Akun tidak ditemukan. Sebutkan nama akun di pesan.\n\n")
	}
	b.WriteString("Akun tersedia:\n")
	for _, acc := range accounts {
		fmt.Fprintf(&b, "• %s %s\n", model.AccountIcon(acc.Type), acc.Name)
	}
	return Response{Text: strings.TrimRight(b.String(), "\n"), Keyboard: backKeyboard()}
}

func (e *Engine) failure(err error) Response {
	log.Printf("bot: turn failed: %v", err)
	return Response{Text: "⚠️ Terjadi kesalahan. Coba lagi.", Keyboard: backKeyboard()}
}

func indonesianType(transactionType string) string {
	switch transactionType {
	case model.TypeIncome:
		return "Pemasukan"
	case model.TypeExpense:
		return "Pengeluaran"
	}
	return "Transfer"
}
