package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dompetdev/dompetbot/internal/model"
)

// Response is the single render a turn produces: one text plus an optional
// inline keyboard. When PhotoPNG is set the transport sends the text as the
// photo's caption instead.
type Response struct {
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
	PhotoPNG []byte
}

// formatRupiah renders an amount in id-ID style: Rp 1.234.567.
func formatRupiah(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%.0f", amount)

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

func typeIcon(transactionType string) string {
	switch transactionType {
	case model.TypeIncome:
		return "📈"
	case model.TypeExpense:
		return "📉"
	}
	return "🔄"
}

func budgetStatusIcon(b model.Budget) string {
	if b.Limit <= 0 {
		return "🔴"
	}
	pct := b.Spent / b.Limit * 100
	switch {
	case pct >= 100:
		return "🔴"
	case pct >= 85:
		return "🟠"
	}
	return "🟢"
}

func percent(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	return int(part/whole*100 + 0.5)
}

// reportText renders a transaction report in the style of the chat UI.
func reportText(transactions []model.Transaction, accounts map[string]string, title string) string {
	if len(transactions) == 0 {
		return fmt.Sprintf("📊 *%s*\n\n📭 Tidak ada transaksi.", title)
	}

	var totalIncome, totalExpense float64
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s*\n\n", title)

	for _, tx := range transactions {
		name := accounts[tx.AccountID]
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(&b, "%s %s\n", typeIcon(tx.Type), tx.Note)
		fmt.Fprintf(&b, "   %s • %s\n", formatRupiah(tx.Amount), name)
		fmt.Fprintf(&b, "   _%s_\n\n", tx.Date.Format("02 Jan 15:04"))

		switch tx.Type {
		case model.TypeIncome:
			totalIncome += tx.Amount
		case model.TypeExpense:
			totalExpense += tx.Amount
		}
	}

	b.WriteString("━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "📈 Pemasukan: %s\n", formatRupiah(totalIncome))
	fmt.Fprintf(&b, "📉 Pengeluaran: %s\n", formatRupiah(totalExpense))
	fmt.Fprintf(&b, "💰 Selisih: %s", formatRupiah(totalIncome-totalExpense))
	return b.String()
}

func formatDay(t time.Time) string { return t.Format("02/01/2006") }
