// Package parser turns free-text messages like "Beli kopi 25rb BCA" into
// structured transactions.
package parser

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/dompetdev/dompetbot/internal/model"
)

// ErrNotUnderstood is returned when the text does not look like a
// transaction at all.
var ErrNotUnderstood = errors.New("message not understood")

// Parser extracts a transaction from free text.
type Parser interface {
	Parse(ctx context.Context, text string) (*model.ParsedTransaction, error)
}

// AccountSource lists the accounts the parser may reference by name.
type AccountSource interface {
	GetAccounts(ctx context.Context) ([]model.Account, error)
}

// RuleParser is a keyword-driven implementation: transaction kind from verb
// cues, amount from shorthand, accounts matched against stored names.
type RuleParser struct {
	accounts AccountSource
}

func NewRuleParser(accounts AccountSource) *RuleParser {
	return &RuleParser{accounts: accounts}
}

var incomeCues = []string{"gaji", "gajian", "terima", "dapat", "masuk", "bonus", "thr", "refund", "cashback", "honor", "bayaran"}

// full amount token including its shorthand suffix, for kind/account scanning
var amountTokenRe = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?\s?(?:jt|rb|k|j|m|b|t)?\b`)

func (p *RuleParser) Parse(ctx context.Context, text string) (*model.ParsedTransaction, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil, ErrNotUnderstood
	}

	token := amountTokenRe.FindString(lower)
	if token == "" {
		return nil, ErrNotUnderstood
	}
	amount, err := ParseAmount(token)
	if err != nil || amount <= 0 {
		return nil, ErrNotUnderstood
	}

	kind := model.TypeExpense
	switch {
	case strings.Contains(lower, "transfer") || strings.HasPrefix(lower, "tf "):
		kind = model.TypeTransfer
	case containsAny(lower, incomeCues):
		kind = model.TypeIncome
	}

	parsed := &model.ParsedTransaction{
		Type:   kind,
		Amount: amount,
		Note:   strings.TrimSpace(text),
	}

	accounts, err := p.accounts.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}

	if kind == model.TypeTransfer {
		// "transfer 500rb BCA ke Gopay": source before "ke", target after
		before, after, found := strings.Cut(lower, " ke ")
		if found {
			parsed.AccountName = matchAccount(accounts, before)
			parsed.ToAccountName = matchAccount(accounts, after)
		} else {
			parsed.AccountName = matchAccount(accounts, lower)
		}
	} else {
		parsed.AccountName = matchAccount(accounts, lower)
	}

	return parsed, nil
}

// matchAccount finds the first stored account one of whose name words
// appears as a word in the text.
func matchAccount(accounts []model.Account, text string) string {
	words := strings.Fields(text)
	for _, a := range accounts {
		for _, part := range strings.Fields(strings.ToLower(a.Name)) {
			for _, w := range words {
				if w == part {
					return a.Name
				}
			}
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
