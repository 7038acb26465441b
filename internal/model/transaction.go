package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeIncome   = "Income"
	TypeExpense  = "Expense"
	TypeTransfer = "Transfer"
)

type Transaction struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	ToAccountID string    `json:"to_account_id,omitempty"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Note        string    `json:"note"`
}

// GenerateID assigns a new UUID if the transaction has none yet.
func (t *Transaction) GenerateID() {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
}

// ParsedTransaction is what the free-text parser extracts from a message
// like "Beli kopi 25rb BCA". Category may be empty; the classifier fills it.
type ParsedTransaction struct {
	Type          string
	Amount        float64
	AccountName   string
	ToAccountName string
	Category      string
	Note          string
}
