package model

// Account types as shown in the account-type keyboard.
const (
	AccountBank    = "Bank"
	AccountEWallet = "E-Wallet"
	AccountCash    = "Cash"
	AccountCredit  = "Credit"
)

type Account struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
	Icon    string  `json:"icon"`
}

// AccountIcon maps an account type to its display icon.
func AccountIcon(accountType string) string {
	switch accountType {
	case AccountBank:
		return "🏦"
	case AccountEWallet:
		return "📱"
	case AccountCash:
		return "💵"
	case AccountCredit:
		return "💳"
	}
	return "💰"
}
