package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dompetdev/dompetbot/internal/model"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistent record store behind the bot. All calls are
// synchronous and immediately consistent.
type Store interface {
	// Accounts
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByName(ctx context.Context, name string) (*model.Account, error)
	AddAccount(ctx context.Context, account *model.Account) error
	UpdateAccount(ctx context.Context, account *model.Account) error
	UpdateAccountBalance(ctx context.Context, id string, balance float64) error
	DeleteAccount(ctx context.Context, id string) error

	// Transactions
	AddTransaction(ctx context.Context, tx *model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	SearchTransactions(ctx context.Context, query string) ([]model.Transaction, error)
	TransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ClearTransactions(ctx context.Context) error

	// Goals
	GetGoals(ctx context.Context) ([]model.Goal, error)
	GetGoalByID(ctx context.Context, id string) (*model.Goal, error)
	AddGoal(ctx context.Context, goal *model.Goal) error
	UpdateGoalTarget(ctx context.Context, id string, target float64) error
	AddToGoal(ctx context.Context, id string, amount float64) error
	DeleteGoal(ctx context.Context, id string) error

	// Budgets
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	GetBudgetByCategory(ctx context.Context, category string) (*model.Budget, error)
	AddBudget(ctx context.Context, budget *model.Budget) error
	UpdateBudgetLimit(ctx context.Context, category string, limit float64) error
	UpdateBudgetSpent(ctx context.Context, category string, spent float64) error
	DeleteBudget(ctx context.Context, category string) error
	ResetBudgetSpent(ctx context.Context, category string) error
	ResetAllBudgets(ctx context.Context) error

	// Categories
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	AddCategory(ctx context.Context, category *model.Category) error
	UpdateCategoryName(ctx context.Context, id, name string) error
	UpdateCategoryKeywords(ctx context.Context, id, keywords string) error
	DeleteCategory(ctx context.Context, id string) error

	// Users (username -> chat mapping, refreshed on every inbound message)
	RegisterUser(ctx context.Context, username string, chatID int64, firstName string) error
	ChatIDByUsername(ctx context.Context, username string) (int64, error)

	ClearAll(ctx context.Context) error
}
