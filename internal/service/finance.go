// Package service implements the financial operations behind the bot:
// transaction recording with balance and budget side effects, and CRUD for
// accounts, goals, budgets and categories.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dompetdev/dompetbot/internal/classifier"
	"github.com/dompetdev/dompetbot/internal/model"
	"github.com/dompetdev/dompetbot/internal/repository"
)

// Finance is the façade the conversation engine talks to.
type Finance struct {
	store repository.Store
	now   func() time.Time
}

func NewFinance(store repository.Store) *Finance {
	return &Finance{store: store, now: time.Now}
}

// WithClock overrides the clock. Test hook.
func (f *Finance) WithClock(now func() time.Time) *Finance {
	f.now = now
	return f
}

// Store exposes the underlying record store for read-only collaborators.
func (f *Finance) Store() repository.Store { return f.store }

// TransactionResult describes a recorded transaction plus the state the
// confirmation render needs.
type TransactionResult struct {
	Transaction    *model.Transaction
	Account        *model.Account // source account with its post-write balance
	Category       *model.Category
	CategoryName   string
	AutoClassified bool
}

// RecordTransaction applies a parsed transaction: resolves the source
// account, auto-classifies the category, moves balances (Expense debits,
// Income credits, Transfer moves between two resolved accounts), bumps the
// matching budget's spent exactly once, and persists the row.
func (f *Finance) RecordTransaction(ctx context.Context, parsed *model.ParsedTransaction) (*TransactionResult, error) {
	if parsed.AccountName == "" {
		return nil, fmt.Errorf("source account: %w", repository.ErrNotFound)
	}
	source, err := f.store.GetAccountByName(ctx, parsed.AccountName)
	if err != nil {
		return nil, fmt.Errorf("source account %q: %w", parsed.AccountName, err)
	}

	classifyKind := parsed.Type
	if classifyKind == model.TypeTransfer {
		classifyKind = model.TypeExpense
	}
	categories, err := f.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	autoCategory := classifier.Classify(categories, parsed.Note, classifyKind)
	finalCategory := autoCategory
	if autoCategory == classifier.Fallback && parsed.Category != "" {
		finalCategory = parsed.Category
	}

	tx := &model.Transaction{
		AccountID: source.ID,
		Amount:    parsed.Amount,
		Type:      parsed.Type,
		Category:  finalCategory,
		Date:      f.now(),
		Note:      parsed.Note,
	}
	tx.GenerateID()

	switch parsed.Type {
	case model.TypeExpense:
		if err := f.store.UpdateAccountBalance(ctx, source.ID, source.Balance-parsed.Amount); err != nil {
			return nil, err
		}
	case model.TypeIncome:
		if err := f.store.UpdateAccountBalance(ctx, source.ID, source.Balance+parsed.Amount); err != nil {
			return nil, err
		}
	case model.TypeTransfer:
		// Balances only move when both ends resolve.
		if parsed.ToAccountName != "" {
			target, err := f.store.GetAccountByName(ctx, parsed.ToAccountName)
			if err == nil {
				if err := f.store.UpdateAccountBalance(ctx, source.ID, source.Balance-parsed.Amount); err != nil {
					return nil, err
				}
				if err := f.store.UpdateAccountBalance(ctx, target.ID, target.Balance+parsed.Amount); err != nil {
					return nil, err
				}
				tx.ToAccountID = target.ID
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
		}
	}

	// Budget linkage happens exactly once, at creation time.
	if parsed.Type == model.TypeExpense {
		budget, err := f.store.GetBudgetByCategory(ctx, finalCategory)
		if err == nil {
			if err := f.store.UpdateBudgetSpent(ctx, budget.Category, budget.Spent+parsed.Amount); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if err := f.store.AddTransaction(ctx, tx); err != nil {
		return nil, err
	}

	updated, err := f.store.GetAccountByID(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	result := &TransactionResult{
		Transaction:    tx,
		Account:        updated,
		CategoryName:   finalCategory,
		AutoClassified: autoCategory != classifier.Fallback,
	}
	if cat, err := f.store.GetCategoryByName(ctx, finalCategory); err == nil {
		result.Category = cat
	}
	return result, nil
}

// DeleteResult describes the outcome of a delete-by-query: either one
// transaction was removed (Deleted set) or the query was ambiguous
// (Matches set).
type DeleteResult struct {
	Deleted *model.Transaction
	Account *model.Account
	Matches []model.Transaction
}

// DeleteTransactionByQuery removes a transaction by id or note search,
// re-adjusting the source account balance for Income and Expense rows.
func (f *Finance) DeleteTransactionByQuery(ctx context.Context, query string) (*DeleteResult, error) {
	tx, err := f.store.GetTransactionByID(ctx, query)
	if errors.Is(err, repository.ErrNotFound) {
		matches, serr := f.store.SearchTransactions(ctx, query)
		if serr != nil {
			return nil, serr
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("transaction %q: %w", query, repository.ErrNotFound)
		}
		if len(matches) > 1 {
			return &DeleteResult{Matches: matches}, nil
		}
		tx = &matches[0]
	} else if err != nil {
		return nil, err
	}

	var account *model.Account
	if acc, err := f.store.GetAccountByID(ctx, tx.AccountID); err == nil {
		switch tx.Type {
		case model.TypeExpense:
			err = f.store.UpdateAccountBalance(ctx, acc.ID, acc.Balance+tx.Amount)
		case model.TypeIncome:
			err = f.store.UpdateAccountBalance(ctx, acc.ID, acc.Balance-tx.Amount)
		}
		if err != nil {
			return nil, err
		}
		account, _ = f.store.GetAccountByID(ctx, acc.ID)
	}

	if err := f.store.DeleteTransaction(ctx, tx.ID); err != nil {
		return nil, err
	}
	return &DeleteResult{Deleted: tx, Account: account}, nil
}

// Accounts

func (f *Finance) Accounts(ctx context.Context) ([]model.Account, float64, error) {
	accounts, err := f.store.GetAccounts(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total float64
	for _, a := range accounts {
		total += a.Balance
	}
	return accounts, total, nil
}

func (f *Finance) AccountByID(ctx context.Context, id string) (*model.Account, error) {
	return f.store.GetAccountByID(ctx, id)
}

func (f *Finance) CreateAccount(ctx context.Context, name, accountType string, balance float64) (*model.Account, error) {
	account := &model.Account{
		ID:      uuidString(),
		Name:    name,
		Type:    accountType,
		Balance: balance,
		Icon:    model.AccountIcon(accountType),
	}
	if err := f.store.AddAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (f *Finance) SetAccountBalance(ctx context.Context, id string, balance float64) (*model.Account, error) {
	account, err := f.store.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Balance = balance
	if err := f.store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// RemoveAccount cascades: the account's transactions go with it.
func (f *Finance) RemoveAccount(ctx context.Context, id string) error {
	return f.store.DeleteAccount(ctx, id)
}

// Transactions / reports

func (f *Finance) RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	return f.store.RecentTransactions(ctx, limit)
}

func (f *Finance) TransactionsOn(ctx context.Context, day time.Time) ([]model.Transaction, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return f.store.TransactionsByDateRange(ctx, start, end)
}

func (f *Finance) TransactionsBetween(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	return f.store.TransactionsByDateRange(ctx, start, end)
}

// Goals

func (f *Finance) Goals(ctx context.Context) ([]model.Goal, error) {
	return f.store.GetGoals(ctx)
}

func (f *Finance) GoalByID(ctx context.Context, id string) (*model.Goal, error) {
	return f.store.GetGoalByID(ctx, id)
}

func (f *Finance) CreateGoal(ctx context.Context, name string, target float64, icon, color string) (*model.Goal, error) {
	goal := &model.Goal{
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: 0,
		Icon:          icon,
		Color:         color,
	}
	goal.GenerateID()
	if err := f.store.AddGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (f *Finance) SetGoalTarget(ctx context.Context, id string, target float64) error {
	return f.store.UpdateGoalTarget(ctx, id, target)
}

func (f *Finance) AddToGoal(ctx context.Context, id string, amount float64) (*model.Goal, error) {
	if err := f.store.AddToGoal(ctx, id, amount); err != nil {
		return nil, err
	}
	return f.store.GetGoalByID(ctx, id)
}

func (f *Finance) RemoveGoal(ctx context.Context, id string) error {
	return f.store.DeleteGoal(ctx, id)
}

// Budgets

func (f *Finance) Budgets(ctx context.Context) ([]model.Budget, error) {
	return f.store.GetBudgets(ctx)
}

func (f *Finance) BudgetByCategory(ctx context.Context, category string) (*model.Budget, error) {
	return f.store.GetBudgetByCategory(ctx, category)
}

func (f *Finance) CreateBudget(ctx context.Context, category string, limit float64) (*model.Budget, error) {
	budget := &model.Budget{Category: category, Limit: limit, Spent: 0}
	if err := f.store.AddBudget(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func (f *Finance) SetBudgetLimit(ctx context.Context, category string, limit float64) error {
	return f.store.UpdateBudgetLimit(ctx, category, limit)
}

func (f *Finance) RemoveBudget(ctx context.Context, category string) error {
	return f.store.DeleteBudget(ctx, category)
}

func (f *Finance) ResetBudgetSpent(ctx context.Context, category string) error {
	return f.store.ResetBudgetSpent(ctx, category)
}

func (f *Finance) ResetAllBudgets(ctx context.Context) error {
	return f.store.ResetAllBudgets(ctx)
}

// AvailableBudgetCategories lists Expense categories without a budget yet.
func (f *Finance) AvailableBudgetCategories(ctx context.Context) ([]model.Category, error) {
	budgets, err := f.store.GetBudgets(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		taken[b.Category] = true
	}

	categories, err := f.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	var available []model.Category
	for _, c := range categories {
		if c.Type == model.TypeExpense && !taken[c.Name] {
			available = append(available, c)
		}
	}
	return available, nil
}

// Categories

func (f *Finance) Categories(ctx context.Context) ([]model.Category, error) {
	return f.store.GetCategories(ctx)
}

func (f *Finance) CategoryByID(ctx context.Context, id string) (*model.Category, error) {
	return f.store.GetCategoryByID(ctx, id)
}

func (f *Finance) CreateCategory(ctx context.Context, name, categoryType, icon, keywords string) (*model.Category, error) {
	category := &model.Category{
		Name:     name,
		Icon:     icon,
		Keywords: model.NormalizeKeywords(keywords),
		Type:     categoryType,
	}
	category.GenerateID()
	if err := f.store.AddCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (f *Finance) RenameCategory(ctx context.Context, id, name string) error {
	return f.store.UpdateCategoryName(ctx, id, name)
}

func (f *Finance) SetCategoryKeywords(ctx context.Context, id, keywords string) error {
	return f.store.UpdateCategoryKeywords(ctx, id, model.NormalizeKeywords(keywords))
}

func (f *Finance) RemoveCategory(ctx context.Context, id string) error {
	return f.store.DeleteCategory(ctx, id)
}

// ClearTransactions wipes the transaction history. Balances stay as they
// are.
func (f *Finance) ClearTransactions(ctx context.Context) error {
	return f.store.ClearTransactions(ctx)
}

// ClearAll wipes accounts, transactions, goals and budgets.
func (f *Finance) ClearAll(ctx context.Context) error {
	return f.store.ClearAll(ctx)
}

func uuidString() string { return uuid.New().String() }
