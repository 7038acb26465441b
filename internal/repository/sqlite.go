package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dompetdev/dompetbot/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	balance REAL NOT NULL,
	icon TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	to_account_id TEXT,
	amount REAL NOT NULL,
	type TEXT NOT NULL,
	category TEXT NOT NULL,
	date TEXT NOT NULL,
	note TEXT NOT NULL,
	FOREIGN KEY (account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS goals (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	target_amount REAL NOT NULL,
	current_amount REAL NOT NULL,
	deadline TEXT,
	icon TEXT NOT NULL,
	color TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS budgets (
	category TEXT PRIMARY KEY,
	budget_limit REAL NOT NULL,
	spent REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	icon TEXT NOT NULL,
	keywords TEXT NOT NULL,
	type TEXT DEFAULT 'Expense'
);

CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	chat_id INTEGER NOT NULL,
	first_name TEXT,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS otp_codes (
	chat_id INTEGER PRIMARY KEY,
	code TEXT NOT NULL,
	created_at TEXT NOT NULL,
	expires_at TEXT NOT NULL,
	attempts INTEGER DEFAULT 0,
	last_attempt_at TEXT
);

CREATE TABLE IF NOT EXISTS otp_rate_limits (
	chat_id INTEGER PRIMARY KEY,
	window_count INTEGER DEFAULT 0,
	window_start TEXT NOT NULL,
	daily_count INTEGER DEFAULT 0,
	daily_reset_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	chat_id INTEGER PRIMARY KEY,
	authenticated_until TEXT NOT NULL
);
`

// SQLiteStore implements Store on a local SQLite database. The OTP, rate
// limit and session tables share the same handle so issuance can run the
// rate-limit reservation and the code write in one transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; avoid SQLITE_BUSY under the bot's
	// concurrent webhook deliveries
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for components that need transactions
// over the auth tables.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// timeLayout keeps a fixed-width fraction so date strings compare
// lexicographically in range queries. RFC3339Nano trims trailing zeros,
// which breaks that ordering around midnight.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Accounts

func (s *SQLiteStore) GetAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, balance, icon FROM accounts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Balance, &a.Icon); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLiteStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, balance, icon FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Type, &a.Balance, &a.Icon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) GetAccountByName(ctx context.Context, name string) (*model.Account, error) {
	var a model.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, balance, icon FROM accounts WHERE LOWER(name) LIKE ?`,
		"%"+strings.ToLower(name)+"%").
		Scan(&a.ID, &a.Name, &a.Type, &a.Balance, &a.Icon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) AddAccount(ctx context.Context, account *model.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, type, balance, icon) VALUES (?, ?, ?, ?, ?)`,
		account.ID, account.Name, account.Type, account.Balance, account.Icon)
	return err
}

func (s *SQLiteStore) UpdateAccount(ctx context.Context, account *model.Account) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ?, balance = ?, icon = ? WHERE id = ?`,
		account.Name, account.Type, account.Balance, account.Icon, account.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) UpdateAccountBalance(ctx context.Context, id string, balance float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteAccount removes the account and every transaction referencing it.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE account_id = ? OR to_account_id = ?`, id, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

// Transactions

func (s *SQLiteStore) AddTransaction(ctx context.Context, t *model.Transaction) error {
	var toAccount any
	if t.ToAccountID != "" {
		toAccount = t.ToAccountID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, to_account_id, amount, type, category, date, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, toAccount, t.Amount, t.Type, t.Category, fmtTime(t.Date), t.Note)
	return err
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var toAccount sql.NullString
		var date string
		if err := rows.Scan(&t.ID, &t.AccountID, &toAccount, &t.Amount, &t.Type, &t.Category, &date, &t.Note); err != nil {
			return nil, err
		}
		t.ToAccountID = toAccount.String
		t.Date = parseTime(date)
		out = append(out, t)
	}
	return out, rows.Err()
}

const txColumns = `id, account_id, to_account_id, amount, type, category, date, note`

func (s *SQLiteStore) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	var t model.Transaction
	var toAccount sql.NullString
	var date string
	err := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.AccountID, &toAccount, &t.Amount, &t.Type, &t.Category, &date, &t.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.ToAccountID = toAccount.String
	t.Date = parseTime(date)
	return &t, nil
}

func (s *SQLiteStore) RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (s *SQLiteStore) SearchTransactions(ctx context.Context, query string) ([]model.Transaction, error) {
	q := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions
		 WHERE LOWER(note) LIKE ? OR LOWER(category) LIKE ?
		 ORDER BY date DESC LIMIT 10`, q, q)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (s *SQLiteStore) TransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE date >= ? AND date <= ? ORDER BY date DESC`,
		fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) ClearTransactions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions`)
	return err
}

// Goals

func (s *SQLiteStore) GetGoals(ctx context.Context) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, target_amount, current_amount, COALESCE(deadline, ''), icon, color FROM goals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		var g model.Goal
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.Icon, &g.Color); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *SQLiteStore) GetGoalByID(ctx context.Context, id string) (*model.Goal, error) {
	var g model.Goal
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, target_amount, current_amount, COALESCE(deadline, ''), icon, color FROM goals WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.Icon, &g.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *SQLiteStore) AddGoal(ctx context.Context, goal *model.Goal) error {
	var deadline any
	if goal.Deadline != "" {
		deadline = goal.Deadline
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, name, target_amount, current_amount, deadline, icon, color)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.Name, goal.TargetAmount, goal.CurrentAmount, deadline, goal.Icon, goal.Color)
	return err
}

func (s *SQLiteStore) UpdateGoalTarget(ctx context.Context, id string, target float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE goals SET target_amount = ? WHERE id = ?`, target, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) AddToGoal(ctx context.Context, id string, amount float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET current_amount = current_amount + ? WHERE id = ?`, amount, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) DeleteGoal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Budgets

func (s *SQLiteStore) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, budget_limit, spent FROM budgets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		var b model.Budget
		if err := rows.Scan(&b.Category, &b.Limit, &b.Spent); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *SQLiteStore) GetBudgetByCategory(ctx context.Context, category string) (*model.Budget, error) {
	var b model.Budget
	err := s.db.QueryRowContext(ctx,
		`SELECT category, budget_limit, spent FROM budgets WHERE LOWER(category) = ?`,
		strings.ToLower(category)).
		Scan(&b.Category, &b.Limit, &b.Spent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *SQLiteStore) AddBudget(ctx context.Context, budget *model.Budget) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (category, budget_limit, spent) VALUES (?, ?, ?)`,
		budget.Category, budget.Limit, budget.Spent)
	return err
}

func (s *SQLiteStore) UpdateBudgetLimit(ctx context.Context, category string, limit float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET budget_limit = ? WHERE category = ?`, limit, category)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) UpdateBudgetSpent(ctx context.Context, category string, spent float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET spent = ? WHERE category = ?`, spent, category)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) DeleteBudget(ctx context.Context, category string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE category = ?`, category)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) ResetBudgetSpent(ctx context.Context, category string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE budgets SET spent = 0 WHERE category = ?`, category)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) ResetAllBudgets(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE budgets SET spent = 0`)
	return err
}

// Categories

func (s *SQLiteStore) GetCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon, keywords, type FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Keywords, &c.Type); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, icon, keywords, type FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Icon, &c.Keywords, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, icon, keywords, type FROM categories WHERE LOWER(name) = ?`,
		strings.ToLower(name)).
		Scan(&c.ID, &c.Name, &c.Icon, &c.Keywords, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) AddCategory(ctx context.Context, category *model.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, icon, keywords, type) VALUES (?, ?, ?, ?, ?)`,
		category.ID, category.Name, category.Icon, category.Keywords, category.Type)
	return err
}

func (s *SQLiteStore) UpdateCategoryName(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) UpdateCategoryKeywords(ctx context.Context, id, keywords string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET keywords = ? WHERE id = ?`, keywords, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Users

func (s *SQLiteStore) RegisterUser(ctx context.Context, username string, chatID int64, firstName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO users (username, chat_id, first_name, updated_at) VALUES (?, ?, ?, ?)`,
		strings.ToLower(username), chatID, firstName, fmtTime(time.Now()))
	return err
}

func (s *SQLiteStore) ChatIDByUsername(ctx context.Context, username string) (int64, error) {
	var chatID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id FROM users WHERE username = ?`, strings.ToLower(username)).Scan(&chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return chatID, nil
}

// ClearAll wipes the financial records. Auth and user tables survive.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	for _, table := range []string{"transactions", "accounts", "goals", "budgets"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
