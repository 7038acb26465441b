package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"
)

const (
	otpTTL      = 5 * time.Minute
	maxAttempts = 3
)

// IssueResult is the outcome of a successful OTP issuance. IsExisting is
// true when an unexpired code was returned unchanged instead of generating
// a new one.
type IssueResult struct {
	Code           string
	ExpiresAt      time.Time
	IsExisting     bool
	RemainingDaily int
}

// VerifyStatus enumerates verification outcomes.
type VerifyStatus int

const (
	VerifyOK VerifyStatus = iota
	VerifyNotFound
	VerifyExpired
	VerifyWrongCode
	VerifyTooManyAttempts
)

type VerifyResult struct {
	Status       VerifyStatus
	AttemptsLeft int
}

// Service is the OTP authority plus session store. All state lives in the
// shared sqlite handle; window and day rollovers are computed from the
// injected clock on every call, never by background timers.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// WithClock overrides the clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue returns a login code for the chat. An unexpired code is returned
// unchanged without touching the rate-limit counters, so polling the
// endpoint cannot mint codes or burn quota. A *RateLimitError is returned
// when issuance is throttled.
func (s *Service) Issue(ctx context.Context, chatID int64) (*IssueResult, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	remaining, err := checkRateLimit(tx, chatID, now)
	if err != nil {
		var rle *RateLimitError
		if errors.As(err, &rle) {
			// commit so lazy rollovers performed during the check persist
			if cerr := tx.Commit(); cerr != nil {
				return nil, cerr
			}
		}
		return nil, err
	}

	var code, expiresAt string
	err = tx.QueryRow(`SELECT code, expires_at FROM otp_codes WHERE chat_id = ?`, chatID).
		Scan(&code, &expiresAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		exp, _ := time.Parse(time.RFC3339Nano, expiresAt)
		if now.Before(exp) {
			if err := tx.Commit(); err != nil {
				return nil, err
			}
			return &IssueResult{Code: code, ExpiresAt: exp, IsExisting: true, RemainingDaily: remaining}, nil
		}
	}

	newCode, err := randomCode()
	if err != nil {
		return nil, err
	}
	exp := now.Add(otpTTL)
	_, err = tx.Exec(
		`INSERT OR REPLACE INTO otp_codes (chat_id, code, created_at, expires_at, attempts, last_attempt_at)
		 VALUES (?, ?, ?, ?, 0, NULL)`,
		chatID, newCode, now.UTC().Format(time.RFC3339Nano), exp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}

	// The reservation commits atomically with the code write.
	if err := reserveRateLimit(tx, chatID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &IssueResult{Code: newCode, ExpiresAt: exp, RemainingDaily: remaining - 1}, nil
}

// Verify checks a submitted code. The stored code is single-use: it is
// deleted on success, on expiry, and when the third wrong attempt exhausts
// the allowance.
func (s *Service) Verify(ctx context.Context, chatID int64, submitted string) (VerifyResult, error) {
	now := s.now()

	var code, expiresAt string
	var attempts int
	err := s.db.QueryRowContext(ctx,
		`SELECT code, expires_at, attempts FROM otp_codes WHERE chat_id = ?`, chatID).
		Scan(&code, &expiresAt, &attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return VerifyResult{Status: VerifyNotFound}, nil
	}
	if err != nil {
		return VerifyResult{}, err
	}

	exp, _ := time.Parse(time.RFC3339Nano, expiresAt)
	if now.After(exp) {
		if err := s.deleteCode(ctx, chatID); err != nil {
			return VerifyResult{}, err
		}
		return VerifyResult{Status: VerifyExpired}, nil
	}

	attempts++
	if code != submitted {
		if attempts >= maxAttempts {
			// third wrong attempt exhausts the code
			if err := s.deleteCode(ctx, chatID); err != nil {
				return VerifyResult{}, err
			}
			return VerifyResult{Status: VerifyTooManyAttempts}, nil
		}
		_, err = s.db.ExecContext(ctx,
			`UPDATE otp_codes SET attempts = ?, last_attempt_at = ? WHERE chat_id = ?`,
			attempts, now.UTC().Format(time.RFC3339Nano), chatID)
		if err != nil {
			return VerifyResult{}, err
		}
		return VerifyResult{Status: VerifyWrongCode, AttemptsLeft: maxAttempts - attempts}, nil
	}

	if err := s.deleteCode(ctx, chatID); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Status: VerifyOK}, nil
}

func (s *Service) deleteCode(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE chat_id = ?`, chatID)
	return err
}

// randomCode draws a uniform 4-digit code in [1000, 9999].
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
