package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dompetdev/dompetbot/internal/model"
)

const (
	maxPerWindow = 3
	windowLength = 15 * time.Minute
	maxPerDay    = 10
)

// RateLimitError reports why OTP issuance was throttled.
type RateLimitError struct {
	Reason         string // "burst" or "daily"
	RetryAfter     time.Duration
	RemainingDaily int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("otp rate limited (%s)", e.Reason)
}

// refDay is the calendar day used for daily rollover, fixed to UTC.
func refDay(t time.Time) string { return t.UTC().Format("2006-01-02") }

// checkRateLimit evaluates (and lazily rolls over) the per-chat issuance
// limits inside the caller's transaction. It does not reserve a slot; the
// caller increments the counters together with the OTP write.
func checkRateLimit(tx *sql.Tx, chatID int64, now time.Time) (remainingDaily int, err error) {
	var rl model.OTPRateLimit
	var windowStart, dailyResetAt string
	err = tx.QueryRow(
		`SELECT window_count, window_start, daily_count, daily_reset_at FROM otp_rate_limits WHERE chat_id = ?`,
		chatID).Scan(&rl.WindowCount, &windowStart, &rl.DailyCount, &dailyResetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return maxPerDay, nil
	}
	if err != nil {
		return 0, err
	}
	rl.WindowStart, _ = time.Parse(time.RFC3339Nano, windowStart)
	rl.DailyResetAt, _ = time.Parse(time.RFC3339Nano, dailyResetAt)

	// Daily rollover: a new reference day clears both counters.
	if refDay(rl.DailyResetAt) != refDay(now) {
		_, err = tx.Exec(
			`UPDATE otp_rate_limits SET daily_count = 0, daily_reset_at = ?, window_count = 0, window_start = ? WHERE chat_id = ?`,
			now.UTC().Format(time.RFC3339Nano), now.UTC().Format(time.RFC3339Nano), chatID)
		if err != nil {
			return 0, err
		}
		return maxPerDay, nil
	}

	if rl.DailyCount >= maxPerDay {
		return 0, &RateLimitError{Reason: "daily", RemainingDaily: 0}
	}

	elapsed := now.Sub(rl.WindowStart)
	if elapsed < windowLength && rl.WindowCount >= maxPerWindow {
		return 0, &RateLimitError{
			Reason:         "burst",
			RetryAfter:     windowLength - elapsed,
			RemainingDaily: maxPerDay - rl.DailyCount,
		}
	}

	// Burst rollover: the 15-minute window has passed.
	if elapsed >= windowLength {
		_, err = tx.Exec(
			`UPDATE otp_rate_limits SET window_count = 0, window_start = ? WHERE chat_id = ?`,
			now.UTC().Format(time.RFC3339Nano), chatID)
		if err != nil {
			return 0, err
		}
	}

	return maxPerDay - rl.DailyCount, nil
}

// reserveRateLimit increments both counters, creating the row on first use.
func reserveRateLimit(tx *sql.Tx, chatID int64, now time.Time) error {
	ts := now.UTC().Format(time.RFC3339Nano)
	res, err := tx.Exec(
		`UPDATE otp_rate_limits SET window_count = window_count + 1, daily_count = daily_count + 1 WHERE chat_id = ?`,
		chatID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = tx.Exec(
			`INSERT INTO otp_rate_limits (chat_id, window_count, window_start, daily_count, daily_reset_at) VALUES (?, 1, ?, 1, ?)`,
			chatID, ts, ts)
	}
	return err
}
