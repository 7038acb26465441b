package model

import "time"

// OTPCode is a single-use 4-digit login code. One row per chat; a new code
// overwrites the previous one.
type OTPCode struct {
	ChatID        int64      `json:"chat_id"`
	Code          string     `json:"code"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
}

// OTPRateLimit tracks issuance pressure per chat: a sliding 15-minute burst
// window plus a rolling daily counter. Rollovers are computed lazily on read.
type OTPRateLimit struct {
	ChatID       int64     `json:"chat_id"`
	WindowCount  int       `json:"window_count"`
	WindowStart  time.Time `json:"window_start"`
	DailyCount   int       `json:"daily_count"`
	DailyResetAt time.Time `json:"daily_reset_at"`
}

// Session is the 5-hour authenticated window granted after OTP verification.
type Session struct {
	ChatID             int64     `json:"chat_id"`
	AuthenticatedUntil time.Time `json:"authenticated_until"`
}
