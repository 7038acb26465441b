package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const sessionDuration = 5 * time.Hour

// StartSession grants (or refreshes) the 5-hour authenticated window for
// the chat and returns its expiry.
func (s *Service) StartSession(ctx context.Context, chatID int64) (time.Time, error) {
	until := s.now().Add(sessionDuration)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (chat_id, authenticated_until) VALUES (?, ?)`,
		chatID, until.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return time.Time{}, err
	}
	return until, nil
}

// IsAuthenticated reports whether the chat holds a live session, lazily
// deleting an expired row.
func (s *Service) IsAuthenticated(ctx context.Context, chatID int64) (bool, error) {
	var until string
	err := s.db.QueryRowContext(ctx,
		`SELECT authenticated_until FROM sessions WHERE chat_id = ?`, chatID).Scan(&until)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	expiry, _ := time.Parse(time.RFC3339Nano, until)
	if !s.now().Before(expiry) {
		_, err = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE chat_id = ?`, chatID)
		return false, err
	}
	return true, nil
}
