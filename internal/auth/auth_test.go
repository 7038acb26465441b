package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dompetdev/dompetbot/internal/repository"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	return NewService(store.DB()).WithClock(clock.Now), clock
}

// mint issues a fresh code and consumes it so the next issue generates a
// new one.
func mint(t *testing.T, svc *Service, chatID int64) *IssueResult {
	t.Helper()
	ctx := context.Background()

	result, err := svc.Issue(ctx, chatID)
	require.NoError(t, err)

	verified, err := svc.Verify(ctx, chatID, result.Code)
	require.NoError(t, err)
	require.Equal(t, VerifyOK, verified.Status)
	return result
}

func TestIssueReturnsUnexpiredCodeUnchanged(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, 42)
	require.NoError(t, err)
	assert.False(t, first.IsExisting)
	assert.Len(t, first.Code, 4)
	assert.Equal(t, 9, first.RemainingDaily)

	clock.Advance(2 * time.Minute)

	second, err := svc.Issue(ctx, 42)
	require.NoError(t, err)
	assert.True(t, second.IsExisting)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.ExpiresAt.Unix(), second.ExpiresAt.Unix())
	// returning an existing code burns no quota
	assert.Equal(t, 9, second.RemainingDaily)
}

func TestIssueAfterExpiryGeneratesNewCode(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, 42)
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)

	second, err := svc.Issue(ctx, 42)
	require.NoError(t, err)
	assert.False(t, second.IsExisting)
	assert.Equal(t, 8, second.RemainingDaily)
	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))
}

func TestVerifyConsumesCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 42)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, 42, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, ok.Status)

	again, err := svc.Verify(ctx, 42, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, again.Status)
}

func TestVerifyWrongAttemptsExhaustCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, 42)
	require.NoError(t, err)

	// issued codes are always in [1000, 9999]
	first, err := svc.Verify(ctx, 42, "0000")
	require.NoError(t, err)
	assert.Equal(t, VerifyWrongCode, first.Status)
	assert.Equal(t, 2, first.AttemptsLeft)

	second, err := svc.Verify(ctx, 42, "0000")
	require.NoError(t, err)
	assert.Equal(t, VerifyWrongCode, second.Status)
	assert.Equal(t, 1, second.AttemptsLeft)

	third, err := svc.Verify(ctx, 42, "0000")
	require.NoError(t, err)
	assert.Equal(t, VerifyTooManyAttempts, third.Status)

	fourth, err := svc.Verify(ctx, 42, "0000")
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, fourth.Status)
}

func TestVerifyExpiredCode(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, 42)
	require.NoError(t, err)

	clock.Advance(otpTTL + time.Second)

	expired, err := svc.Verify(ctx, 42, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyExpired, expired.Status)

	gone, err := svc.Verify(ctx, 42, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, gone.Status)
}

func TestBurstLimitDeniesFourthCode(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	for i := 0; i < maxPerWindow; i++ {
		mint(t, svc, 42)
		clock.Advance(time.Minute)
	}

	_, err := svc.Issue(ctx, 42)
	var limited *RateLimitError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, "burst", limited.Reason)
	assert.Greater(t, limited.RetryAfter, time.Duration(0))
	assert.Equal(t, maxPerDay-maxPerWindow, limited.RemainingDaily)

	// the window passes and issuance resumes
	clock.Advance(windowLength)
	result, err := svc.Issue(ctx, 42)
	require.NoError(t, err)
	assert.False(t, result.IsExisting)
}

func TestDailyLimitDeniesEleventhCode(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	for i := 0; i < maxPerDay; i++ {
		mint(t, svc, 42)
		clock.Advance(windowLength)
	}

	_, err := svc.Issue(ctx, 42)
	var limited *RateLimitError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, "daily", limited.Reason)
	assert.Equal(t, 0, limited.RemainingDaily)

	// a new reference day clears the counters
	clock.Advance(24 * time.Hour)
	result, err := svc.Issue(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 9, result.RemainingDaily)
}

func TestRateLimitsAreScopedPerChat(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	for i := 0; i < maxPerWindow; i++ {
		mint(t, svc, 42)
		clock.Advance(time.Minute)
	}

	_, err := svc.Issue(ctx, 42)
	require.Error(t, err)

	other, err := svc.Issue(ctx, 99)
	require.NoError(t, err)
	assert.False(t, other.IsExisting)
}

func TestSessionLifecycle(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	ok, err := svc.IsAuthenticated(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	until, err := svc.StartSession(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(sessionDuration).Unix(), until.Unix())

	ok, err = svc.IsAuthenticated(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(sessionDuration + time.Second)

	ok, err = svc.IsAuthenticated(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyUnknownChat(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Verify(context.Background(), 7, "1234")
	require.NoError(t, err)
	assert.Equal(t, VerifyNotFound, result.Status)
}
