package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dompetdev/dompetbot/internal/auth"
	"github.com/dompetdev/dompetbot/internal/model"
	"github.com/dompetdev/dompetbot/internal/repository"
	"github.com/dompetdev/dompetbot/internal/service"
)

type capturedOTP struct {
	chatID int64
	code   string
}

type fakeNotifier struct {
	sent []capturedOTP
}

func (f *fakeNotifier) SendOTP(chatID int64, code string, expiresAt time.Time, isExisting bool) error {
	f.sent = append(f.sent, capturedOTP{chatID: chatID, code: code})
	return nil
}

func newTestServer(t *testing.T) (*Server, *fakeNotifier, *repository.SQLiteStore) {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(context.Background()))
	require.NoError(t, store.RegisterUser(context.Background(), "budi", 42, "Budi"))

	notifier := &fakeNotifier{}
	authSvc := auth.NewService(store.DB())
	return New(authSvc, service.NewFinance(store), store, notifier, nil), notifier, store
}

// login runs the OTP round trip so the following requests are session
// authenticated.
func login(t *testing.T, srv *Server, notifier *fakeNotifier, username string) {
	t.Helper()
	rec := postJSON(t, srv, "/api/auth/request-otp", map[string]string{"username": username})
	require.Equal(t, http.StatusOK, rec.Code)
	code := notifier.sent[len(notifier.sent)-1].code

	rec = postJSON(t, srv, "/api/otp/verify", map[string]string{"username": username, "code": code})
	require.Equal(t, http.StatusOK, rec.Code)
}

func postJSON(t *testing.T, srv http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestOTPDeliversToChat(t *testing.T) {
	srv, notifier, _ := newTestServer(t)

	rec := postJSON(t, srv, "/api/auth/request-otp", map[string]string{"username": "budi"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, false, resp["isExisting"])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(42), notifier.sent[0].chatID)
	assert.Len(t, notifier.sent[0].code, 4)
}

func TestRequestOTPUnknownUser(t *testing.T) {
	srv, notifier, _ := newTestServer(t)

	rec := postJSON(t, srv, "/api/auth/request-otp", map[string]string{"username": "siapa"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, notifier.sent)
}

func TestVerifyOTPGrantsSession(t *testing.T) {
	srv, notifier, _ := newTestServer(t)

	rec := postJSON(t, srv, "/api/auth/request-otp", map[string]string{"username": "budi"})
	require.Equal(t, http.StatusOK, rec.Code)
	code := notifier.sent[0].code

	rec = postJSON(t, srv, "/api/otp/verify", map[string]string{"username": "budi", "code": code})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["valid"])
	assert.NotEmpty(t, resp["sessionExpiresAt"])

	// the session now unlocks the state endpoint
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-Username", "budi")
	stateRec := httptest.NewRecorder()
	srv.ServeHTTP(stateRec, req)
	assert.Equal(t, http.StatusOK, stateRec.Code)

	var state stateResponse
	require.NoError(t, json.Unmarshal(stateRec.Body.Bytes(), &state))
	assert.NotEmpty(t, state.Accounts)
	assert.NotEmpty(t, state.Categories)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := postJSON(t, srv, "/api/auth/request-otp", map[string]string{"username": "budi"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, srv, "/api/otp/verify", map[string]string{"username": "budi", "code": "0000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["valid"])
	assert.Equal(t, float64(2), resp["attemptsLeft"])
}

func TestStateWithoutSession(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-Username", "budi")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClearTransactionsEmptiesHistory(t *testing.T) {
	srv, notifier, store := newTestServer(t)
	ctx := context.Background()

	tx := &model.Transaction{
		AccountID: "1",
		Amount:    25_000,
		Type:      model.TypeExpense,
		Category:  "Food",
		Date:      time.Now(),
		Note:      "kopi",
	}
	tx.GenerateID()
	require.NoError(t, store.AddTransaction(ctx, tx))

	login(t, srv, notifier, "budi")

	req := httptest.NewRequest(http.MethodPost, "/api/data/clear-transactions", nil)
	req.Header.Set("X-Username", "budi")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	remaining, err := store.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// accounts survive the wipe
	accounts, err := store.GetAccounts(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, accounts)
}

func TestClearTransactionsWithoutSession(t *testing.T) {
	srv, _, store := newTestServer(t)
	ctx := context.Background()

	tx := &model.Transaction{
		AccountID: "1",
		Amount:    10_000,
		Type:      model.TypeExpense,
		Category:  "Other",
		Date:      time.Now(),
		Note:      "parkir",
	}
	tx.GenerateID()
	require.NoError(t, store.AddTransaction(ctx, tx))

	req := httptest.NewRequest(http.MethodPost, "/api/data/clear-transactions", nil)
	req.Header.Set("X-Username", "budi")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	remaining, err := store.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRequestOTPBurstLimit(t *testing.T) {
	srv, notifier, _ := newTestServer(t)

	// an unexpired code is returned unchanged, so consume each one to mint
	// the next
	for i := 0; i < 3; i++ {
		rec := postJSON(t, srv, "/api/auth/request-otp", map[string]string{"username": "budi"})
		require.Equal(t, http.StatusOK, rec.Code)
		code := notifier.sent[len(notifier.sent)-1].code

		rec = postJSON(t, srv, "/api/otp/verify", map[string]string{"username": "budi", "code": code})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postJSON(t, srv, "/api/auth/request-otp", map[string]string{"username": "budi"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "burst", resp["reason"])
	assert.Greater(t, resp["retryAfterSeconds"], float64(0))
}
