// Package server exposes the web login API: OTP request, OTP verification,
// and a session-gated snapshot of the finance state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dompetdev/dompetbot/internal/auth"
	"github.com/dompetdev/dompetbot/internal/model"
	"github.com/dompetdev/dompetbot/internal/repository"
	"github.com/dompetdev/dompetbot/internal/service"
)

// OTPNotifier delivers an issued code to its chat. The Telegram bot
// implements this.
type OTPNotifier interface {
	SendOTP(chatID int64, code string, expiresAt time.Time, isExisting bool) error
}

// WebhookHandler processes a raw Telegram webhook body.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, body []byte) error
}

type Server struct {
	auth    *auth.Service
	svc     *service.Finance
	store   repository.Store
	notify  OTPNotifier
	webhook WebhookHandler
	mux     *http.ServeMux
}

func New(authSvc *auth.Service, svc *service.Finance, store repository.Store, notify OTPNotifier, webhook WebhookHandler) *Server {
	s := &Server{
		auth:    authSvc,
		svc:     svc,
		store:   store,
		notify:  notify,
		webhook: webhook,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/auth/request-otp", s.handleRequestOTP)
	s.mux.HandleFunc("/api/otp/verify", s.handleVerifyOTP)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/api/data/clear-transactions", s.handleClearTransactions)
	if webhook != nil {
		s.mux.HandleFunc("/api/telegram/webhook", s.handleWebhook)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks until the listener fails or ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("server: listening on %s", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type otpRequest struct {
	Username string `json:"username"`
	Code     string `json:"code,omitempty"`
}

// chatIDFor resolves a Telegram username to the chat id recorded by the
// bot. A user who never messaged the bot cannot log in.
func (s *Server) chatIDFor(ctx context.Context, username string) (int64, error) {
	return s.store.ChatIDByUsername(ctx, username)
}

func (s *Server) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	ctx := r.Context()
	chatID, err := s.chatIDFor(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown user; open the Telegram bot first")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result, err := s.auth.Issue(ctx, chatID)
	var limited *auth.RateLimitError
	if errors.As(err, &limited) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             "rate limited",
			"reason":            limited.Reason,
			"retryAfterSeconds": int(limited.RetryAfter.Seconds()),
			"remainingDaily":    limited.RemainingDaily,
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.notify.SendOTP(chatID, result.Code, result.ExpiresAt, result.IsExisting); err != nil {
		log.Printf("server: deliver otp: %v", err)
		writeError(w, http.StatusBadGateway, "could not deliver the code to Telegram")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"isExisting":       result.IsExisting,
		"expiresAt":        result.ExpiresAt.UTC().Format(time.RFC3339),
		"expiresInSeconds": int(time.Until(result.ExpiresAt).Seconds()),
		"remainingDaily":   result.RemainingDaily,
	})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "username and code are required")
		return
	}

	ctx := r.Context()
	chatID, err := s.chatIDFor(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown user")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result, err := s.auth.Verify(ctx, chatID, req.Code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch result.Status {
	case auth.VerifyOK:
		until, err := s.auth.StartSession(ctx, chatID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"valid":            true,
			"sessionExpiresAt": until.UTC().Format(time.RFC3339),
		})
	case auth.VerifyWrongCode:
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"valid":        false,
			"error":        "wrong code",
			"attemptsLeft": result.AttemptsLeft,
		})
	case auth.VerifyExpired:
		writeJSON(w, http.StatusUnauthorized, map[string]any{"valid": false, "error": "code expired"})
	case auth.VerifyTooManyAttempts:
		writeJSON(w, http.StatusUnauthorized, map[string]any{"valid": false, "error": "too many attempts"})
	default:
		writeJSON(w, http.StatusUnauthorized, map[string]any{"valid": false, "error": "no active code"})
	}
}

type stateResponse struct {
	Accounts     []model.Account     `json:"accounts"`
	Transactions []model.Transaction `json:"transactions"`
	Goals        []model.Goal        `json:"goals"`
	Budgets      []model.Budget      `json:"budgets"`
	Categories   []model.Category    `json:"categories"`
}

// handleState returns the full finance snapshot for an authenticated
// session. Identity rides on the X-Username header.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	username := r.Header.Get("X-Username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "X-Username header is required")
		return
	}

	ctx := r.Context()
	chatID, err := s.chatIDFor(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	ok, err := s.auth.IsAuthenticated(ctx, chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	accounts, _, err := s.svc.Accounts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	transactions, err := s.svc.RecentTransactions(ctx, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	goals, err := s.svc.Goals(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	budgets, err := s.svc.Budgets(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	categories, err := s.svc.Categories(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{
		Accounts:     accounts,
		Transactions: transactions,
		Goals:        goals,
		Budgets:      budgets,
		Categories:   categories,
	})
}

// handleClearTransactions empties the transaction history for an
// authenticated session. Account balances are left untouched.
func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	username := r.Header.Get("X-Username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "X-Username header is required")
		return
	}

	ctx := r.Context()
	chatID, err := s.chatIDFor(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	ok, err := s.auth.IsAuthenticated(ctx, chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := s.svc.ClearTransactions(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	if err := s.webhook.HandleWebhook(r.Context(), body); err != nil {
		writeError(w, http.StatusBadRequest, "bad update")
		return
	}
	w.WriteHeader(http.StatusOK)
}
