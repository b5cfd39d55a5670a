package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/set-night/bountyhub/internal/domain"
)

type ctxKey string

const (
	AccountKey ctxKey = "account"

	AccountHeader = "X-Account-ID"
	AdminHeader   = "X-Admin-Key"
)

// GetAccount extracts the request's account from context.
func GetAccount(ctx context.Context) *domain.Account {
	acc, ok := ctx.Value(AccountKey).(*domain.Account)
	if !ok {
		return nil
	}
	return acc
}

// AccountID returns 0 when no account was loaded.
func AccountID(ctx context.Context) int64 {
	if acc := GetAccount(ctx); acc != nil {
		return acc.ID
	}
	return 0
}

func WithAccount(ctx context.Context, acc *domain.Account) context.Context {
	return context.WithValue(ctx, AccountKey, acc)
}

type AccountGetter interface {
	Get(ctx context.Context, id int64) (*domain.Account, error)
}

// AccountLoader resolves the X-Account-ID header against the directory on
// every request. Missing or unknown ids are 401; banned accounts are 403.
func AccountLoader(accounts AccountGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(r.Header.Get(AccountHeader), 10, 64)
			if err != nil || id <= 0 {
				writeError(w, http.StatusUnauthorized, "account id required")
				return
			}

			acc, err := accounts.Get(r.Context(), id)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				writeError(w, http.StatusUnauthorized, "unknown account")
				return
			case err != nil:
				slog.Error("load account", "account_id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			case acc.Banned:
				writeError(w, http.StatusForbidden, domain.ErrAccountBanned.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
		})
	}
}

// AdminOnly requires the X-Admin-Key header to match the configured key.
func AdminOnly(cfg interface{ IsAdminKey(string) bool }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.IsAdminKey(r.Header.Get(AdminHeader)) {
				writeError(w, http.StatusForbidden, "admin key required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg}); err != nil {
		slog.Warn("write error response", "error", err)
	}
}
