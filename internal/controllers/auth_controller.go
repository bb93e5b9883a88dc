package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/RealZimboGuy/flowlint/internal/util"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
)

// UserRepo is the lookup side of user persistence needed for authentication.
type UserRepo interface {
	FindByApiKey(ctx context.Context, apiKey string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

type AuthController struct {
	UserRepo    UserRepo
	AuthEnabled bool
}

func NewBaseController(userRepo UserRepo, authEnabled bool) *AuthController {
	return &AuthController{UserRepo: userRepo, AuthEnabled: authEnabled}
}

func (wc *AuthController) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !wc.AuthEnabled {
			next(w, r)
			return
		}
		// 1) Try API key from headers
		// Supported headers: X-API-Key: <key>
		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			u, err := wc.UserRepo.FindByApiKey(r.Context(), apiKey)
			if err != nil {
				slog.ErrorContext(r.Context(), "Failed to look up api key", "error", err)
				util.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			if isActive(u) {
				next(w, withUsername(r, u.Username))
				return
			}
			unauthorized(w)
			return
		}
		// 2) Try HTTP basic auth against the bcrypt password hash
		if username, password, ok := r.BasicAuth(); ok {
			u, err := wc.UserRepo.FindByUsername(r.Context(), username)
			if err != nil {
				slog.ErrorContext(r.Context(), "Failed to look up user", "error", err)
				util.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			if isActive(u) && bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil {
				next(w, withUsername(r, u.Username))
				return
			}
		}
		unauthorized(w)
	}
}

func isActive(u *domain.User) bool {
	return u != nil && (!u.Enabled.Valid || u.Enabled.Bool)
}

func withUsername(r *http.Request, username string) *http.Request {
	ctx := context.WithValue(r.Context(), core.CtxKeyUsername, username)
	return r.WithContext(ctx)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="flowlint"`)
	util.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
}
