package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/derstap/backend/internal/auth"
	"github.com/derstap/backend/internal/domain"
	"github.com/derstap/backend/internal/repository"
)

type identityKey struct{}

// invalidTokenMessage is deliberately the same for a malformed token, an
// expired token, and a token whose account no longer exists, so a caller
// cannot probe which accounts are live.
const invalidTokenMessage = "invalid or expired token"

// requireAuth resolves the bearer token to a live account and stores it in
// the request context. The credential hash never travels past this point.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, invalidTokenMessage)
			return
		}

		user, err := s.repo.Users.GetByID(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, invalidTokenMessage)
				return
			}
			s.logger.Printf("auth: load user %s: %v", claims.Subject, err)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), identityKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize gates a route on a role-based action. Ownership-sensitive checks
// stay in the handlers, where the resource is known.
func (s *Server) authorize(action auth.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identityFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, invalidTokenMessage)
				return
			}
			if !auth.Allowed(identity, action, auth.Resource{}) {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(identityKey{}).(domain.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
