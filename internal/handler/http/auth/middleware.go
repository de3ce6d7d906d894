package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"feed-scraper/internal/handler/http/respond"
	"feed-scraper/internal/observability/logging"
)

type ctxKey string

const ctxUser ctxKey = "user"

// UserFromContext returns the token subject set by Authz.
func UserFromContext(ctx context.Context) string {
	if u, ok := ctx.Value(ctxUser).(string); ok {
		return u
	}
	return ""
}

// Authz requires a valid admin token on every non-public endpoint,
// regardless of the HTTP method.
func Authz(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := fromHeader(secret, r.Header.Get("Authorization"))
			if err != nil {
				result := "invalid"
				if errors.Is(err, ErrMissingToken) {
					result = "missing"
				}
				recordAuth(result)
				logging.FromContext(r.Context()).Warn("unauthorized request",
					slog.String("path", r.URL.Path),
					slog.String("reason", result))
				respond.Error(w, http.StatusUnauthorized, errors.New("unauthorized"))
				return
			}
			if claims.Role != RoleAdmin {
				recordAuth("forbidden")
				respond.Error(w, http.StatusForbidden, errors.New("forbidden"))
				return
			}

			recordAuth("success")
			ctx := context.WithValue(r.Context(), ctxUser, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func fromHeader(secret []byte, header string) (*Claims, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, ErrMissingToken
	}
	tokenString := strings.TrimSpace(header[len(prefix):])
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	return ParseToken(secret, tokenString)
}
