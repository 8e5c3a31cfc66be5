package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"stockwave/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const UserIDKey contextKey = "user_id"

var (
	ErrTokenMissing = errors.New("missing session token")
	ErrTokenInvalid = errors.New("invalid session token")
)

// TokenFromRequest reads the session token from the auth cookie, falling
// back to an Authorization: Bearer header
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	return ""
}

// Authenticate resolves the user id carried by the request's session token
func Authenticate(r *http.Request, maker *session.Maker) (uuid.UUID, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return uuid.Nil, ErrTokenMissing
	}

	claims, err := maker.Parse(token)
	if err != nil {
		return uuid.Nil, errors.Join(ErrTokenInvalid, err)
	}

	return claims.UserID, nil
}

// AuthMiddleware rejects requests without a valid session with 401 and
// stores the user id in the request context
func AuthMiddleware(maker *session.Maker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := Authenticate(r, maker)
			if err != nil {
				logger.Debug("Authentication failed", zap.Error(err), zap.String("path", r.URL.Path))
				switch {
				case errors.Is(err, ErrTokenMissing):
					RespondWithError(w, CodeUnauthenticated, "not authenticated")
				case errors.Is(err, session.ErrTokenExpired):
					RespondWithError(w, CodeUnauthenticated, "session expired")
				default:
					RespondWithError(w, CodeUnauthenticated, "invalid session")
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the context
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
