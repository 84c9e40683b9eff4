package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/focusnest/server/internal/apperr"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenValidator turns a bearer token into the user ID it was minted for.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// AuthMiddleware validates the bearer token and attaches the user ID to the
// request context. Loading the user is left to handlers.
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, "Not authorized, no token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, "Not authorized, no token")
				return
			}

			userID, err := tokens.Validate(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, apperr.KindUnauthorized, "Not authorized, token failed")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}

// WithUserID returns a copy of ctx carrying userID, as AuthMiddleware does.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// writeError sends a JSON error body in the same shape handlers use
func writeError(w http.ResponseWriter, statusCode int, kind apperr.Kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": string(kind), "message": message})
}
