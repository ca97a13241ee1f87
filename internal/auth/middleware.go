package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the userID value.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes. It accepts the
// JWT either as an "Authorization: Bearer <token>" header (API clients) or
// as the "token" HttpOnly cookie set by the OAuth callback (browsers).
// Missing or invalid credentials end the request with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return "", errors.New("auth: malformed Authorization header")
		}
		return tokens.Validate(token)
	}

	cookie, err := r.Cookie("token")
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
