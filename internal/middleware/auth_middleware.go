package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"okeears-server/internal/session"
	"okeears-server/pkg/jwt"
	"okeears-server/pkg/response"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware accepts app JWTs whose session still exists. The session id
// goes into the request context so Graph calls use that session's token.
func AuthMiddleware(jwtSecret string, sessions session.Lookuper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwt.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			if _, err := sessions.Lookup(r.Context(), claims.SessionID); err != nil {
				if errors.Is(err, session.ErrSessionNotFound) {
					response.Unauthorized(w, "Session expired")
					return
				}
				response.InternalError(w, "Failed to load session")
				return
			}

			setLoggedUser(r.Context(), claims.UserID)

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = session.WithID(ctx, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
