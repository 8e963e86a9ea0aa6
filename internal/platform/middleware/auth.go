package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"forkful/pkg/requestcontext"
)

// TokenValidator checks a bearer token and returns the user it was issued to.
type TokenValidator interface {
	ValidateAccessToken(token string) (userID int, err error)
}

type contextKeyUserID struct{}

// UserID returns the authenticated user stored by RequireAuth, or 0.
func UserID(ctx context.Context) int {
	id, _ := ctx.Value(contextKeyUserID{}).(int)
	return id
}

// WithUserID injects an authenticated user into ctx. Useful for handler
// tests that skip RequireAuth.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, contextKeyUserID{}, userID)
}

// RequireAuth rejects requests without a valid bearer token with 401 and a
// {"detail": ...} body, the shape the client reads its message from.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Authentication credentials were not provided.")
				return
			}
			userID, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				writeUnauthorized(w, "Given token not valid for any token type")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(ctx, userID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"` + detail + `","code":"token_not_valid"}`))
}
