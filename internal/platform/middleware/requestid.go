package middleware

import (
	"net/http"
	"time"

	"forkful/pkg/requestcontext"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// RequestID adopts the caller's X-Request-ID, or mints one, and stores it in
// the request context alongside the request start time.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(RequestIDHeader); id != "" {
			ctx = requestcontext.WithRequestID(ctx, id)
		}
		ctx, id := requestcontext.EnsureRequestID(ctx)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
