package testutil

import (
	"context"
	"time"

	"forkful/pkg/requestcontext"
)

// FixedNow is the clock value used by Context.
var FixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// Context returns a background context carrying requestID and FixedNow, so
// emitted activity events and outbound headers are deterministic.
func Context(requestID string) context.Context {
	ctx := requestcontext.WithTime(context.Background(), FixedNow)
	if requestID != "" {
		ctx = requestcontext.WithRequestID(ctx, requestID)
	}
	return ctx
}
