package testutil

import (
	"context"
	"net/http"
	"time"

	"fleetbook/pkg/requestcontext"
)

// WithRequestTime pins the request's observed time. Handlers resolve "now"
// from the context, so tests can book windows relative to a fixed clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), now)
	return req.WithContext(ctx)
}

// WithRequestID adds a request id to the request context, simulating what the
// platform middleware would do.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}

// WithSubject marks the request as authenticated for the given service
// subject, bypassing token verification.
func WithSubject(req *http.Request, subject string) *http.Request {
	ctx := requestcontext.WithSubject(req.Context(), subject)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
