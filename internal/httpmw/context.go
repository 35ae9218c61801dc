// Package httpmw holds small echo middleware shared by the control plane.
package httpmw

import "context"

type contextKey string

// RequestIDKey is the context key for a per-request correlation id, used to
// tie together the job record, the run logfile, and the streamed events for
// one HTTP-triggered action.
const RequestIDKey contextKey = "request_id"

// WithRequestID returns a new context carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID extracts the request id set by WithRequestID.
func GetRequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(RequestIDKey).(string)
	return v, ok
}
