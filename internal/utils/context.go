package utils

import "context"

type ctxKey string

const requestIDKey ctxKey = "requestID"

// SetRequestID attaches a request id to the context
func SetRequestID(ctx context.Context, rqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, rqID)
}

// GetRequestIDFromCtx returns the request id, or "" when none was attached
func GetRequestIDFromCtx(ctx context.Context) string {
	if rqID, ok := ctx.Value(requestIDKey).(string); ok {
		return rqID
	}
	return ""
}
