package core

import "context"

// Context keys for storage options
type contextKey string

const writerKey contextKey = "writer"

// WithWriter attaches the writer identity used to authorize remote writes.
func WithWriter(ctx context.Context, writer string) context.Context {
	return context.WithValue(ctx, writerKey, writer)
}

// writerFrom returns the writer identity from context, or "" when none is set.
func writerFrom(ctx context.Context) string {
	val := ctx.Value(writerKey)
	if val == nil {
		return "" // default: local-only writes
	}
	writer, _ := val.(string)
	return writer
}
