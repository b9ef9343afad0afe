package core

import "context"

// Context keys for fetch options
type contextKey string

const (
	quietKey contextKey = "quiet"
)

// WithQuiet marks a context whose run must not write progress or summaries.
// The MCP server uses it because stdout carries the protocol.
func WithQuiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey, true)
}

// IsQuiet returns whether console output should be suppressed from context
func IsQuiet(ctx context.Context) bool {
	val := ctx.Value(quietKey)
	if val == nil {
		return false // default: print progress
	}
	quiet, ok := val.(bool)
	return ok && quiet
}
