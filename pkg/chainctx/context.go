// Package chainctx provides transport-independent context accessors for
// chain-scoped values: the block height an operation executes at and the
// caller identity on whose behalf it runs.
//
// The block height is stamped once per request by middleware, so every guard
// inside a single operation observes the same height. Services read it via
// Height and fall back to their wired clock when unset (workers, CLI, tests).
//
// Usage in services (read values):
//
//	height, ok := chainctx.Height(ctx)
//	caller := chainctx.Caller(ctx)
//
// Usage in middleware (set values):
//
//	ctx = chainctx.WithHeight(ctx, clock.Height())
//	ctx = chainctx.WithCaller(ctx, addr)
//
// Usage in tests (inject values):
//
//	ctx = chainctx.WithHeight(ctx, 42)
package chainctx

import (
	"context"

	"pdtoken/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	heightKey    struct{}
	callerKey    struct{}
	requestIDKey struct{}
)

// Height retrieves the operation-scoped block height from the context.
// The second return is false when no height has been stamped.
func Height(ctx context.Context) (uint64, bool) {
	if h, ok := ctx.Value(heightKey{}).(uint64); ok {
		return h, true
	}
	return 0, false
}

// WithHeight stamps a block height into the context.
func WithHeight(ctx context.Context, height uint64) context.Context {
	return context.WithValue(ctx, heightKey{}, height)
}

// Caller retrieves the caller identity from the context. Returns the zero
// address when not set.
func Caller(ctx context.Context) domain.Address {
	if a, ok := ctx.Value(callerKey{}).(domain.Address); ok {
		return a
	}
	return domain.ZeroAddress
}

// WithCaller injects a caller identity into the context.
func WithCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// RequestID retrieves the correlation ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
