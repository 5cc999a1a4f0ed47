// Package opcontext stamps operation-scoped values into the request context:
// the block height, a correlation ID, and the caller identity. The height is
// read once at request start, so every guard inside a single operation
// observes the same block — the serialized, atomic-per-call execution model
// the core assumes.
package opcontext

import (
	"net/http"

	"github.com/google/uuid"

	"pdtoken/internal/platform/chain"
	"pdtoken/pkg/chainctx"
	"pdtoken/pkg/domain"
)

// CallerHeader carries the identity an admin operation runs on behalf of.
const CallerHeader = "X-Caller-Address"

// Middleware returns the stamping middleware for the given clock.
func Middleware(clock chain.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := chainctx.WithHeight(r.Context(), clock.Height())
			ctx = chainctx.WithRequestID(ctx, uuid.NewString())

			if raw := r.Header.Get(CallerHeader); raw != "" {
				caller, err := domain.ParseAddress(raw)
				if err != nil {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte(`{"error":"validation","error_description":"invalid caller address"}`))
					return
				}
				ctx = chainctx.WithCaller(ctx, caller)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
