package testutil

import (
	"context"

	"github.com/flexprice/posbilling/internal/types"
)

// SetupContext returns a context carrying the values request middleware sets
func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
