package middleware

import (
	"context"

	"github.com/rgarciadev/atelier-backend/pkg/types"
)

type contextKey string

const ctxOwner contextKey = "owner"

// OwnerFromContext returns the authenticated Owner seeded by the Auth or
// Guest middleware; ok is false when neither ran.
func OwnerFromContext(ctx context.Context) (types.Owner, bool) {
	if ctx == nil {
		return types.Owner{}, false
	}
	owner, ok := ctx.Value(ctxOwner).(types.Owner)
	return owner, ok
}

// WithOwner injects the owner into the context for downstream handlers.
func WithOwner(ctx context.Context, owner types.Owner) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwner, owner)
}
