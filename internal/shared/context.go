package shared

import (
	"context"

	"github.com/userdeck/userdeck/internal/ability"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context.
func ContextWithPrincipal(ctx context.Context, p ability.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (ability.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(ability.Principal)
	return p, ok
}
