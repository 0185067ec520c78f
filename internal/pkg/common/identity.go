package common

import (
	"context"

	"github.com/Nevi32/wofuo1/internal/pkg/models"
)

type identityKey struct{}

// WithIdentity returns a context carrying the signed-in identity.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity placed by WithIdentity, if any.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*models.Identity)
	if !ok || identity == nil || identity.Email == "" {
		return nil, false
	}
	return identity, true
}

// ContextIdentityProvider reads the identity the auth middleware put on the
// request context.
type ContextIdentityProvider struct{}

func (ContextIdentityProvider) CurrentIdentity(ctx context.Context) (*models.Identity, bool) {
	return IdentityFromContext(ctx)
}

// Actor names the identity on ctx for event attribution.
func Actor(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.Email
	}
	return ""
}
