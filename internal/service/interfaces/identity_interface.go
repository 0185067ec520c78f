package interfaces

import (
	"context"

	"github.com/Nevi32/wofuo1/internal/pkg/models"
)

// IdentityProvider exposes the currently signed-in identity, if any.
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (*models.Identity, bool)
}
