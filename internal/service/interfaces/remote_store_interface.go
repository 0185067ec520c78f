package interfaces

import (
	"context"

	"github.com/Nevi32/wofuo1/internal/pkg/models"
)

// RemoteCollectionStore is the document store the sync engine reconciles
// against. Filters are exact-match field equality.
type RemoteCollectionStore interface {
	Query(ctx context.Context, collection string, filters map[string]interface{}) ([]models.RemoteDocument, error)
	Insert(ctx context.Context, collection string, fields map[string]interface{}) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}
