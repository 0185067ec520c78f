package interfaces

import "context"

// ArtifactStore holds whole-snapshot artifacts addressed by path.
type ArtifactStore interface {
	GetFile(ctx context.Context, path string) ([]byte, error)
	PutFile(ctx context.Context, path string, data []byte, commitMessage string) error
}
