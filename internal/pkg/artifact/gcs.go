package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	artifactCollection  = "artifacts"
	commitMessageHeader = "commit-message"
)

// GCSArtifactStore keeps each artifact as one object in a bucket.
type GCSArtifactStore struct {
	Client     *storage.Client
	BucketName string
}

func NewGCSArtifactStore(ctx context.Context, cfg config.GCSConfig, opts ...option.ClientOption) (*GCSArtifactStore, error) {
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &GCSArtifactStore{Client: client, BucketName: cfg.BucketName}, nil
}

func (g *GCSArtifactStore) Close(ctx context.Context) {
	if g.Client == nil {
		return
	}
	if err := g.Client.Close(); err != nil {
		logger.CtxError(ctx, log_messages.ErrorClosingGCSClient, err)
	}
}

// GetFile downloads the object at path. A missing object is a NotFoundError.
func (g *GCSArtifactStore) GetFile(ctx context.Context, path string) ([]byte, error) {
	reader, err := g.Client.Bucket(g.BucketName).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, error_handling.NewNotFoundError(artifactCollection, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gcs object %q: %w", path, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gcs object %q: %w", path, err)
	}
	return data, nil
}

// PutFile overwrites the object at path, recording commitMessage as object metadata.
func (g *GCSArtifactStore) PutFile(ctx context.Context, path string, data []byte, commitMessage string) error {
	writer := g.Client.Bucket(g.BucketName).Object(path).NewWriter(ctx)
	writer.ContentType = "text/plain"
	writer.Metadata = map[string]string{commitMessageHeader: commitMessage}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		logger.CtxError(ctx, log_messages.ErrorUploadingArtifact, err, zap.String("object", path))
		return err
	}
	if err := writer.Close(); err != nil {
		logger.CtxError(ctx, log_messages.ErrorClosingGCSWriter, err, zap.String("object", path))
		return err
	}
	logger.CtxInfo(ctx, log_messages.ArtifactUploaded,
		zap.String("backend", "gcs"),
		zap.String("bucket", g.BucketName),
		zap.String("object", path),
		zap.Int("bytes", len(data)),
	)
	return nil
}
