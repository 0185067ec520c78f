package interfaces

import (
	"context"

	"github.com/Nevi32/wofuo1/internal/pkg/models"
)

// TopicPublisher sends messages to one Pub/Sub topic.
type TopicPublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
	Stop()
}

// PubSubPublisherClientInterface is the subset of the Pub/Sub client used for publishing.
type PubSubPublisherClientInterface interface {
	Publisher(topic string) TopicPublisher
	Close() error
}

// LedgerEventPublisher publishes ledger mutation events.
type LedgerEventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event models.LedgerEvent) error
}

// SyncReportPublisher publishes the report of a finished push or pull.
type SyncReportPublisher interface {
	PublishSyncReport(ctx context.Context, report models.SyncReport) error
}
