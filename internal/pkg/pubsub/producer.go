package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/service/interfaces"

	"cloud.google.com/go/pubsub/v2"
	"go.uber.org/zap"
)

var errPublisherClosed = errors.New("pubsub publisher is closed")

// ClientFactory opens the underlying Pub/Sub client.
type ClientFactory func(ctx context.Context, projectID string) (interfaces.PubSubPublisherClientInterface, error)

func newSDKClient(ctx context.Context, projectID string) (interfaces.PubSubPublisherClientInterface, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &sdkClient{client: client}, nil
}

type sdkClient struct {
	client *pubsub.Client
}

func (c *sdkClient) Publisher(topic string) interfaces.TopicPublisher {
	return &sdkTopic{publisher: c.client.Publisher(topic)}
}

func (c *sdkClient) Close() error {
	return c.client.Close()
}

type sdkTopic struct {
	publisher *pubsub.Publisher
}

func (t *sdkTopic) Publish(ctx context.Context, data []byte, attributes map[string]string) error {
	result := t.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	_, err := result.Get(ctx)
	return err
}

func (t *sdkTopic) Stop() {
	t.publisher.Stop()
}

// PubSubPublisher keeps one topic publisher per topic so batching settings
// and connections are reused across calls.
type PubSubPublisher struct {
	client interfaces.PubSubPublisherClientInterface

	mu     sync.Mutex
	topics map[string]interfaces.TopicPublisher
	closed bool
}

// NewPubSubPublisher is the production constructor; tests replace it.
var NewPubSubPublisher = func(ctx context.Context, projectID string) (*PubSubPublisher, error) {
	return NewPubSubPublisherWithFactory(ctx, projectID, newSDKClient)
}

func NewPubSubPublisherWithFactory(ctx context.Context, projectID string, factory ClientFactory) (*PubSubPublisher, error) {
	client, err := factory(ctx, projectID)
	if err != nil {
		logger.CtxError(ctx, "Failed creating PubSub client", err, zap.String("project_id", projectID))
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	logger.CtxInfo(ctx, log_messages.PubsubPublisherCreated, zap.String("project_id", projectID))
	return &PubSubPublisher{client: client, topics: make(map[string]interfaces.TopicPublisher)}, nil
}

func (p *PubSubPublisher) topic(name string) (interfaces.TopicPublisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errPublisherClosed
	}
	t, ok := p.topics[name]
	if !ok {
		t = p.client.Publisher(name)
		p.topics[name] = t
	}
	return t, nil
}

// Publish sends data to topic and waits for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, data []byte, attributes map[string]string) error {
	t, err := p.topic(topic)
	if err != nil {
		return err
	}
	return t.Publish(ctx, data, attributes)
}

// Close flushes and stops every topic publisher, then closes the client.
func (p *PubSubPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, t := range p.topics {
		t.Stop()
	}
	return p.client.Close()
}

// SyncReportPublisher announces finished sync runs on the sync topic.
type SyncReportPublisher struct {
	publisher *PubSubPublisher
	topic     string
}

func NewSyncReportPublisher(publisher *PubSubPublisher, topic string) *SyncReportPublisher {
	return &SyncReportPublisher{publisher: publisher, topic: topic}
}

func (s *SyncReportPublisher) PublishSyncReport(ctx context.Context, report models.SyncReport) error {
	message := common.SerializeSyncReport(ctx, report)
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal sync report: %w", err)
	}
	attributes := map[string]string{
		"direction": report.Direction,
		"succeeded": fmt.Sprint(message.Succeeded),
	}
	if report.GroupName != "" {
		attributes["groupName"] = report.GroupName
	}
	if err := s.publisher.Publish(ctx, s.topic, payload, attributes); err != nil {
		logger.CtxError(ctx, log_messages.SyncReportPublishFailed, err,
			zap.String("topic", s.topic),
			zap.String("direction", report.Direction),
		)
		return err
	}
	return nil
}
