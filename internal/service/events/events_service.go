package events

import (
	"context"

	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/service/interfaces"

	"go.uber.org/zap"
)

// LedgerEventService forwards ledger mutations to the event stream. Publishing
// is best effort: the ledger write has already been persisted, so a failure is
// logged and never returned to the caller.
type LedgerEventService struct {
	Publisher interfaces.LedgerEventPublisher
}

func NewLedgerEventService(publisher interfaces.LedgerEventPublisher) *LedgerEventService {
	return &LedgerEventService{Publisher: publisher}
}

// Emit publishes event. A nil service or publisher drops it silently.
func (s *LedgerEventService) Emit(ctx context.Context, event models.LedgerEvent) {
	if s == nil || s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishLedgerEvent(ctx, event); err != nil {
		logger.CtxError(ctx, log_messages.LedgerEventPublishFailed, err,
			zap.String("event_type", event.Type),
			zap.String("group", event.GroupName),
		)
		return
	}
	logger.CtxDebug(ctx, "Published ledger event", zap.String("event_type", event.Type))
}
