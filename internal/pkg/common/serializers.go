package common

import (
	"context"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/models"
	dbModels "github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"

	"github.com/google/uuid"
)

func newEvent(ctx context.Context, eventType string, actor string) models.LedgerEvent {
	return models.LedgerEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		Actor:      actor,
		TraceID:    logger.GetTraceID(ctx),
		OccurredAt: time.Now().UTC(),
	}
}

func SerializeMemberEvent(ctx context.Context, eventType, actor string, member dbModels.Member) models.LedgerEvent {
	event := newEvent(ctx, eventType, actor)
	event.GroupName = utils.NormalizeName(member.GroupName)
	event.MemberName = utils.NormalizeName(member.FullName)
	event.NationalID = member.NationalID
	return event
}

func SerializeSavingEvent(ctx context.Context, actor string, saving dbModels.Saving) models.LedgerEvent {
	event := newEvent(ctx, consts.EventSavingRecorded, actor)
	event.GroupName = saving.GroupName
	event.MemberName = saving.MemberName
	event.Amount = saving.SavingAmount
	return event
}

func SerializeWithdrawalEvent(ctx context.Context, actor string, withdrawal dbModels.Withdrawal) models.LedgerEvent {
	event := newEvent(ctx, consts.EventWithdrawalRecorded, actor)
	event.GroupName = withdrawal.GroupName
	event.MemberName = withdrawal.MemberName
	event.Amount = withdrawal.WithdrawAmount
	return event
}

func SerializeLoanEvent(ctx context.Context, eventType, actor string, loan dbModels.Loan, amount float64) models.LedgerEvent {
	event := newEvent(ctx, eventType, actor)
	event.GroupName = loan.GroupName
	event.MemberName = loan.MemberName
	event.LoanID = loan.ID
	event.LoanKind = string(loan.Type)
	event.Amount = amount
	return event
}

func SerializeGroupEvent(ctx context.Context, eventType, actor, groupName string) models.LedgerEvent {
	event := newEvent(ctx, eventType, actor)
	event.GroupName = utils.NormalizeName(groupName)
	return event
}

func SerializeSyncReport(ctx context.Context, report models.SyncReport) models.SyncReportMessage {
	return models.SyncReportMessage{
		MessageID:   uuid.NewString(),
		TraceID:     logger.GetTraceID(ctx),
		PublishedAt: time.Now().UTC(),
		Succeeded:   report.Succeeded(),
		Report:      report,
	}
}
