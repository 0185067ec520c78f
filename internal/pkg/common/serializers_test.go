package common

import (
	"context"
	"testing"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/models"
	dbModels "github.com/Nevi32/wofuo1/internal/pkg/store/models"

	"github.com/stretchr/testify/assert"
)

func TestSerializeMemberEvent_NormalizesNames(t *testing.T) {
	ctx := logger.WithTraceID(context.Background(), "trace-1")
	event := SerializeMemberEvent(ctx, consts.EventMemberRegistered, "clerk@wofuo.org", dbModels.Member{
		FullName:   " jane  doe",
		GroupName:  "group a",
		NationalID: "123",
	})

	assert.Equal(t, consts.EventMemberRegistered, event.Type)
	assert.Equal(t, "JANE DOE", event.MemberName)
	assert.Equal(t, "GROUP A", event.GroupName)
	assert.Equal(t, "123", event.NationalID)
	assert.Equal(t, "trace-1", event.TraceID)
	assert.Equal(t, "clerk@wofuo.org", event.Actor)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestSerializeSavingAndWithdrawalEvents(t *testing.T) {
	ctx := context.Background()
	saving := SerializeSavingEvent(ctx, "", dbModels.Saving{GroupName: "A", MemberName: "B", SavingAmount: 500})
	assert.Equal(t, consts.EventSavingRecorded, saving.Type)
	assert.Equal(t, 500.0, saving.Amount)

	withdrawal := SerializeWithdrawalEvent(ctx, "", dbModels.Withdrawal{GroupName: "A", MemberName: "B", WithdrawAmount: 200})
	assert.Equal(t, consts.EventWithdrawalRecorded, withdrawal.Type)
	assert.Equal(t, 200.0, withdrawal.Amount)
	assert.NotEqual(t, saving.EventID, withdrawal.EventID)
}

func TestSerializeLoanEvent(t *testing.T) {
	loan := dbModels.Loan{ID: 42, Type: consts.LoanKindLongTerm, GroupName: "A", MemberName: "B"}
	event := SerializeLoanEvent(context.Background(), consts.EventPaymentRecorded, "x", loan, 4000)
	assert.Equal(t, int64(42), event.LoanID)
	assert.Equal(t, "long-term", event.LoanKind)
	assert.Equal(t, 4000.0, event.Amount)
}

func TestSerializeSyncReport(t *testing.T) {
	report := models.SyncReport{
		Direction: consts.SyncDirectionPush,
		Collections: []models.CollectionReport{
			{Collection: consts.MembersCollection, Status: models.SyncStatusSuccess},
			{Collection: consts.SavingsCollection, Status: models.SyncStatusPartial},
		},
	}
	msg := SerializeSyncReport(context.Background(), report)
	assert.False(t, msg.Succeeded)
	assert.Equal(t, report, msg.Report)
	assert.NotEmpty(t, msg.MessageID)

	report.Collections[1].Status = models.SyncStatusSuccess
	assert.True(t, SerializeSyncReport(context.Background(), report).Succeeded)
}
