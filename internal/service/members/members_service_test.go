package members

import (
	"context"
	"testing"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	pkgmodels "github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/store/repository"
	"github.com/Nevi32/wofuo1/internal/service/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []pkgmodels.LedgerEvent
}

func (r *recordingPublisher) PublishLedgerEvent(ctx context.Context, event pkgmodels.LedgerEvent) error {
	r.events = append(r.events, event)
	return nil
}

func newTestService(t *testing.T) (*MemberService, *local.Store, *recordingPublisher) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := local.NewStore(repository.NewRedisBlobRepository(client, consts.DefaultSnapshotKey))
	require.NoError(t, store.Init(context.Background()))
	pub := &recordingPublisher{}
	return NewMemberService(store, events.NewLedgerEventService(pub)), store, pub
}

func TestAdd_NormalizesAndPublishes(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := common.WithIdentity(context.Background(), &pkgmodels.Identity{Email: "clerk@wofuo.org"})

	member, err := svc.Add(ctx, models.Member{FullName: " jane   doe ", NationalID: "123", GroupName: "group a"})
	require.NoError(t, err)
	assert.Equal(t, "JANE DOE", member.FullName)
	assert.Equal(t, "GROUP A", member.GroupName)
	assert.Equal(t, defaultMemberStatus, member.MemberStatus)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, member, list[0])

	require.Len(t, pub.events, 1)
	assert.Equal(t, consts.EventMemberRegistered, pub.events[0].Type)
	assert.Equal(t, "clerk@wofuo.org", pub.events[0].Actor)
}

func TestAdd_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, models.Member{FullName: "JANE"})
	assert.True(t, error_handling.IsValidation(err))

	_, err = svc.Add(ctx, models.Member{FullName: "JANE", NationalID: "1", RegistrationFee: -5})
	assert.True(t, error_handling.IsValidation(err))

	_, err = svc.Add(ctx, models.Member{FullName: "JANE", NationalID: "1"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, models.Member{FullName: "JOHN", NationalID: "1"})
	assert.True(t, error_handling.IsValidation(err))
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, models.Member{FullName: "JANE", NationalID: "123", GroupName: "GROUP A"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, models.Member{FullName: "JANE", NationalID: "123", GroupName: "GROUP A", PhoneNumber: "0700"})
	require.NoError(t, err)
	got, err := svc.Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "0700", got.PhoneNumber)

	_, err = svc.Update(ctx, models.Member{FullName: "X", NationalID: "999"})
	assert.True(t, error_handling.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, "123"))
	_, err = svc.Get(ctx, "123")
	assert.True(t, error_handling.IsNotFound(err))
	assert.True(t, error_handling.IsNotFound(svc.Delete(ctx, "123")))
}

func TestFindByName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, models.Member{FullName: "Jane Doe", NationalID: "123", GroupName: "Group A"})
	require.NoError(t, err)

	m, err := svc.FindByName(ctx, "group a", "JANE  doe")
	require.NoError(t, err)
	assert.Equal(t, "123", m.NationalID)

	_, err = svc.FindByName(ctx, "group b", "jane doe")
	assert.True(t, error_handling.IsNotFound(err))
}

func TestListGroups(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	for _, m := range []models.Member{
		{FullName: "B", NationalID: "1", GroupName: "beta"},
		{FullName: "A", NationalID: "2", GroupName: "alpha"},
		{FullName: "C", NationalID: "3", GroupName: "Beta", MemberStatus: "Dormant"},
		{FullName: "D", NationalID: "4"},
	} {
		_, err := svc.Add(ctx, m)
		require.NoError(t, err)
	}

	groups, err := svc.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "ALPHA", groups[0].Name)
	assert.Equal(t, "BETA", groups[1].Name)
	assert.Equal(t, 2, groups[1].MemberCount)
	assert.Equal(t, models.GroupMemberStatus{Name: "C", Status: "Dormant"}, groups[1].Members[1])
	assert.Equal(t, consts.UnassignedGroupName, groups[2].Name)
}

func TestRenameGroup_AcrossCollections(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Mutate(ctx, func(snap *models.Snapshot) error {
		snap.Members = []models.Member{{FullName: "JANE", NationalID: "1", GroupName: "OLD"}}
		snap.Savings = []models.Saving{{ID: "s1", GroupName: "OLD", MemberName: "JANE", SavingAmount: 100}}
		snap.TotalSavings = []models.TotalSaving{
			{GroupName: "OLD", MemberName: "JANE", TotalAmount: 100},
			{GroupName: "NEW", MemberName: "JANE", TotalAmount: 50},
		}
		snap.LongTermLoans = []models.Loan{{ID: 7, GroupName: "OLD", MemberName: "JANE", Name: "OLD - JANE"}}
		snap.ContinuingPayments = []models.ContinuingPayment{{ID: 8, LoanID: 7, GroupName: "OLD"}}
		snap.Visits = []models.Visit{{ID: "v1", GroupName: "OLD", VisitDate: "2024-01-01"}}
		return nil
	}))

	changed, err := svc.RenameGroup(ctx, "old", "new")
	require.NoError(t, err)
	assert.Equal(t, 6, changed)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NEW", snap.Members[0].GroupName)
	assert.Equal(t, "NEW", snap.Savings[0].GroupName)
	assert.Equal(t, "NEW - JANE", snap.LongTermLoans[0].Name)
	assert.Equal(t, "NEW", snap.ContinuingPayments[0].GroupName)
	assert.Equal(t, "NEW", snap.Visits[0].GroupName)
	require.Len(t, snap.TotalSavings, 1)
	assert.Equal(t, 150.0, snap.TotalSavings[0].TotalAmount)
}

func TestRenameGroup_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RenameGroup(ctx, "missing", "other")
	assert.True(t, error_handling.IsNotFound(err))

	_, err = svc.RenameGroup(ctx, "a", "  ")
	assert.True(t, error_handling.IsValidation(err))

	changed, err := svc.RenameGroup(ctx, "same", "SAME")
	require.NoError(t, err)
	assert.Zero(t, changed)
}
