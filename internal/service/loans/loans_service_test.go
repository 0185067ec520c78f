package loans

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	pkgmodels "github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/store/repository"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
	"github.com/Nevi32/wofuo1/internal/service/events"

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

func newTestService(t *testing.T) (*LoanService, *local.Store, *recordingPublisher) {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	repo, err := repository.NewSQLiteBlobRepository(db, consts.DefaultSnapshotKey)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	store := local.NewStore(repo)
	require.NoError(t, store.Init(context.Background()))
	pub := &recordingPublisher{}
	svc := NewLoanService(store, events.NewLedgerEventService(pub), utils.NewIDGenerator())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return svc, store, pub
}

func longTermRequest() LoanRequest {
	return LoanRequest{
		GroupName:   "group a",
		MemberName:  "jane",
		Amount:      10000,
		Term:        12,
		Interest:    700,
		DateIssued:  "2024-01-01",
		DateToRepay: "2025-01-01",
		Guarantors:  []models.Guarantor{{Name: "john", Group: "group a"}},
	}
}

func TestLoanLifecycle(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	loan, err := svc.RecordLongTermLoan(ctx, longTermRequest())
	require.NoError(t, err)
	assert.Equal(t, 10700.0, loan.AmountToRepay)
	assert.Equal(t, consts.LoanStatusApproved, loan.Status)
	assert.Equal(t, consts.LoanKindLongTerm, loan.Type)
	assert.Equal(t, "GROUP A - JANE", loan.Name)
	assert.Equal(t, "JOHN", loan.Guarantors[0].Name)

	_, err = svc.RecordContinuingPayment(ctx, loan.ID, 4000, "2024-02-01")
	require.NoError(t, err)
	summary, err := svc.GetLoanSummary(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, summary.TotalRepaid)
	assert.Equal(t, 6700.0, summary.RemainingBalance)

	_, err = svc.RecordContinuingPayment(ctx, loan.ID, 6700, "2024-03-01")
	require.NoError(t, err)
	summary, err = svc.GetLoanSummary(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.RemainingBalance)
	assert.Equal(t, 0.0, summary.AmountToRepay)

	repaid, err := svc.GetFullyRepaidLoans(ctx)
	require.NoError(t, err)
	require.Len(t, repaid, 1)
	assert.Equal(t, loan.ID, repaid[0].ID)

	active, err := svc.GetActiveLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	payments, err := svc.FetchContinuingPayments(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "GROUP A", payments[0].GroupName)

	types := []string{}
	for _, e := range pub.events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{consts.EventLoanRecorded, consts.EventPaymentRecorded, consts.EventPaymentRecorded}, types)
}

func TestRemainingBalanceMonotonic(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	loan, err := svc.RecordShortTermLoan(ctx, LoanRequest{GroupName: "G", MemberName: "M", Amount: 1000, Interest: 100})
	require.NoError(t, err)

	previous := 1100.0
	for _, amount := range []float64{100, 250, 0.5, 600, 400, 50} {
		_, err := svc.RecordContinuingPayment(ctx, loan.ID, amount, "")
		require.NoError(t, err)
		summary, err := svc.GetLoanSummary(ctx, loan.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, summary.RemainingBalance, previous)
		assert.GreaterOrEqual(t, summary.RemainingBalance, 0.0)
		assert.GreaterOrEqual(t, summary.AmountToRepay, 0.0)
		previous = summary.RemainingBalance
	}
	assert.Equal(t, 0.0, previous)
}

func TestDefaulterRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	loan, err := svc.RecordGroupLoan(ctx, LoanRequest{GroupName: "GROUP A", MemberName: "ignored", Amount: 5000, Interest: 500})
	require.NoError(t, err)
	assert.Empty(t, loan.MemberName)
	assert.Equal(t, "GROUP A", loan.Name)

	defaulter, err := svc.RecordDefaulter(ctx, loan.ID, "missed 2 payments", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", defaulter.Date)

	got, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.LoanStatusDefaulted, got.Status)
	info, err := svc.FetchDefaulterInfo(ctx, loan.ID)
	require.NoError(t, err)
	assert.Len(t, info, 1)

	defaulted, err := svc.GetDefaultedLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, defaulted, 1)

	require.NoError(t, svc.RemoveDefaulterStatus(ctx, loan.ID, defaulter.ID))
	got, err = svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.LoanStatusApproved, got.Status)
	info, err = svc.FetchDefaulterInfo(ctx, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, info)
}

func TestDefaultedWhileAnyDefaulterRemains(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	loan, err := svc.RecordGroupLoan(ctx, LoanRequest{GroupName: "GROUP A", Amount: 5000})
	require.NoError(t, err)
	first, err := svc.RecordDefaulter(ctx, loan.ID, "first", "")
	require.NoError(t, err)
	second, err := svc.RecordDefaulter(ctx, loan.ID, "second", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	require.NoError(t, svc.RemoveDefaulterStatus(ctx, loan.ID, first.ID))
	got, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.LoanStatusDefaulted, got.Status)

	require.NoError(t, svc.RemoveDefaulterStatus(ctx, loan.ID, second.ID))
	got, err = svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.LoanStatusApproved, got.Status)

	err = svc.RemoveDefaulterStatus(ctx, loan.ID, second.ID)
	assert.True(t, error_handling.IsNotFound(err))
}

func TestUpdateLoan(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	loan, err := svc.RecordLongTermLoan(ctx, longTermRequest())
	require.NoError(t, err)
	_, err = svc.RecordContinuingPayment(ctx, loan.ID, 1000, "")
	require.NoError(t, err)

	t.Run("unchanged principal keeps amount to repay", func(t *testing.T) {
		edit := loan
		edit.DateToRepay = "2025-06-01"
		edit.Status = consts.LoanStatusDefaulted
		edit.AmountToRepay = 1
		updated, err := svc.UpdateLoan(ctx, edit)
		require.NoError(t, err)
		assert.Equal(t, 9700.0, updated.AmountToRepay)
		assert.Equal(t, consts.LoanStatusApproved, updated.Status)
		assert.Equal(t, "2025-06-01", updated.DateToRepay)
	})

	t.Run("changed interest recomputes net of payments", func(t *testing.T) {
		edit := loan
		edit.Interest = 1000
		updated, err := svc.UpdateLoan(ctx, edit)
		require.NoError(t, err)
		assert.Equal(t, 10000.0, updated.AmountToRepay)
	})

	t.Run("unknown id", func(t *testing.T) {
		edit := loan
		edit.ID = 42
		_, err := svc.UpdateLoan(ctx, edit)
		assert.True(t, error_handling.IsNotFound(err))
	})

	t.Run("kind mismatch", func(t *testing.T) {
		edit := loan
		edit.Type = consts.LoanKindShortTerm
		_, err := svc.UpdateLoan(ctx, edit)
		assert.True(t, error_handling.IsNotFound(err))
	})
}

func TestUpdateLoan_GroupChangeMovesRows(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	loan, err := svc.RecordLongTermLoan(ctx, longTermRequest())
	require.NoError(t, err)
	other, err := svc.RecordGroupLoan(ctx, LoanRequest{GroupName: "GROUP A", Amount: 2000})
	require.NoError(t, err)
	_, err = svc.RecordContinuingPayment(ctx, loan.ID, 500, "")
	require.NoError(t, err)
	_, err = svc.RecordDefaulter(ctx, loan.ID, "late", "")
	require.NoError(t, err)
	_, err = svc.RecordContinuingPayment(ctx, other.ID, 100, "")
	require.NoError(t, err)

	edit := loan
	edit.GroupName = "group b"
	updated, err := svc.UpdateLoan(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, "GROUP B", updated.GroupName)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	for _, p := range snap.ContinuingPayments {
		if p.LoanID == loan.ID {
			assert.Equal(t, "GROUP B", p.GroupName)
		} else {
			assert.Equal(t, "GROUP A", p.GroupName)
		}
	}
	require.Len(t, snap.Defaulters, 1)
	assert.Equal(t, "GROUP B", snap.Defaulters[0].GroupName)
}

func TestLoanIDsUniqueAcrossKinds(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 10; i++ {
		for _, kind := range consts.LoanKinds {
			loan, err := svc.RecordLoan(ctx, LoanRequest{Kind: kind, GroupName: "G", MemberName: "M", Amount: 10})
			require.NoError(t, err)
			assert.False(t, seen[loan.ID], "duplicate id %d", loan.ID)
			seen[loan.ID] = true
		}
	}

	all, err := svc.FetchAllLoans(ctx)
	require.NoError(t, err)
	require.Len(t, all, 30)
	assert.Equal(t, consts.LoanKindGroup, all[0].Type)
	assert.Equal(t, consts.LoanKindShortTerm, all[29].Type)
}

func TestIDsStayAboveStoredIDs(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	future := time.Now().Add(24 * time.Hour).UnixMilli()

	require.NoError(t, store.Mutate(ctx, func(snap *models.Snapshot) error {
		snap.GroupLoans = append(snap.GroupLoans, models.Loan{ID: future, Type: consts.LoanKindGroup, Amount: 1})
		return nil
	}))

	loan, err := svc.RecordGroupLoan(ctx, LoanRequest{GroupName: "G", Amount: 10})
	require.NoError(t, err)
	assert.Greater(t, loan.ID, future)
}

func TestRecordLoan_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]LoanRequest{
		"unknown kind":       {Kind: "weekly", GroupName: "G", Amount: 10},
		"missing group":      {Kind: consts.LoanKindGroup, Amount: 10},
		"missing member":     {Kind: consts.LoanKindLongTerm, GroupName: "G", Amount: 10},
		"zero amount":        {Kind: consts.LoanKindGroup, GroupName: "G"},
		"negative interest":  {Kind: consts.LoanKindGroup, GroupName: "G", Amount: 10, Interest: -1},
		"negative form fee":  {Kind: consts.LoanKindShortTerm, GroupName: "G", MemberName: "M", Amount: 10, LoanFormFee: -1},
		"negative payout":    {Kind: consts.LoanKindGroup, GroupName: "G", Amount: 10, CompanyPayout: -3},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.RecordLoan(ctx, req)
			assert.True(t, error_handling.IsValidation(err))
		})
	}
}

func TestOperationsOnMissingLoan(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetLoan(ctx, 1)
	assert.True(t, error_handling.IsNotFound(err))
	_, err = svc.GetLoanSummary(ctx, 1)
	assert.True(t, error_handling.IsNotFound(err))
	_, err = svc.RecordDefaulter(ctx, 1, "x", "")
	assert.True(t, error_handling.IsNotFound(err))
	_, err = svc.RecordContinuingPayment(ctx, 1, 10, "")
	assert.True(t, error_handling.IsNotFound(err))
	assert.True(t, error_handling.IsNotFound(svc.RemoveDefaulterStatus(ctx, 1, 2)))

	loan, err := svc.RecordGroupLoan(ctx, LoanRequest{GroupName: "G", Amount: 10})
	require.NoError(t, err)
	_, err = svc.RecordContinuingPayment(ctx, loan.ID, 0, "")
	assert.True(t, error_handling.IsValidation(err))
}
