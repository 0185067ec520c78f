package savings

import (
	"context"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
	"github.com/Nevi32/wofuo1/internal/service/events"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type SavingsServiceInterface interface {
	RecordSaving(ctx context.Context, groupName, memberName string, amount float64, date string) (models.Saving, error)
	RecordWithdrawal(ctx context.Context, req WithdrawalRequest) (models.Withdrawal, error)
	GetTotalSavings(ctx context.Context) ([]models.TotalSaving, error)
	GetWithdrawals(ctx context.Context) ([]models.Withdrawal, error)
	GetMemberSavings(ctx context.Context, groupName, memberName string) ([]models.Saving, error)
	GetMemberWithdrawals(ctx context.Context, groupName, memberName string) ([]models.Withdrawal, error)
	TotalFor(ctx context.Context, groupName, memberName string) (float64, error)
}

type WithdrawalRequest struct {
	GroupName     string
	MemberName    string
	Amount        float64
	CompanyPayout float64
	AmountGiven   float64
	Date          string
}

// SavingsService keeps the savings and withdrawal ledgers together with the
// single running total per (group, member). The total is maintained
// incrementally in the same write as the ledger row.
type SavingsService struct {
	store          *local.Store
	events         *events.LedgerEventService
	allowOverdraft bool
	now            func() time.Time
}

func NewSavingsService(store *local.Store, events *events.LedgerEventService, allowOverdraft bool) *SavingsService {
	return &SavingsService{
		store:          store,
		events:         events,
		allowOverdraft: allowOverdraft,
		now:            time.Now,
	}
}

func (s *SavingsService) dateOrToday(date string) string {
	if date == "" {
		return s.now().Format(dateLayout)
	}
	return date
}

func validateMember(groupName, memberName string) error {
	if groupName == "" {
		return error_handling.NewValidationError("groupName", "must not be empty")
	}
	if memberName == "" {
		return error_handling.NewValidationError("memberName", "must not be empty")
	}
	return nil
}

// adjustTotal adds delta to the pair's running total, creating the row when
// the pair has none yet, and returns the new total.
func adjustTotal(snap *models.Snapshot, groupName, memberName string, delta float64) float64 {
	key := utils.MemberKey(groupName, memberName)
	for i := range snap.TotalSavings {
		if snap.TotalSavings[i].RecordID() == key {
			snap.TotalSavings[i].TotalAmount = utils.AddAmounts(snap.TotalSavings[i].TotalAmount, delta)
			return snap.TotalSavings[i].TotalAmount
		}
	}
	snap.TotalSavings = append(snap.TotalSavings, models.TotalSaving{
		GroupName:   groupName,
		MemberName:  memberName,
		TotalAmount: delta,
	})
	return delta
}

func currentTotal(snap *models.Snapshot, groupName, memberName string) float64 {
	if t, ok := local.TotalSavings.Find(snap, utils.MemberKey(groupName, memberName)); ok {
		return t.TotalAmount
	}
	return 0
}

func (s *SavingsService) RecordSaving(ctx context.Context, groupName, memberName string, amount float64, date string) (models.Saving, error) {
	groupName = utils.NormalizeName(groupName)
	memberName = utils.NormalizeName(memberName)
	if err := validateMember(groupName, memberName); err != nil {
		return models.Saving{}, err
	}
	if err := utils.ValidatePositiveAmount("savingAmount", amount); err != nil {
		return models.Saving{}, err
	}

	saving := models.Saving{
		ID:           utils.NewRowID(),
		GroupName:    groupName,
		MemberName:   memberName,
		SavingAmount: amount,
		SavingDate:   s.dateOrToday(date),
	}
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		local.Savings.Append(snap, saving)
		adjustTotal(snap, groupName, memberName, amount)
		return nil
	})
	if err != nil {
		return models.Saving{}, err
	}
	s.events.Emit(ctx, common.SerializeSavingEvent(ctx, common.Actor(ctx), saving))
	return saving, nil
}

// RecordWithdrawal appends a withdrawal and decrements the running total.
// Unless overdraft is allowed, a withdrawal larger than the current total is
// rejected with a ValidationError.
func (s *SavingsService) RecordWithdrawal(ctx context.Context, req WithdrawalRequest) (models.Withdrawal, error) {
	groupName := utils.NormalizeName(req.GroupName)
	memberName := utils.NormalizeName(req.MemberName)
	if err := validateMember(groupName, memberName); err != nil {
		return models.Withdrawal{}, err
	}
	if err := utils.ValidatePositiveAmount("withdrawAmount", req.Amount); err != nil {
		return models.Withdrawal{}, err
	}
	if err := utils.ValidateNonNegativeAmount("companyPayout", req.CompanyPayout); err != nil {
		return models.Withdrawal{}, err
	}
	if err := utils.ValidateNonNegativeAmount("amountGiven", req.AmountGiven); err != nil {
		return models.Withdrawal{}, err
	}

	withdrawal := models.Withdrawal{
		ID:             utils.NewRowID(),
		GroupName:      groupName,
		MemberName:     memberName,
		WithdrawAmount: req.Amount,
		CompanyPayout:  req.CompanyPayout,
		AmountGiven:    req.AmountGiven,
		WithdrawDate:   s.dateOrToday(req.Date),
	}
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		if !s.allowOverdraft {
			if balance := currentTotal(snap, groupName, memberName); req.Amount > balance {
				logger.CtxWarn(ctx, log_messages.OverdraftRejected,
					zap.String("group", groupName),
					zap.String("member", memberName),
					zap.Float64("balance", balance),
					zap.Float64("amount", req.Amount),
				)
				return error_handling.NewValidationError("withdrawAmount", "exceeds savings balance")
			}
		}
		local.Withdrawals.Append(snap, withdrawal)
		adjustTotal(snap, groupName, memberName, -req.Amount)
		return nil
	})
	if err != nil {
		return models.Withdrawal{}, err
	}
	s.events.Emit(ctx, common.SerializeWithdrawalEvent(ctx, common.Actor(ctx), withdrawal))
	return withdrawal, nil
}

func (s *SavingsService) GetTotalSavings(ctx context.Context) ([]models.TotalSaving, error) {
	return local.ListItems(ctx, s.store, local.TotalSavings)
}

func (s *SavingsService) GetWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	return local.ListItems(ctx, s.store, local.Withdrawals)
}

func (s *SavingsService) GetMemberSavings(ctx context.Context, groupName, memberName string) ([]models.Saving, error) {
	all, err := local.ListItems(ctx, s.store, local.Savings)
	if err != nil {
		return nil, err
	}
	key := utils.MemberKey(groupName, memberName)
	out := []models.Saving{}
	for _, saving := range all {
		if utils.MemberKey(saving.GroupName, saving.MemberName) == key {
			out = append(out, saving)
		}
	}
	return out, nil
}

func (s *SavingsService) GetMemberWithdrawals(ctx context.Context, groupName, memberName string) ([]models.Withdrawal, error) {
	all, err := local.ListItems(ctx, s.store, local.Withdrawals)
	if err != nil {
		return nil, err
	}
	key := utils.MemberKey(groupName, memberName)
	out := []models.Withdrawal{}
	for _, w := range all {
		if utils.MemberKey(w.GroupName, w.MemberName) == key {
			out = append(out, w)
		}
	}
	return out, nil
}

// TotalFor returns the running total of one member, zero when none exists.
func (s *SavingsService) TotalFor(ctx context.Context, groupName, memberName string) (float64, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	return currentTotal(snap, groupName, memberName), nil
}
