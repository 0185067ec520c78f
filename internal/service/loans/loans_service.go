package loans

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
	"github.com/Nevi32/wofuo1/internal/service/events"

	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"
	loansScope = "loans"
)

type LoanServiceInterface interface {
	RecordLoan(ctx context.Context, req LoanRequest) (models.Loan, error)
	UpdateLoan(ctx context.Context, loan models.Loan) (models.Loan, error)
	GetLoan(ctx context.Context, loanID int64) (models.Loan, error)
	FetchAllLoans(ctx context.Context) ([]models.Loan, error)
	RecordDefaulter(ctx context.Context, loanID int64, description, date string) (models.Defaulter, error)
	RemoveDefaulterStatus(ctx context.Context, loanID, defaulterID int64) error
	FetchDefaulterInfo(ctx context.Context, loanID int64) ([]models.Defaulter, error)
	RecordContinuingPayment(ctx context.Context, loanID int64, amount float64, date string) (models.ContinuingPayment, error)
	FetchContinuingPayments(ctx context.Context, loanID int64) ([]models.ContinuingPayment, error)
	GetLoanSummary(ctx context.Context, loanID int64) (models.LoanSummary, error)
	GetDefaultedLoans(ctx context.Context) ([]models.Loan, error)
	GetActiveLoans(ctx context.Context) ([]models.Loan, error)
	GetFullyRepaidLoans(ctx context.Context) ([]models.Loan, error)
}

// LoanRequest carries the fields of a new loan. Group loans have no member;
// long-term and short-term loans are issued to one member of the group.
type LoanRequest struct {
	Kind          consts.LoanKind
	GroupName     string
	MemberName    string
	Guarantors    []models.Guarantor
	Amount        float64
	Term          float64
	Interest      float64
	CompanyPayout float64
	LoanFormFee   float64
	DateIssued    string
	DateToRepay   string
}

// LoanService is the loan registry for the three loan kinds. A loan's status
// is never set directly: it is Defaulted exactly when at least one defaulter
// record references it.
type LoanService struct {
	store  *local.Store
	events *events.LedgerEventService
	ids    *utils.IDGenerator
	now    func() time.Time
}

func NewLoanService(store *local.Store, events *events.LedgerEventService, ids *utils.IDGenerator) *LoanService {
	if ids == nil {
		ids = utils.NewIDGenerator()
	}
	return &LoanService{store: store, events: events, ids: ids, now: time.Now}
}

func (s *LoanService) dateOrToday(date string) string {
	if date == "" {
		return s.now().Format(dateLayout)
	}
	return date
}

func loanCollections(snap *models.Snapshot) []*[]models.Loan {
	return []*[]models.Loan{&snap.GroupLoans, &snap.LongTermLoans, &snap.ShortTermLoans}
}

// findLoan returns a pointer into the snapshot so callers can edit in place.
func findLoan(snap *models.Snapshot, loanID int64) (*models.Loan, bool) {
	for _, loans := range loanCollections(snap) {
		for i := range *loans {
			if (*loans)[i].ID == loanID {
				return &(*loans)[i], true
			}
		}
	}
	return nil, false
}

func loanNotFound(loanID int64) error {
	return error_handling.NewNotFoundError(loansScope, strconv.FormatInt(loanID, 10))
}

// observeIDs keeps freshly issued ids above every id already stored, which
// matters after a pull brought in records created on another device.
func (s *LoanService) observeIDs(snap *models.Snapshot) {
	for _, loans := range loanCollections(snap) {
		for _, l := range *loans {
			s.ids.Observe(l.ID)
		}
	}
	for _, d := range snap.Defaulters {
		s.ids.Observe(d.ID)
	}
	for _, p := range snap.ContinuingPayments {
		s.ids.Observe(p.ID)
	}
}

func hasDefaulter(snap *models.Snapshot, loanID int64) bool {
	for _, d := range snap.Defaulters {
		if d.LoanID == loanID {
			return true
		}
	}
	return false
}

func statusFor(snap *models.Snapshot, loanID int64) consts.LoanStatus {
	if hasDefaulter(snap, loanID) {
		return consts.LoanStatusDefaulted
	}
	return consts.LoanStatusApproved
}

func totalRepaid(snap *models.Snapshot, loanID int64) float64 {
	sum := 0.0
	for _, p := range snap.ContinuingPayments {
		if p.LoanID == loanID {
			sum += p.Amount
		}
	}
	return sum
}

func outstanding(loan models.Loan, repaid float64) float64 {
	return math.Max(0, loan.Amount+loan.Interest-repaid)
}

func validateAmounts(amount, interest, term float64) error {
	if err := utils.ValidatePositiveAmount("amount", amount); err != nil {
		return err
	}
	if err := utils.ValidateNonNegativeAmount("interest", interest); err != nil {
		return err
	}
	return utils.ValidateNonNegativeAmount("term", term)
}

func normalizeGuarantors(in []models.Guarantor) []models.Guarantor {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Guarantor, len(in))
	for i, g := range in {
		out[i] = models.Guarantor{Name: utils.NormalizeName(g.Name), Group: utils.NormalizeName(g.Group)}
	}
	return out
}

// RecordLoan creates a loan of req.Kind with a fresh unique id, status
// Approved and amountToRepay = amount + interest.
func (s *LoanService) RecordLoan(ctx context.Context, req LoanRequest) (models.Loan, error) {
	if !req.Kind.Valid() {
		return models.Loan{}, error_handling.NewValidationError("type", "unknown loan kind")
	}
	groupName := utils.NormalizeName(req.GroupName)
	memberName := utils.NormalizeName(req.MemberName)
	if groupName == "" {
		return models.Loan{}, error_handling.NewValidationError("groupName", "must not be empty")
	}
	if req.Kind == consts.LoanKindGroup {
		memberName = ""
	} else if memberName == "" {
		return models.Loan{}, error_handling.NewValidationError("memberName", "must not be empty")
	}
	if err := validateAmounts(req.Amount, req.Interest, req.Term); err != nil {
		return models.Loan{}, err
	}
	if err := utils.ValidateNonNegativeAmount("companyPayout", req.CompanyPayout); err != nil {
		return models.Loan{}, err
	}
	if err := utils.ValidateNonNegativeAmount("loanFormFee", req.LoanFormFee); err != nil {
		return models.Loan{}, err
	}

	var loan models.Loan
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		s.observeIDs(snap)
		loan = models.Loan{
			ID:            s.ids.Next(),
			Type:          req.Kind,
			Name:          utils.BorrowerName(groupName, memberName),
			GroupName:     groupName,
			MemberName:    memberName,
			Amount:        req.Amount,
			Term:          req.Term,
			Interest:      req.Interest,
			AmountToRepay: req.Amount + req.Interest,
			Status:        consts.LoanStatusApproved,
			CompanyPayout: req.CompanyPayout,
			Guarantors:    normalizeGuarantors(req.Guarantors),
			LoanFormFee:   req.LoanFormFee,
			DateIssued:    s.dateOrToday(req.DateIssued),
			DateToRepay:   req.DateToRepay,
		}
		local.LoanCollection(req.Kind).Append(snap, loan)
		return nil
	})
	if err != nil {
		return models.Loan{}, err
	}
	s.events.Emit(ctx, common.SerializeLoanEvent(ctx, consts.EventLoanRecorded, common.Actor(ctx), loan, loan.Amount))
	return loan, nil
}

func (s *LoanService) RecordGroupLoan(ctx context.Context, req LoanRequest) (models.Loan, error) {
	req.Kind = consts.LoanKindGroup
	return s.RecordLoan(ctx, req)
}

func (s *LoanService) RecordLongTermLoan(ctx context.Context, req LoanRequest) (models.Loan, error) {
	req.Kind = consts.LoanKindLongTerm
	return s.RecordLoan(ctx, req)
}

func (s *LoanService) RecordShortTermLoan(ctx context.Context, req LoanRequest) (models.Loan, error) {
	req.Kind = consts.LoanKindShortTerm
	return s.RecordLoan(ctx, req)
}

// UpdateLoan replaces the stored loan with the same id. The loan kind cannot
// change. When amount or interest change, amountToRepay is recomputed net of
// the payments already recorded; status always follows the defaulter records.
func (s *LoanService) UpdateLoan(ctx context.Context, updated models.Loan) (models.Loan, error) {
	if err := validateAmounts(updated.Amount, updated.Interest, updated.Term); err != nil {
		return models.Loan{}, err
	}

	var result models.Loan
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		stored, ok := findLoan(snap, updated.ID)
		if !ok || (updated.Type != "" && updated.Type != stored.Type) {
			return loanNotFound(updated.ID)
		}

		next := updated
		next.Type = stored.Type
		next.GroupName = utils.NormalizeName(updated.GroupName)
		if next.GroupName == "" {
			next.GroupName = stored.GroupName
		}
		next.MemberName = utils.NormalizeName(updated.MemberName)
		if next.Type == consts.LoanKindGroup {
			next.MemberName = ""
		}
		next.Name = utils.BorrowerName(next.GroupName, next.MemberName)
		next.Guarantors = normalizeGuarantors(updated.Guarantors)
		if next.Amount != stored.Amount || next.Interest != stored.Interest {
			next.AmountToRepay = outstanding(next, totalRepaid(snap, next.ID))
		} else {
			next.AmountToRepay = stored.AmountToRepay
		}
		next.Status = statusFor(snap, next.ID)
		if next.GroupName != stored.GroupName {
			retagLoanRows(snap, next.ID, next.GroupName)
		}

		*stored = next
		result = next
		return nil
	})
	if err != nil {
		return models.Loan{}, err
	}
	s.events.Emit(ctx, common.SerializeLoanEvent(ctx, consts.EventLoanUpdated, common.Actor(ctx), result, result.Amount))
	return result, nil
}

// retagLoanRows moves a loan's payments and defaulter records to its new
// group so group-scoped sync keeps them with the loan.
func retagLoanRows(snap *models.Snapshot, loanID int64, groupName string) {
	for i := range snap.ContinuingPayments {
		if snap.ContinuingPayments[i].LoanID == loanID {
			snap.ContinuingPayments[i].GroupName = groupName
		}
	}
	for i := range snap.Defaulters {
		if snap.Defaulters[i].LoanID == loanID {
			snap.Defaulters[i].GroupName = groupName
		}
	}
}

func (s *LoanService) GetLoan(ctx context.Context, loanID int64) (models.Loan, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return models.Loan{}, err
	}
	loan, ok := findLoan(snap, loanID)
	if !ok {
		return models.Loan{}, loanNotFound(loanID)
	}
	return *loan, nil
}

// FetchAllLoans returns group, long-term and short-term loans in that order.
func (s *LoanService) FetchAllLoans(ctx context.Context) ([]models.Loan, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return allLoans(snap), nil
}

func allLoans(snap *models.Snapshot) []models.Loan {
	out := make([]models.Loan, 0, len(snap.GroupLoans)+len(snap.LongTermLoans)+len(snap.ShortTermLoans))
	for _, loans := range loanCollections(snap) {
		out = append(out, *loans...)
	}
	return out
}

// recomputeStatus sets the loan's status from its defaulter records.
func recomputeStatus(ctx context.Context, snap *models.Snapshot, loan *models.Loan) {
	status := statusFor(snap, loan.ID)
	if loan.Status != status {
		logger.CtxDebug(ctx, log_messages.LoanStatusRecomputed,
			zap.Int64("loan_id", loan.ID),
			zap.String("from", string(loan.Status)),
			zap.String("to", string(status)),
		)
	}
	loan.Status = status
}

// RecordDefaulter appends a defaulter record for the loan, which makes it Defaulted.
func (s *LoanService) RecordDefaulter(ctx context.Context, loanID int64, description, date string) (models.Defaulter, error) {
	var (
		defaulter models.Defaulter
		loan      models.Loan
	)
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		stored, ok := findLoan(snap, loanID)
		if !ok {
			return loanNotFound(loanID)
		}
		s.observeIDs(snap)
		defaulter = models.Defaulter{
			ID:          s.ids.Next(),
			LoanID:      loanID,
			GroupName:   stored.GroupName,
			Description: description,
			Date:        s.dateOrToday(date),
		}
		local.Defaulters.Append(snap, defaulter)
		recomputeStatus(ctx, snap, stored)
		loan = *stored
		return nil
	})
	if err != nil {
		return models.Defaulter{}, err
	}
	s.events.Emit(ctx, common.SerializeLoanEvent(ctx, consts.EventDefaulterRecorded, common.Actor(ctx), loan, 0))
	return defaulter, nil
}

// RemoveDefaulterStatus deletes one defaulter record of the loan. The loan
// returns to Approved only when no other defaulter record remains.
func (s *LoanService) RemoveDefaulterStatus(ctx context.Context, loanID, defaulterID int64) error {
	var loan models.Loan
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		stored, ok := findLoan(snap, loanID)
		if !ok {
			return loanNotFound(loanID)
		}
		dropped := local.Defaulters.Filter(snap, func(d models.Defaulter) bool {
			return !(d.ID == defaulterID && d.LoanID == loanID)
		})
		if dropped == 0 {
			return error_handling.NewNotFoundError(consts.DefaultersCollection, strconv.FormatInt(defaulterID, 10))
		}
		recomputeStatus(ctx, snap, stored)
		loan = *stored
		return nil
	})
	if err != nil {
		return err
	}
	s.events.Emit(ctx, common.SerializeLoanEvent(ctx, consts.EventDefaulterRemoved, common.Actor(ctx), loan, 0))
	return nil
}

func (s *LoanService) FetchDefaulterInfo(ctx context.Context, loanID int64) ([]models.Defaulter, error) {
	all, err := local.ListItems(ctx, s.store, local.Defaulters)
	if err != nil {
		return nil, err
	}
	out := []models.Defaulter{}
	for _, d := range all {
		if d.LoanID == loanID {
			out = append(out, d)
		}
	}
	return out, nil
}

// RecordContinuingPayment appends a repayment and lowers amountToRepay by its
// amount, never below zero.
func (s *LoanService) RecordContinuingPayment(ctx context.Context, loanID int64, amount float64, date string) (models.ContinuingPayment, error) {
	if err := utils.ValidatePositiveAmount("amount", amount); err != nil {
		return models.ContinuingPayment{}, err
	}

	var (
		payment models.ContinuingPayment
		loan    models.Loan
	)
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		stored, ok := findLoan(snap, loanID)
		if !ok {
			return loanNotFound(loanID)
		}
		s.observeIDs(snap)
		payment = models.ContinuingPayment{
			ID:        s.ids.Next(),
			LoanID:    loanID,
			GroupName: stored.GroupName,
			Amount:    amount,
			Date:      s.dateOrToday(date),
		}
		local.ContinuingPayments.Append(snap, payment)
		stored.AmountToRepay = math.Max(0, stored.AmountToRepay-amount)
		loan = *stored
		return nil
	})
	if err != nil {
		return models.ContinuingPayment{}, err
	}
	s.events.Emit(ctx, common.SerializeLoanEvent(ctx, consts.EventPaymentRecorded, common.Actor(ctx), loan, amount))
	return payment, nil
}

func (s *LoanService) FetchContinuingPayments(ctx context.Context, loanID int64) ([]models.ContinuingPayment, error) {
	all, err := local.ListItems(ctx, s.store, local.ContinuingPayments)
	if err != nil {
		return nil, err
	}
	out := []models.ContinuingPayment{}
	for _, p := range all {
		if p.LoanID == loanID {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetLoanSummary returns the loan with the sum of its payments and the
// balance still owed, max(0, amount + interest - totalRepaid).
func (s *LoanService) GetLoanSummary(ctx context.Context, loanID int64) (models.LoanSummary, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return models.LoanSummary{}, err
	}
	loan, ok := findLoan(snap, loanID)
	if !ok {
		return models.LoanSummary{}, loanNotFound(loanID)
	}
	repaid := totalRepaid(snap, loanID)
	return models.LoanSummary{
		Loan:             *loan,
		TotalRepaid:      repaid,
		RemainingBalance: outstanding(*loan, repaid),
	}, nil
}

func (s *LoanService) filterLoans(ctx context.Context, keep func(models.Loan) bool) ([]models.Loan, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Loan{}
	for _, loan := range allLoans(snap) {
		if keep(loan) {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (s *LoanService) GetDefaultedLoans(ctx context.Context) ([]models.Loan, error) {
	return s.filterLoans(ctx, func(l models.Loan) bool { return l.Status == consts.LoanStatusDefaulted })
}

// GetActiveLoans returns loans that are not defaulted and still owe money.
func (s *LoanService) GetActiveLoans(ctx context.Context) ([]models.Loan, error) {
	return s.filterLoans(ctx, func(l models.Loan) bool {
		return l.Status != consts.LoanStatusDefaulted && l.AmountToRepay > 0
	})
}

func (s *LoanService) GetFullyRepaidLoans(ctx context.Context) ([]models.Loan, error) {
	return s.filterLoans(ctx, func(l models.Loan) bool { return l.AmountToRepay <= 0 })
}
