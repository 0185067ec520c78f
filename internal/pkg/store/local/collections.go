package local

import (
	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
)

// Collection describes one typed collection of the snapshot.
type Collection[T models.Record] struct {
	Name  string
	items func(*models.Snapshot) *[]T
}

// AnyCollection is the type-erased view of a Collection used where all
// collections are walked uniformly.
type AnyCollection interface {
	CollectionName() string
	Len(snap *models.Snapshot) int
	Records(snap *models.Snapshot) []models.Record
	mergeFrom(dst, incoming *models.Snapshot) int
}

var (
	Users = Collection[models.User]{Name: consts.UsersCollection,
		items: func(s *models.Snapshot) *[]models.User { return &s.Users }}
	Members = Collection[models.Member]{Name: consts.MembersCollection,
		items: func(s *models.Snapshot) *[]models.Member { return &s.Members }}
	Savings = Collection[models.Saving]{Name: consts.SavingsCollection,
		items: func(s *models.Snapshot) *[]models.Saving { return &s.Savings }}
	TotalSavings = Collection[models.TotalSaving]{Name: consts.TotalSavingsCollection,
		items: func(s *models.Snapshot) *[]models.TotalSaving { return &s.TotalSavings }}
	Withdrawals = Collection[models.Withdrawal]{Name: consts.WithdrawalsCollection,
		items: func(s *models.Snapshot) *[]models.Withdrawal { return &s.Withdrawals }}
	GroupLoans = Collection[models.Loan]{Name: consts.GroupLoansCollection,
		items: func(s *models.Snapshot) *[]models.Loan { return &s.GroupLoans }}
	LongTermLoans = Collection[models.Loan]{Name: consts.LongTermLoansCollection,
		items: func(s *models.Snapshot) *[]models.Loan { return &s.LongTermLoans }}
	ShortTermLoans = Collection[models.Loan]{Name: consts.ShortTermLoansCollection,
		items: func(s *models.Snapshot) *[]models.Loan { return &s.ShortTermLoans }}
	ContinuingPayments = Collection[models.ContinuingPayment]{Name: consts.ContinuingPaymentsCollection,
		items: func(s *models.Snapshot) *[]models.ContinuingPayment { return &s.ContinuingPayments }}
	Defaulters = Collection[models.Defaulter]{Name: consts.DefaultersCollection,
		items: func(s *models.Snapshot) *[]models.Defaulter { return &s.Defaulters }}
	Visits = Collection[models.Visit]{Name: consts.VisitsCollection,
		items: func(s *models.Snapshot) *[]models.Visit { return &s.Visits }}
)

// AllCollections lists every snapshot collection in layout order.
var AllCollections = []AnyCollection{
	Users, Members, Savings, TotalSavings, Withdrawals,
	GroupLoans, LongTermLoans, ShortTermLoans,
	ContinuingPayments, Defaulters, Visits,
}

// LoanCollection returns the collection holding loans of the given kind.
func LoanCollection(kind consts.LoanKind) Collection[models.Loan] {
	switch kind {
	case consts.LoanKindLongTerm:
		return LongTermLoans
	case consts.LoanKindShortTerm:
		return ShortTermLoans
	default:
		return GroupLoans
	}
}

func (c Collection[T]) CollectionName() string { return c.Name }

func (c Collection[T]) Len(snap *models.Snapshot) int { return len(*c.items(snap)) }

func (c Collection[T]) Records(snap *models.Snapshot) []models.Record {
	items := *c.items(snap)
	out := make([]models.Record, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

// List returns a copy of the collection's records in insertion order.
func (c Collection[T]) List(snap *models.Snapshot) []T {
	return append([]T{}, *c.items(snap)...)
}

func (c Collection[T]) Append(snap *models.Snapshot, item T) {
	items := c.items(snap)
	*items = append(*items, item)
}

func (c Collection[T]) Find(snap *models.Snapshot, id string) (T, bool) {
	for _, item := range *c.items(snap) {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Replace overwrites the first record sharing item's identity.
func (c Collection[T]) Replace(snap *models.Snapshot, item T) error {
	id := item.RecordID()
	items := *c.items(snap)
	for i := range items {
		if items[i].RecordID() == id {
			items[i] = item
			return nil
		}
	}
	return error_handling.NewNotFoundError(c.Name, id)
}

// Remove deletes every record with the given identity.
func (c Collection[T]) Remove(snap *models.Snapshot, id string) error {
	items := c.items(snap)
	kept := (*items)[:0:0]
	removed := false
	for _, item := range *items {
		if item.RecordID() == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return error_handling.NewNotFoundError(c.Name, id)
	}
	*items = kept
	return nil
}

// Filter keeps only the records for which keep returns true and reports how
// many were dropped.
func (c Collection[T]) Filter(snap *models.Snapshot, keep func(T) bool) int {
	items := c.items(snap)
	kept := (*items)[:0:0]
	for _, item := range *items {
		if keep(item) {
			kept = append(kept, item)
		}
	}
	dropped := len(*items) - len(kept)
	*items = kept
	return dropped
}

// Set replaces the whole collection.
func (c Collection[T]) Set(snap *models.Snapshot, items []T) {
	*c.items(snap) = append([]T{}, items...)
}

func (c Collection[T]) mergeFrom(dst, incoming *models.Snapshot) int {
	items := c.items(dst)
	seen := make(map[string]struct{}, len(*items))
	for _, item := range *items {
		seen[item.RecordID()] = struct{}{}
	}
	added := 0
	for _, item := range *c.items(incoming) {
		id := item.RecordID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		*items = append(*items, item)
		added++
	}
	return added
}
