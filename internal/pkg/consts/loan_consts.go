package consts

type LoanKind string

const (
	LoanKindGroup     LoanKind = "group"
	LoanKindLongTerm  LoanKind = "long-term"
	LoanKindShortTerm LoanKind = "short-term"
)

// LoanKinds lists the loan kinds in the order FetchAllLoans concatenates them.
var LoanKinds = []LoanKind{LoanKindGroup, LoanKindLongTerm, LoanKindShortTerm}

func (k LoanKind) Valid() bool {
	switch k {
	case LoanKindGroup, LoanKindLongTerm, LoanKindShortTerm:
		return true
	}
	return false
}

// CollectionName returns the snapshot collection holding loans of this kind.
func (k LoanKind) CollectionName() string {
	switch k {
	case LoanKindLongTerm:
		return LongTermLoansCollection
	case LoanKindShortTerm:
		return ShortTermLoansCollection
	default:
		return GroupLoansCollection
	}
}

type LoanStatus string

const (
	LoanStatusApproved  LoanStatus = "Approved"
	LoanStatusDefaulted LoanStatus = "Defaulted"
)
