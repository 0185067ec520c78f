package models

// Snapshot is the whole local database: every collection plus a version stamp
// used for optimistic concurrency between writers sharing one storage key.
type Snapshot struct {
	Version            int64               `json:"version"`
	Users              []User              `json:"users"`
	Members            []Member            `json:"members"`
	Savings            []Saving            `json:"savings"`
	TotalSavings       []TotalSaving       `json:"totalSavings"`
	Withdrawals        []Withdrawal        `json:"withdrawals"`
	GroupLoans         []Loan              `json:"groupLoans"`
	LongTermLoans      []Loan              `json:"longTermLoans"`
	ShortTermLoans     []Loan              `json:"shortTermLoans"`
	ContinuingPayments []ContinuingPayment `json:"continuingPayments"`
	Defaulters         []Defaulter         `json:"defaulters"`
	Visits             []Visit             `json:"visits"`
}

func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	return s
}

// Normalize replaces absent collections with empty ones so that every
// collection serializes as an array.
func (s *Snapshot) Normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Members == nil {
		s.Members = []Member{}
	}
	if s.Savings == nil {
		s.Savings = []Saving{}
	}
	if s.TotalSavings == nil {
		s.TotalSavings = []TotalSaving{}
	}
	if s.Withdrawals == nil {
		s.Withdrawals = []Withdrawal{}
	}
	if s.GroupLoans == nil {
		s.GroupLoans = []Loan{}
	}
	if s.LongTermLoans == nil {
		s.LongTermLoans = []Loan{}
	}
	if s.ShortTermLoans == nil {
		s.ShortTermLoans = []Loan{}
	}
	if s.ContinuingPayments == nil {
		s.ContinuingPayments = []ContinuingPayment{}
	}
	if s.Defaulters == nil {
		s.Defaulters = []Defaulter{}
	}
	if s.Visits == nil {
		s.Visits = []Visit{}
	}
}

// Clone returns a deep enough copy for read-modify-write: the collection
// slices are copied so appends and element writes never alias the original.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Version:            s.Version,
		Users:              append([]User(nil), s.Users...),
		Members:            append([]Member(nil), s.Members...),
		Savings:            append([]Saving(nil), s.Savings...),
		TotalSavings:       append([]TotalSaving(nil), s.TotalSavings...),
		Withdrawals:        append([]Withdrawal(nil), s.Withdrawals...),
		GroupLoans:         append([]Loan(nil), s.GroupLoans...),
		LongTermLoans:      append([]Loan(nil), s.LongTermLoans...),
		ShortTermLoans:     append([]Loan(nil), s.ShortTermLoans...),
		ContinuingPayments: append([]ContinuingPayment(nil), s.ContinuingPayments...),
		Defaulters:         append([]Defaulter(nil), s.Defaulters...),
		Visits:             append([]Visit(nil), s.Visits...),
	}
	c.Normalize()
	return c
}

// LoanSummary is a loan together with its repayment position.
type LoanSummary struct {
	Loan
	TotalRepaid      float64 `json:"totalRepaid"`
	RemainingBalance float64 `json:"remainingBalance"`
}

type GroupMembers struct {
	GroupName string   `json:"groupName"`
	Members   []string `json:"members"`
}

type GroupMemberStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type GroupSummary struct {
	Name        string              `json:"name"`
	MemberCount int                 `json:"memberCount"`
	Members     []GroupMemberStatus `json:"members"`
}
