package consts

// Collection names inside the ledger snapshot. The same names are used for the
// remote collection store.
const (
	UsersCollection              = "users"
	MembersCollection            = "members"
	SavingsCollection            = "savings"
	TotalSavingsCollection       = "totalSavings"
	WithdrawalsCollection        = "withdrawals"
	GroupLoansCollection         = "groupLoans"
	LongTermLoansCollection      = "longTermLoans"
	ShortTermLoansCollection     = "shortTermLoans"
	ContinuingPaymentsCollection = "continuingPayments"
	DefaultersCollection         = "defaulters"
	VisitsCollection             = "visits"
)

// AllCollections lists every collection of the ledger snapshot in layout order.
var AllCollections = []string{
	UsersCollection,
	MembersCollection,
	SavingsCollection,
	TotalSavingsCollection,
	WithdrawalsCollection,
	GroupLoansCollection,
	LongTermLoansCollection,
	ShortTermLoansCollection,
	ContinuingPaymentsCollection,
	DefaultersCollection,
	VisitsCollection,
}

const (
	DefaultSnapshotKey  = "WofuoDB"
	DefaultArtifactPath = "HQ.json"
	UnassignedGroupName = "UNASSIGNED"

	// SQLite key/value table used by the sqlite local store backend.
	SQLiteBlobTable = "ledger_blobs"
)
