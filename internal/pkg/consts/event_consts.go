package consts

// Ledger event types published to the ledger events topic.
const (
	EventMemberRegistered   = "MEMBER_REGISTERED"
	EventMemberUpdated      = "MEMBER_UPDATED"
	EventMemberDeleted      = "MEMBER_DELETED"
	EventGroupRenamed       = "GROUP_RENAMED"
	EventSavingRecorded     = "SAVING_RECORDED"
	EventWithdrawalRecorded = "WITHDRAWAL_RECORDED"
	EventLoanRecorded       = "LOAN_RECORDED"
	EventLoanUpdated        = "LOAN_UPDATED"
	EventDefaulterRecorded  = "DEFAULTER_RECORDED"
	EventDefaulterRemoved   = "DEFAULTER_REMOVED"
	EventPaymentRecorded    = "CONTINUING_PAYMENT_RECORDED"
	EventVisitRecorded      = "VISIT_RECORDED"
)

const (
	SyncDirectionPush = "push"
	SyncDirectionPull = "pull"
)

const (
	ArtifactBackendGCS  = "gcs"
	ArtifactBackendSFTP = "sftp"

	StoreBackendRedis  = "redis"
	StoreBackendSQLite = "sqlite"
)
