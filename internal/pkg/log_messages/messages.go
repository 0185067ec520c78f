package log_messages

const (
	ServerStartFailure         = "failed to start server"
	ServerStarted              = "HTTP server listening"
	ServerShutdown             = "Shutting down server..."
	ServerForcedShutdown       = "Server forced to shutdown"
	ServerExiting              = "Server exiting"
	FailedLoadingConfiguration = "Failed to load configuration"
	CleanupStarted             = "Starting cleanup of resources..."
	CleanupCompleted           = "All resources cleaned up successfully"
	CleanupFailed              = "Failed to release resource"

	// Local store
	LocalStoreInitialized      = "Local ledger snapshot initialized"
	LocalStoreCorruptRecovered = "Local ledger snapshot is corrupt, recovering to an empty snapshot"
	LocalStoreCleared          = "Local ledger snapshot cleared"

	// Ledger services
	LedgerEventPublishFailed = "Failed to publish ledger event"
	OverdraftRejected        = "Withdrawal rejected: amount exceeds savings balance"
	LoanStatusRecomputed     = "Loan status recomputed from defaulter records"
	GroupRenamed             = "Group renamed across ledger collections"

	// Sync engine
	SyncStarted             = "Sync started"
	SyncCompleted           = "Sync completed"
	SyncCollectionFailed    = "Collection sync failed"
	SyncItemSkipped         = "Sync item skipped"
	SyncRetrying            = "Remote call failed, retrying"
	SyncReportPublishFailed = "Failed to publish sync report"

	// Snapshot transfer
	SnapshotPushed             = "Ledger snapshot pushed to artifact store"
	SnapshotPulled             = "Ledger snapshot pulled from artifact store"
	SnapshotVerificationFailed = "Pushed snapshot did not read back identically"
	SnapshotLocalWipe          = "Local ledger wiped after snapshot push"

	// Artifact stores
	ArtifactUploaded          = "Artifact uploaded"
	ErrorUploadingArtifact    = "Error uploading artifact"
	ErrorClosingGCSWriter     = "Error closing GCS writer"
	ErrorClosingGCSClient     = "Error closing GCS client"
	WorkbookExported          = "Ledger workbook exported"
	TracerProviderInitialized = "Tracer provider initialized"

	// Messaging
	PubsubPublisherCreated = "PubSub publisher created"
	KafkaProducerCreated   = "Kafka producer created"
	KafkaDeliveryFailed    = "Kafka delivery failed"

	// HTTP
	RequestFailed = "Request failed"

	// Auth
	AuthTokenRejected = "Bearer token rejected"
)
