package models

import "time"

type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "Success"
	SyncStatusPartial SyncStatus = "Partial"
	SyncStatusFailed  SyncStatus = "Failed"
)

// ItemFailure describes one record the sync engine could not reconcile.
type ItemFailure struct {
	RecordID string `json:"recordId"`
	Reason   string `json:"reason"`
}

// CollectionReport holds the outcome of syncing a single collection.
type CollectionReport struct {
	Collection string        `json:"collection"`
	Status     SyncStatus    `json:"status"`
	Updated    int           `json:"updated"`
	Created    int           `json:"created"`
	Deleted    int           `json:"deleted"`
	Fetched    int           `json:"fetched"`
	Skipped    int           `json:"skipped"`
	Failures   []ItemFailure `json:"failures,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// SyncReport is the structured result of a push or pull. A push is not a
// transaction: callers must inspect each collection's status.
type SyncReport struct {
	Direction   string             `json:"direction"`
	GroupName   string             `json:"groupName,omitempty"`
	Identity    string             `json:"identity"`
	StartedAt   time.Time          `json:"startedAt"`
	FinishedAt  time.Time          `json:"finishedAt"`
	Collections []CollectionReport `json:"collections"`
}

// Collection returns the report for the named collection.
func (r *SyncReport) Collection(name string) (CollectionReport, bool) {
	for _, c := range r.Collections {
		if c.Collection == name {
			return c, true
		}
	}
	return CollectionReport{}, false
}

// Succeeded reports whether every collection synced without failures.
func (r *SyncReport) Succeeded() bool {
	for _, c := range r.Collections {
		if c.Status != SyncStatusSuccess {
			return false
		}
	}
	return true
}

// SyncReportMessage is the Pub/Sub envelope for a finished sync.
type SyncReportMessage struct {
	MessageID   string     `json:"messageId"`
	TraceID     string     `json:"traceId,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
	Succeeded   bool       `json:"succeeded"`
	Report      SyncReport `json:"report"`
}
