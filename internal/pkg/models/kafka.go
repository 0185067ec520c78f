package models

import "time"

// LedgerEvent is published to the ledger events topic after every successful
// mutation of the local ledger.
type LedgerEvent struct {
	EventID    string    `json:"eventId"`
	Type       string    `json:"type"`
	GroupName  string    `json:"groupName,omitempty"`
	MemberName string    `json:"memberName,omitempty"`
	NationalID string    `json:"nationalId,omitempty"`
	LoanID     int64     `json:"loanId,omitempty"`
	LoanKind   string    `json:"loanKind,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	TraceID    string    `json:"traceId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
