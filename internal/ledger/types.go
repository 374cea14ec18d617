// Package ledger is the downstream general ledger: a physically separate
// database from the billing store, with no foreign-key edges to billing
// records. It implements the posting consumer and the period close
// workflow.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JournalEntry is a balanced double-entry posting. SourceEventID is the
// posting consumer's idempotency key: unique per tenant, it is what makes
// re-delivery of the same gl.posting.requested event a no-op.
type JournalEntry struct {
	ID              uuid.UUID
	TenantID        string
	SourceModule    string
	SourceEventID   string
	SourceSubject   string
	PostedAt        time.Time
	Currency        string
	Description     *string
	ReferenceType   *string
	ReferenceID     *string
	ReversesEntryID *uuid.UUID
	Lines           []JournalLine
	CreatedAt       time.Time
}

// JournalLine is one side of a balanced entry; exactly one of
// DebitMinor/CreditMinor is non-zero.
type JournalLine struct {
	JournalEntryID uuid.UUID
	LineNo         int
	AccountRef     string
	DebitMinor     int64
	CreditMinor    int64
	Memo           *string
}

// AccountingPeriod is a tenant's closeable accounting window.
type AccountingPeriod struct {
	ID               uuid.UUID
	TenantID         string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	IsClosed         bool
	CloseRequestedAt *time.Time
	ClosedAt         *time.Time
	ClosedBy         *string
	CloseReason      *string
	CloseHash        *string
}

// PeriodSummarySnapshot is the per-currency aggregate written atomically at
// close time.
type PeriodSummarySnapshot struct {
	TenantID          string
	PeriodID          uuid.UUID
	Currency          string
	JournalCount      int64
	LineCount         int64
	TotalDebitsMinor  int64
	TotalCreditsMinor int64
	Checksum          *string
}

// PostingEvent is the decoded gl.posting.requested envelope the event bus
// delivers to the posting consumer. It intentionally
// mirrors JournalEntry's shape rather than reusing it, since the wire
// envelope is untrusted input and must be validated before becoming a
// JournalEntry.
type PostingEvent struct {
	EventID       string          `json:"event_id"`
	TenantID      string          `json:"tenant_id"`
	SourceModule  string          `json:"source_module"`
	SourceSubject string          `json:"source_subject"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Lines         []PostingLine   `json:"lines"`
	Raw           json.RawMessage `json:"-"`
}

// PostingLine is one line of the untrusted wire envelope.
type PostingLine struct {
	AccountRef  string `json:"account_ref"`
	DebitMinor  int64  `json:"debit_minor"`
	CreditMinor int64  `json:"credit_minor"`
	Memo        string `json:"memo,omitempty"`
}

// CloseStatus is the close-status response shape.
type CloseStatus struct {
	State       string     // "OPEN" | "CLOSED"
	ClosedAt    *time.Time
	ClosedBy    *string
	CloseReason *string
	CloseHash   *string
}

// ValidateCloseResult is the validate-close response shape.
type ValidateCloseResult struct {
	CanClose bool
	Issues   []string
}

// Known validate-close issue codes.
const (
	IssuePeriodNotFound     = "PERIOD_NOT_FOUND"
	IssuePeriodAlreadyClosed = "PERIOD_ALREADY_CLOSED"
	IssueUnbalancedEntries  = "UNBALANCED_ENTRIES"
)
