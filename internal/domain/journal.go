package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of a journal entry.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "draft"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

// CanTransition reports whether the status may move to next.
// draft -> posted -> reversed, no other edges.
func (s EntryStatus) CanTransition(next EntryStatus) bool {
	switch s {
	case EntryStatusDraft:
		return next == EntryStatusPosted
	case EntryStatusPosted:
		return next == EntryStatusReversed
	}
	return false
}

// JournalEntry is a dated, numbered container of journal lines.
type JournalEntry struct {
	ID              int64       `json:"id"`
	EntryNumber     string      `json:"entry_number"`
	EntryDate       time.Time   `json:"entry_date"`
	Description     string      `json:"description"`
	ReferenceNumber *string     `json:"reference_number,omitempty"`
	Status          EntryStatus `json:"status"`
	PostedBy        *string     `json:"posted_by,omitempty"`
	PostedAt        *time.Time  `json:"posted_at,omitempty"`
	ReversedEntryID *int64      `json:"reversed_entry_id,omitempty"`
	CreatedBy       string      `json:"created_by"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	DeletedAt       *time.Time  `json:"-"`

	Lines []*JournalLine `json:"lines,omitempty"`
}

// JournalLine is one side of a double entry. Exactly one of Debit or
// Credit is positive, the other is zero.
type JournalLine struct {
	ID           int64           `json:"id"`
	EntryID      int64           `json:"entry_id"`
	AccountID    int64           `json:"account_id"`
	Description  *string         `json:"description,omitempty"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	ProjectID    *string         `json:"project_id,omitempty"`
	DepartmentID *string         `json:"department_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`

	Account *Account `json:"account,omitempty"`
}

// JournalEntryCreate carries the fields accepted when drafting an entry.
type JournalEntryCreate struct {
	EntryDate       time.Time
	Description     string
	ReferenceNumber *string
	CreatedBy       string
	Lines           []JournalLineCreate
}

type JournalLineCreate struct {
	AccountID    int64
	Description  *string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	ProjectID    *string
	DepartmentID *string
}

type JournalEntryFilter struct {
	Status   *EntryStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Search   *string
}

// Validate checks a line in isolation: amounts are non-negative, carry
// at most two decimal places, and exactly one side is positive.
func (l JournalLineCreate) Validate() error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return Validation("amount", "must not be negative")
	}
	if l.Debit.Exponent() < -2 || l.Credit.Exponent() < -2 {
		return Validation("amount", "more than two decimal places")
	}
	debitSet := l.Debit.IsPositive()
	creditSet := l.Credit.IsPositive()
	if debitSet == creditSet {
		return ErrAmbiguousLine
	}
	return nil
}

// Totals returns the summed debit and credit sides of the entry.
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// IsBalanced reports whether debits equal credits exactly.
func (e *JournalEntry) IsBalanced() bool {
	debit, credit := e.Totals()
	return debit.Equal(credit)
}

// ValidateForPosting runs every check required before an entry may post.
func (e *JournalEntry) ValidateForPosting() error {
	if !e.Status.CanTransition(EntryStatusPosted) {
		return ErrInvalidState
	}
	if len(e.Lines) == 0 {
		return ErrNoLines
	}
	if !e.IsBalanced() {
		return ErrUnbalancedEntry
	}
	return nil
}

// ReversalLines returns the lines of a reversing entry: each original
// line with debit and credit swapped, in original order.
func (e *JournalEntry) ReversalLines() []JournalLineCreate {
	out := make([]JournalLineCreate, 0, len(e.Lines))
	for _, l := range e.Lines {
		out = append(out, JournalLineCreate{
			AccountID:    l.AccountID,
			Description:  l.Description,
			Debit:        l.Credit,
			Credit:       l.Debit,
			ProjectID:    l.ProjectID,
			DepartmentID: l.DepartmentID,
		})
	}
	return out
}
