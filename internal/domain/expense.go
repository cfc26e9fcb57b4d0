package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus lifecycle: draft -> submitted -> approved | rejected,
// approved -> paid.
type ExpenseStatus string

const (
	ExpenseStatusDraft     ExpenseStatus = "draft"
	ExpenseStatusSubmitted ExpenseStatus = "submitted"
	ExpenseStatusApproved  ExpenseStatus = "approved"
	ExpenseStatusRejected  ExpenseStatus = "rejected"
	ExpenseStatusPaid      ExpenseStatus = "paid"
)

func (s ExpenseStatus) CanTransition(next ExpenseStatus) bool {
	switch s {
	case ExpenseStatusDraft:
		return next == ExpenseStatusSubmitted
	case ExpenseStatusSubmitted:
		return next == ExpenseStatusApproved || next == ExpenseStatusRejected
	case ExpenseStatusApproved:
		return next == ExpenseStatusPaid
	}
	return false
}

// Expense is a spend request tracked against a budget line. It never
// touches ledger balances directly.
type Expense struct {
	ID            int64           `json:"id"`
	ExpenseNumber string          `json:"expense_number"`
	ExpenseDate   time.Time       `json:"expense_date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	AccountID     int64           `json:"account_id"`
	DepartmentID  *string         `json:"department_id,omitempty"`
	ProjectID     *string         `json:"project_id,omitempty"`
	Status        ExpenseStatus   `json:"status"`
	SubmittedBy   string          `json:"submitted_by"`
	ApprovedBy    *string         `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	ApprovalNotes *string         `json:"approval_notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     *time.Time      `json:"-"`
}

type ExpenseCreate struct {
	ExpenseDate  time.Time
	Description  string
	Amount       decimal.Decimal
	AccountID    int64
	DepartmentID *string
	ProjectID    *string
	SubmittedBy  string
}

type ExpenseFilter struct {
	Status       *ExpenseStatus
	AccountID    *int64
	DepartmentID *string
	DateFrom     *time.Time
	DateTo       *time.Time
}

func (c ExpenseCreate) Validate() error {
	if c.Description == "" {
		return Validation("description", "required")
	}
	if !c.Amount.IsPositive() {
		return Validation("amount", "must be positive")
	}
	if c.Amount.Exponent() < -2 {
		return Validation("amount", "more than two decimal places")
	}
	if c.AccountID == 0 {
		return Validation("account_id", "required")
	}
	return nil
}
