package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus lifecycle: draft -> approved -> active -> closed.
type BudgetStatus string

const (
	BudgetStatusDraft    BudgetStatus = "draft"
	BudgetStatusApproved BudgetStatus = "approved"
	BudgetStatusActive   BudgetStatus = "active"
	BudgetStatusClosed   BudgetStatus = "closed"
)

func (s BudgetStatus) CanTransition(next BudgetStatus) bool {
	switch s {
	case BudgetStatusDraft:
		return next == BudgetStatusApproved
	case BudgetStatusApproved:
		return next == BudgetStatusActive
	case BudgetStatusActive:
		return next == BudgetStatusClosed
	}
	return false
}

type BudgetPeriod string

const (
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodAnnual    BudgetPeriod = "annual"
)

func (p BudgetPeriod) IsValid() bool {
	switch p {
	case BudgetPeriodMonthly, BudgetPeriodQuarterly, BudgetPeriodAnnual:
		return true
	}
	return false
}

// Budget is a header whose totals roll up from its lines.
type Budget struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	FiscalYear     int             `json:"fiscal_year"`
	Period         BudgetPeriod    `json:"period"`
	DepartmentID   *string         `json:"department_id,omitempty"`
	ProjectID      *string         `json:"project_id,omitempty"`
	Status         BudgetStatus    `json:"status"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	TotalCommitted decimal.Decimal `json:"total_committed"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"-"`

	Lines []*BudgetLine `json:"lines,omitempty"`
}

// BudgetLine allocates an amount to one expense account within a budget.
type BudgetLine struct {
	ID              int64           `json:"id"`
	BudgetID        int64           `json:"budget_id"`
	AccountID       int64           `json:"account_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	SpentAmount     decimal.Decimal `json:"spent_amount"`
	CommittedAmount decimal.Decimal `json:"committed_amount"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Account *Account `json:"account,omitempty"`
}

type BudgetCreate struct {
	Name         string
	FiscalYear   int
	Period       BudgetPeriod
	DepartmentID *string
	ProjectID    *string
	CreatedBy    string
}

type BudgetLineAllocate struct {
	AccountID       int64
	AllocatedAmount decimal.Decimal
	Notes           *string
}

type BudgetFilter struct {
	FiscalYear   *int
	Status       *BudgetStatus
	DepartmentID *string
}

func (c BudgetCreate) Validate() error {
	if c.Name == "" {
		return Validation("name", "required")
	}
	if c.FiscalYear < 2000 || c.FiscalYear > 2100 {
		return Validation("fiscal_year", "out of range")
	}
	if !c.Period.IsValid() {
		return Validation("period", "unknown period")
	}
	return nil
}

func (a BudgetLineAllocate) Validate() error {
	if a.AccountID == 0 {
		return Validation("account_id", "required")
	}
	if a.AllocatedAmount.IsNegative() {
		return Validation("allocated_amount", "must not be negative")
	}
	if a.AllocatedAmount.Exponent() < -2 {
		return Validation("allocated_amount", "more than two decimal places")
	}
	return nil
}

// Remaining is allocated minus spent minus committed. May be negative.
func (l *BudgetLine) Remaining() decimal.Decimal {
	return l.AllocatedAmount.Sub(l.SpentAmount).Sub(l.CommittedAmount)
}

// Utilization returns (spent+committed)/allocated as a percentage,
// zero when nothing is allocated.
func (l *BudgetLine) Utilization() decimal.Decimal {
	if l.AllocatedAmount.IsZero() {
		return decimal.Zero
	}
	used := l.SpentAmount.Add(l.CommittedAmount)
	return used.Mul(oneHundred).Div(l.AllocatedAmount).Round(2)
}
