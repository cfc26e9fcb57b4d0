package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType separates cash coming in from cash going out.
type PaymentType string

const (
	PaymentTypeReceipt PaymentType = "receipt"
	PaymentTypePayment PaymentType = "payment"
)

func (t PaymentType) IsValid() bool {
	return t == PaymentTypeReceipt || t == PaymentTypePayment
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodOther        PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck,
		PaymentMethodCreditCard, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentStatus lifecycle: pending -> completed | cancelled | failed.
// Completed, cancelled and failed are terminal.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	if s != PaymentStatusPending {
		return false
	}
	switch next {
	case PaymentStatusCompleted, PaymentStatusCancelled, PaymentStatusFailed:
		return true
	}
	return false
}

// Payment records money received or paid, optionally settling an
// invoice. Invoice-less payments confirm without touching any invoice.
type Payment struct {
	ID              int64           `json:"id"`
	PaymentNumber   string          `json:"payment_number"`
	PaymentType     PaymentType     `json:"payment_type"`
	InvoiceID       *int64          `json:"invoice_id,omitempty"`
	PaymentDate     time.Time       `json:"payment_date"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	CashAccountID   int64           `json:"cash_account_id"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Status          PaymentStatus   `json:"status"`
	Notes           *string         `json:"notes,omitempty"`
	ConfirmedBy     *string         `json:"confirmed_by,omitempty"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       *time.Time      `json:"-"`

	Invoice *Invoice `json:"invoice,omitempty"`
}

type PaymentCreate struct {
	PaymentType     PaymentType
	InvoiceID       *int64
	PaymentDate     time.Time
	Amount          decimal.Decimal
	PaymentMethod   PaymentMethod
	CashAccountID   int64
	ReferenceNumber *string
	Notes           *string
	CreatedBy       string
}

type PaymentFilter struct {
	PaymentType *PaymentType
	Status      *PaymentStatus
	InvoiceID   *int64
	DateFrom    *time.Time
	DateTo      *time.Time
}

// Validate checks the fields required before a payment can be recorded.
func (c PaymentCreate) Validate() error {
	if !c.PaymentType.IsValid() {
		return Validation("payment_type", "unknown type")
	}
	if !c.PaymentMethod.IsValid() {
		return Validation("payment_method", "unknown method")
	}
	if !c.Amount.IsPositive() {
		return Validation("amount", "must be positive")
	}
	if c.Amount.Exponent() < -2 {
		return Validation("amount", "more than two decimal places")
	}
	if c.InvoiceID != nil && *c.InvoiceID == 0 {
		return Validation("invoice_id", "must be a valid invoice")
	}
	if c.CashAccountID == 0 {
		return Validation("cash_account_id", "required")
	}
	return nil
}

// ApplyTo settles this payment against the invoice. The payment must be
// pending and must not exceed the invoice outstanding amount; the
// invoice must not be cancelled.
func (p *Payment) ApplyTo(inv *Invoice, now time.Time) error {
	if !p.Status.CanTransition(PaymentStatusCompleted) {
		return ErrInvalidState
	}
	if inv.Status == InvoiceStatusCancelled {
		return ErrInvalidState
	}
	if p.Amount.GreaterThan(inv.Outstanding()) {
		return ErrOverpayment
	}
	inv.PaidAmount = inv.PaidAmount.Add(p.Amount)
	inv.Status = inv.RecomputeStatus(now)
	p.Status = PaymentStatusCompleted
	return nil
}
