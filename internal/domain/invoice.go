package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes money owed to us from money we owe.
type InvoiceType string

const (
	InvoiceTypeSales    InvoiceType = "sales"
	InvoiceTypePurchase InvoiceType = "purchase"
	InvoiceTypeProforma InvoiceType = "proforma"
)

func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeSales, InvoiceTypePurchase, InvoiceTypeProforma:
		return true
	}
	return false
}

// InvoiceStatus is derived from payments and dates, except for the
// sticky cancelled state and the manual draft->sent step.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice tracks an amount owed and how much of it has been settled.
type Invoice struct {
	ID             int64           `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	InvoiceType    InvoiceType     `json:"invoice_type"`
	ClientID       *string         `json:"client_id,omitempty"`
	ProjectID      *string         `json:"project_id,omitempty"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	DueDate        time.Time       `json:"due_date"`
	Status         InvoiceStatus   `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentTerms   *string         `json:"payment_terms,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"-"`

	Lines []*InvoiceLine `json:"lines,omitempty"`
}

// InvoiceLine is one billed item. Amount is derived, never stored from input.
type InvoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   *int64          `json:"account_id,omitempty"`
}

type InvoiceCreate struct {
	InvoiceType    InvoiceType
	ClientID       *string
	ProjectID      *string
	InvoiceDate    time.Time
	DueDate        time.Time
	DiscountAmount decimal.Decimal
	PaymentTerms   *string
	Notes          *string
	CreatedBy      string
	Lines          []InvoiceLineCreate
}

type InvoiceLineCreate struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxRate     decimal.Decimal
	AccountID   *int64
}

type InvoiceFilter struct {
	InvoiceType *InvoiceType
	Status      *InvoiceStatus
	ClientID    *string
	DateFrom    *time.Time
	DateTo      *time.Time
	Search      *string
}

// Validate checks one invoice line in isolation.
func (l InvoiceLineCreate) Validate() error {
	if l.Description == "" {
		return Validation("description", "required")
	}
	if !l.Quantity.IsPositive() {
		return Validation("quantity", "must be positive")
	}
	if l.UnitPrice.IsNegative() {
		return Validation("unit_price", "must not be negative")
	}
	if l.DiscountPct.IsNegative() || l.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
		return Validation("discount_pct", "must be between 0 and 100")
	}
	if l.TaxRate.IsNegative() {
		return Validation("tax_rate", "must not be negative")
	}
	return nil
}

var oneHundred = decimal.NewFromInt(100)

// Net returns quantity * unit price less the line discount, rounded to 2dp.
func (l InvoiceLineCreate) Net() decimal.Decimal {
	gross := l.Quantity.Mul(l.UnitPrice)
	discount := gross.Mul(l.DiscountPct).Div(oneHundred)
	return gross.Sub(discount).Round(2)
}

// Tax returns the tax charged on the net line amount, rounded to 2dp.
func (l InvoiceLineCreate) Tax() decimal.Decimal {
	return l.Net().Mul(l.TaxRate).Div(oneHundred).Round(2)
}

// ComputeTotals derives subtotal and tax from the given lines and the
// total after the invoice-level discount.
func ComputeTotals(lines []InvoiceLineCreate, discount decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	for _, l := range lines {
		subtotal = subtotal.Add(l.Net())
		tax = tax.Add(l.Tax())
	}
	return subtotal, tax, subtotal.Add(tax).Sub(discount)
}

// Outstanding returns total minus paid.
func (i *Invoice) Outstanding() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// RecomputeStatus derives the invoice status from its amounts and due
// date as of now. Cancelled is sticky and draft stays draft until sent.
func (i *Invoice) RecomputeStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceStatusCancelled {
		return InvoiceStatusCancelled
	}
	if i.PaidAmount.GreaterThanOrEqual(i.TotalAmount) && i.TotalAmount.IsPositive() {
		return InvoiceStatusPaid
	}
	if i.PaidAmount.IsPositive() {
		return InvoiceStatusPartial
	}
	if i.Status == InvoiceStatusDraft {
		return InvoiceStatusDraft
	}
	if now.After(i.DueDate) {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusSent
}

// CanSend reports whether the invoice may move from draft to sent.
func (i *Invoice) CanSend() bool {
	return i.Status == InvoiceStatusDraft
}

// CanCancel reports whether the invoice may be cancelled. Invoices with
// any recorded payment must be refunded first.
func (i *Invoice) CanCancel() bool {
	if i.Status == InvoiceStatusCancelled || i.Status == InvoiceStatusPaid {
		return false
	}
	return i.PaidAmount.IsZero()
}
