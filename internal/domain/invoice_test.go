package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceLineNetAndTax(t *testing.T) {
	line := InvoiceLineCreate{
		Description: "consulting",
		Quantity:    d("10"),
		UnitPrice:   d("150.00"),
		DiscountPct: d("10"),
		TaxRate:     d("11"),
	}

	// 10 * 150 = 1500, minus 10% = 1350, tax 11% = 148.50
	assert.True(t, line.Net().Equal(d("1350.00")), "net = %s", line.Net())
	assert.True(t, line.Tax().Equal(d("148.50")), "tax = %s", line.Tax())
}

func TestComputeTotals(t *testing.T) {
	lines := []InvoiceLineCreate{
		{Description: "a", Quantity: d("2"), UnitPrice: d("100.00"), TaxRate: d("11")},
		{Description: "b", Quantity: d("1"), UnitPrice: d("50.00")},
	}

	subtotal, tax, total := ComputeTotals(lines, decimal.Zero)
	assert.True(t, subtotal.Equal(d("250.00")))
	assert.True(t, tax.Equal(d("22.00")))
	assert.True(t, total.Equal(d("272.00")))
}

func TestComputeTotalsWithInvoiceDiscount(t *testing.T) {
	lines := []InvoiceLineCreate{
		{Description: "a", Quantity: d("2"), UnitPrice: d("100.00"), TaxRate: d("11")},
	}

	// subtotal 200, tax 22, minus a 50 invoice-level discount
	subtotal, tax, total := ComputeTotals(lines, d("50.00"))
	assert.True(t, subtotal.Equal(d("200.00")))
	assert.True(t, tax.Equal(d("22.00")))
	assert.True(t, total.Equal(d("172.00")))

	// a discount above subtotal+tax drives the total negative; callers
	// must reject that
	_, _, total = ComputeTotals(lines, d("300.00"))
	assert.True(t, total.IsNegative())
}

func TestInvoiceLineValidate(t *testing.T) {
	base := InvoiceLineCreate{Description: "x", Quantity: d("1"), UnitPrice: d("10")}
	assert.NoError(t, base.Validate())

	noDesc := base
	noDesc.Description = ""
	assert.Error(t, noDesc.Validate())

	zeroQty := base
	zeroQty.Quantity = d("0")
	assert.Error(t, zeroQty.Validate())

	bigDiscount := base
	bigDiscount.DiscountPct = d("101")
	assert.Error(t, bigDiscount.Validate())

	negTax := base
	negTax.TaxRate = d("-1")
	assert.Error(t, negTax.Validate())
}

func TestRecomputeStatus(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -5)
	future := now.AddDate(0, 0, 5)

	tests := []struct {
		name   string
		status InvoiceStatus
		total  string
		paid   string
		due    time.Time
		want   InvoiceStatus
	}{
		{"cancelled is sticky", InvoiceStatusCancelled, "100", "0", past, InvoiceStatusCancelled},
		{"fully paid", InvoiceStatusSent, "100", "100", past, InvoiceStatusPaid},
		{"partially paid", InvoiceStatusSent, "100", "40", future, InvoiceStatusPartial},
		{"partial even past due", InvoiceStatusSent, "100", "40", past, InvoiceStatusPartial},
		{"draft stays draft past due", InvoiceStatusDraft, "100", "0", past, InvoiceStatusDraft},
		{"sent past due", InvoiceStatusSent, "100", "0", past, InvoiceStatusOverdue},
		{"sent before due", InvoiceStatusSent, "100", "0", future, InvoiceStatusSent},
		{"overdue recovers before due", InvoiceStatusOverdue, "100", "0", future, InvoiceStatusSent},
		{"zero total never paid", InvoiceStatusDraft, "0", "0", future, InvoiceStatusDraft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{
				Status:      tt.status,
				TotalAmount: d(tt.total),
				PaidAmount:  d(tt.paid),
				DueDate:     tt.due,
			}
			assert.Equal(t, tt.want, inv.RecomputeStatus(now))
		})
	}
}

func TestOutstanding(t *testing.T) {
	inv := &Invoice{TotalAmount: d("272.00"), PaidAmount: d("72.00")}
	assert.True(t, inv.Outstanding().Equal(d("200.00")))
}

func TestCanSendAndCancel(t *testing.T) {
	draft := &Invoice{Status: InvoiceStatusDraft}
	assert.True(t, draft.CanSend())
	assert.True(t, draft.CanCancel())

	sent := &Invoice{Status: InvoiceStatusSent}
	assert.False(t, sent.CanSend())
	assert.True(t, sent.CanCancel())

	partial := &Invoice{Status: InvoiceStatusPartial, PaidAmount: d("10")}
	assert.False(t, partial.CanCancel(), "paid invoices need a refund first")

	paid := &Invoice{Status: InvoiceStatusPaid, PaidAmount: d("100")}
	assert.False(t, paid.CanCancel())

	cancelled := &Invoice{Status: InvoiceStatusCancelled}
	assert.False(t, cancelled.CanCancel())
}
