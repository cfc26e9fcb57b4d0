package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentCreateValidate(t *testing.T) {
	invoiceID := int64(1)
	base := PaymentCreate{
		PaymentType:   PaymentTypeReceipt,
		InvoiceID:     &invoiceID,
		Amount:        d("100.00"),
		PaymentMethod: PaymentMethodBankTransfer,
		CashAccountID: 2,
	}
	assert.NoError(t, base.Validate())

	badType := base
	badType.PaymentType = "wire"
	assert.Error(t, badType.Validate())

	badMethod := base
	badMethod.PaymentMethod = "barter"
	assert.Error(t, badMethod.Validate())

	zeroAmount := base
	zeroAmount.Amount = d("0")
	assert.Error(t, zeroAmount.Validate())

	precise := base
	precise.Amount = d("10.001")
	assert.Error(t, precise.Validate())

	// the invoice link is optional; GL-only payments validate without one
	noInvoice := base
	noInvoice.InvoiceID = nil
	assert.NoError(t, noInvoice.Validate())

	zeroInvoice := base
	zero := int64(0)
	zeroInvoice.InvoiceID = &zero
	assert.Error(t, zeroInvoice.Validate())
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentStatusPending.CanTransition(PaymentStatusCompleted))
	assert.True(t, PaymentStatusPending.CanTransition(PaymentStatusCancelled))
	assert.True(t, PaymentStatusPending.CanTransition(PaymentStatusFailed))

	for _, terminal := range []PaymentStatus{PaymentStatusCompleted, PaymentStatusCancelled, PaymentStatusFailed} {
		assert.False(t, terminal.CanTransition(PaymentStatusCompleted), "%s is terminal", terminal)
		assert.False(t, terminal.CanTransition(PaymentStatusPending), "%s is terminal", terminal)
	}
}

func TestApplyTo(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("partial then exact pays off", func(t *testing.T) {
		inv := &Invoice{Status: InvoiceStatusSent, TotalAmount: d("300.00"), PaidAmount: d("0"), DueDate: now.AddDate(0, 1, 0)}

		first := &Payment{Status: PaymentStatusPending, Amount: d("100.00")}
		require.NoError(t, first.ApplyTo(inv, now))
		assert.Equal(t, PaymentStatusCompleted, first.Status)
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
		assert.True(t, inv.PaidAmount.Equal(d("100.00")))

		second := &Payment{Status: PaymentStatusPending, Amount: d("200.00")}
		require.NoError(t, second.ApplyTo(inv, now))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.Outstanding().IsZero())
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		inv := &Invoice{Status: InvoiceStatusPartial, TotalAmount: d("300.00"), PaidAmount: d("250.00")}
		p := &Payment{Status: PaymentStatusPending, Amount: d("50.01")}
		assert.ErrorIs(t, p.ApplyTo(inv, now), ErrOverpayment)
		assert.Equal(t, PaymentStatusPending, p.Status)
		assert.True(t, inv.PaidAmount.Equal(d("250.00")), "rejected payment must not mutate")
	})

	t.Run("double confirm rejected", func(t *testing.T) {
		inv := &Invoice{Status: InvoiceStatusSent, TotalAmount: d("100.00")}
		p := &Payment{Status: PaymentStatusPending, Amount: d("100.00")}
		require.NoError(t, p.ApplyTo(inv, now))
		assert.ErrorIs(t, p.ApplyTo(inv, now), ErrInvalidState)
		assert.True(t, inv.PaidAmount.Equal(d("100.00")), "amount applied exactly once")
	})

	t.Run("cancelled invoice rejected", func(t *testing.T) {
		inv := &Invoice{Status: InvoiceStatusCancelled, TotalAmount: d("100.00")}
		p := &Payment{Status: PaymentStatusPending, Amount: d("100.00")}
		assert.ErrorIs(t, p.ApplyTo(inv, now), ErrInvalidState)
	})
}
