package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBudgetStatusTransitions(t *testing.T) {
	assert.True(t, BudgetStatusDraft.CanTransition(BudgetStatusApproved))
	assert.True(t, BudgetStatusApproved.CanTransition(BudgetStatusActive))
	assert.True(t, BudgetStatusActive.CanTransition(BudgetStatusClosed))

	assert.False(t, BudgetStatusDraft.CanTransition(BudgetStatusActive))
	assert.False(t, BudgetStatusApproved.CanTransition(BudgetStatusClosed))
	assert.False(t, BudgetStatusClosed.CanTransition(BudgetStatusActive))
	assert.False(t, BudgetStatusActive.CanTransition(BudgetStatusDraft))
}

func TestBudgetCreateValidate(t *testing.T) {
	base := BudgetCreate{Name: "Ops 2026", FiscalYear: 2026, Period: BudgetPeriodAnnual}
	assert.NoError(t, base.Validate())

	noName := base
	noName.Name = ""
	assert.Error(t, noName.Validate())

	badYear := base
	badYear.FiscalYear = 1999
	assert.Error(t, badYear.Validate())

	badPeriod := base
	badPeriod.Period = "weekly"
	assert.Error(t, badPeriod.Validate())
}

func TestBudgetLineAllocateValidate(t *testing.T) {
	assert.NoError(t, BudgetLineAllocate{AccountID: 1, AllocatedAmount: d("1000.00")}.Validate())
	assert.Error(t, BudgetLineAllocate{AllocatedAmount: d("1000.00")}.Validate())
	assert.Error(t, BudgetLineAllocate{AccountID: 1, AllocatedAmount: d("-1")}.Validate())
	assert.Error(t, BudgetLineAllocate{AccountID: 1, AllocatedAmount: d("0.005")}.Validate())
}

func TestBudgetLineRemaining(t *testing.T) {
	line := &BudgetLine{
		AllocatedAmount: d("1000.00"),
		SpentAmount:     d("300.00"),
		CommittedAmount: d("250.00"),
	}
	assert.True(t, line.Remaining().Equal(d("450.00")))

	line.CommittedAmount = d("800.00")
	assert.True(t, line.Remaining().Equal(d("-100.00")), "remaining may go negative")
}

func TestBudgetLineUtilization(t *testing.T) {
	line := &BudgetLine{
		AllocatedAmount: d("1000.00"),
		SpentAmount:     d("300.00"),
		CommittedAmount: d("200.00"),
	}
	assert.True(t, line.Utilization().Equal(d("50.00")))

	empty := &BudgetLine{AllocatedAmount: decimal.Zero, SpentAmount: d("10")}
	assert.True(t, empty.Utilization().IsZero())
}
