package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpenseStatusTransitions(t *testing.T) {
	assert.True(t, ExpenseStatusDraft.CanTransition(ExpenseStatusSubmitted))
	assert.True(t, ExpenseStatusSubmitted.CanTransition(ExpenseStatusApproved))
	assert.True(t, ExpenseStatusSubmitted.CanTransition(ExpenseStatusRejected))
	assert.True(t, ExpenseStatusApproved.CanTransition(ExpenseStatusPaid))

	assert.False(t, ExpenseStatusDraft.CanTransition(ExpenseStatusApproved))
	assert.False(t, ExpenseStatusRejected.CanTransition(ExpenseStatusApproved))
	assert.False(t, ExpenseStatusPaid.CanTransition(ExpenseStatusApproved))
	assert.False(t, ExpenseStatusApproved.CanTransition(ExpenseStatusRejected))
}

func TestExpenseCreateValidate(t *testing.T) {
	base := ExpenseCreate{Description: "taxi", Amount: d("45.50"), AccountID: 1, SubmittedBy: "emp-1"}
	assert.NoError(t, base.Validate())

	noDesc := base
	noDesc.Description = ""
	assert.Error(t, noDesc.Validate())

	zero := base
	zero.Amount = d("0")
	assert.Error(t, zero.Validate())

	precise := base
	precise.Amount = d("45.505")
	assert.Error(t, precise.Validate())

	noAccount := base
	noAccount.AccountID = 0
	assert.Error(t, noAccount.Validate())
}
