package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalBalance(t *testing.T) {
	assert.Equal(t, "debit", AccountTypeAsset.NormalBalance())
	assert.Equal(t, "debit", AccountTypeExpense.NormalBalance())
	assert.Equal(t, "credit", AccountTypeLiability.NormalBalance())
	assert.Equal(t, "credit", AccountTypeEquity.NormalBalance())
	assert.Equal(t, "credit", AccountTypeRevenue.NormalBalance())
}

func TestApplyLineSignRule(t *testing.T) {
	asset := &Account{AccountType: AccountTypeAsset, Balance: d("100.00")}
	assert.True(t, asset.ApplyLine(d("40.00"), d("0")).Equal(d("140.00")))
	assert.True(t, asset.ApplyLine(d("0"), d("40.00")).Equal(d("60.00")))

	revenue := &Account{AccountType: AccountTypeRevenue, Balance: d("100.00")}
	assert.True(t, revenue.ApplyLine(d("0"), d("40.00")).Equal(d("140.00")))
	assert.True(t, revenue.ApplyLine(d("40.00"), d("0")).Equal(d("60.00")))
}

func TestBalanceDelta(t *testing.T) {
	liability := &Account{AccountType: AccountTypeLiability, Balance: d("500.00")}
	assert.True(t, liability.BalanceDelta(d("0"), d("75.00")).Equal(d("75.00")))
	assert.True(t, liability.BalanceDelta(d("75.00"), d("0")).Equal(d("-75.00")))
	// delta never mutates
	assert.True(t, liability.Balance.Equal(d("500.00")))
}

func TestAssertPostable(t *testing.T) {
	header := &Account{IsHeader: true, IsActive: true}
	assert.ErrorIs(t, header.AssertPostable(), ErrHeaderAccountNotPostable)

	inactive := &Account{IsActive: false}
	assert.ErrorIs(t, inactive.AssertPostable(), ErrInvalidState)

	ok := &Account{IsActive: true}
	assert.NoError(t, ok.AssertPostable())
}

func TestDefaultChartShape(t *testing.T) {
	codes := map[string]bool{}
	headers := 0
	for _, acc := range DefaultChartOfAccounts {
		assert.False(t, codes[acc.Code], "duplicate code %s", acc.Code)
		codes[acc.Code] = true
		assert.True(t, acc.AccountType.IsValid())
		if acc.IsHeader {
			headers++
		}
	}
	assert.Equal(t, 5, headers)
	assert.True(t, codes["1100"], "seed chart must include a cash account")
}
