package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestJournalLineValidate(t *testing.T) {
	tests := []struct {
		name    string
		debit   string
		credit  string
		wantErr error
	}{
		{"debit only", "100.00", "0", nil},
		{"credit only", "0", "100.00", nil},
		{"both sides set", "50", "50", ErrAmbiguousLine},
		{"neither side set", "0", "0", ErrAmbiguousLine},
		{"negative debit", "-10", "0", Validation("amount", "must not be negative")},
		{"three decimal places", "10.005", "0", Validation("amount", "more than two decimal places")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := JournalLineCreate{AccountID: 1, Debit: d(tt.debit), Credit: d(tt.credit)}
			err := line.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr.Error())
			}
		})
	}
}

func TestJournalEntryBalance(t *testing.T) {
	entry := &JournalEntry{
		Status: EntryStatusDraft,
		Lines: []*JournalLine{
			{AccountID: 1, Debit: d("100.00")},
			{AccountID: 2, Credit: d("60.00")},
			{AccountID: 3, Credit: d("40.00")},
		},
	}

	debit, credit := entry.Totals()
	assert.True(t, debit.Equal(d("100.00")))
	assert.True(t, credit.Equal(d("100.00")))
	assert.True(t, entry.IsBalanced())
	assert.NoError(t, entry.ValidateForPosting())

	entry.Lines[2].Credit = d("39.99")
	assert.False(t, entry.IsBalanced())
	assert.ErrorIs(t, entry.ValidateForPosting(), ErrUnbalancedEntry)
}

func TestValidateForPosting(t *testing.T) {
	t.Run("no lines", func(t *testing.T) {
		entry := &JournalEntry{Status: EntryStatusDraft}
		assert.ErrorIs(t, entry.ValidateForPosting(), ErrNoLines)
	})

	t.Run("already posted", func(t *testing.T) {
		entry := &JournalEntry{
			Status: EntryStatusPosted,
			Lines: []*JournalLine{
				{Debit: d("10")},
				{Credit: d("10")},
			},
		}
		assert.ErrorIs(t, entry.ValidateForPosting(), ErrInvalidState)
	})

	t.Run("reversed", func(t *testing.T) {
		entry := &JournalEntry{Status: EntryStatusReversed}
		assert.ErrorIs(t, entry.ValidateForPosting(), ErrInvalidState)
	})
}

func TestEntryStatusTransitions(t *testing.T) {
	assert.True(t, EntryStatusDraft.CanTransition(EntryStatusPosted))
	assert.True(t, EntryStatusPosted.CanTransition(EntryStatusReversed))

	assert.False(t, EntryStatusDraft.CanTransition(EntryStatusReversed))
	assert.False(t, EntryStatusPosted.CanTransition(EntryStatusPosted))
	assert.False(t, EntryStatusReversed.CanTransition(EntryStatusPosted))
	assert.False(t, EntryStatusReversed.CanTransition(EntryStatusDraft))
}

func TestReversalLinesSwapSides(t *testing.T) {
	desc := "rent"
	entry := &JournalEntry{
		Status: EntryStatusPosted,
		Lines: []*JournalLine{
			{AccountID: 10, Description: &desc, Debit: d("250.00"), Credit: decimal.Zero},
			{AccountID: 20, Debit: decimal.Zero, Credit: d("250.00")},
		},
	}

	rev := entry.ReversalLines()
	require.Len(t, rev, 2)

	assert.Equal(t, int64(10), rev[0].AccountID)
	assert.True(t, rev[0].Debit.IsZero())
	assert.True(t, rev[0].Credit.Equal(d("250.00")))
	assert.Equal(t, &desc, rev[0].Description)

	assert.Equal(t, int64(20), rev[1].AccountID)
	assert.True(t, rev[1].Debit.Equal(d("250.00")))
	assert.True(t, rev[1].Credit.IsZero())
}

// Posting an entry and then its reversal must leave every account where
// it started.
func TestReversalNetsToZero(t *testing.T) {
	cash := &Account{AccountType: AccountTypeAsset, Balance: d("1000.00")}
	revenue := &Account{AccountType: AccountTypeRevenue, Balance: d("500.00")}

	entry := &JournalEntry{
		Status: EntryStatusPosted,
		Lines: []*JournalLine{
			{AccountID: 1, Debit: d("300.00")},
			{AccountID: 2, Credit: d("300.00")},
		},
	}

	cash.Balance = cash.ApplyLine(entry.Lines[0].Debit, entry.Lines[0].Credit)
	revenue.Balance = revenue.ApplyLine(entry.Lines[1].Debit, entry.Lines[1].Credit)
	assert.True(t, cash.Balance.Equal(d("1300.00")))
	assert.True(t, revenue.Balance.Equal(d("800.00")))

	for i, l := range entry.ReversalLines() {
		switch i {
		case 0:
			cash.Balance = cash.ApplyLine(l.Debit, l.Credit)
		case 1:
			revenue.Balance = revenue.ApplyLine(l.Debit, l.Credit)
		}
	}
	assert.True(t, cash.Balance.Equal(d("1000.00")))
	assert.True(t, revenue.Balance.Equal(d("500.00")))
}
