package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance returns "debit" or "credit" depending on which side
// increases the balance of this account type.
func (t AccountType) NormalBalance() string {
	if t == AccountTypeAsset || t == AccountTypeExpense {
		return "debit"
	}
	return "credit"
}

// Account is a node in the chart of accounts. Header accounts group
// children and never receive postings themselves.
type Account struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"account_type"`
	ParentID    *int64          `json:"parent_id,omitempty"`
	IsHeader    bool            `json:"is_header"`
	IsActive    bool            `json:"is_active"`
	Currency    string          `json:"currency"`
	Description *string         `json:"description,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"-"`

	Parent *Account `json:"parent,omitempty"`
}

// AccountCreate carries the fields accepted when creating an account.
type AccountCreate struct {
	Code        string
	Name        string
	AccountType AccountType
	ParentID    *int64
	IsHeader    bool
	Currency    string
	Description *string
}

// AccountUpdate carries the mutable fields; nil means unchanged.
type AccountUpdate struct {
	Name        *string
	ParentID    *int64
	IsActive    *bool
	Description *string
}

type AccountFilter struct {
	AccountType *AccountType
	IsActive    *bool
	IsHeader    *bool
	Search      *string
}

// AssertPostable returns an error when the account cannot receive
// journal lines.
func (a *Account) AssertPostable() error {
	if a.IsHeader {
		return ErrHeaderAccountNotPostable
	}
	if !a.IsActive {
		return ErrInvalidState
	}
	return nil
}

// ApplyLine returns the account balance after applying a posted line.
// Debits increase asset and expense balances; credits increase
// liability, equity and revenue balances.
func (a *Account) ApplyLine(debit, credit decimal.Decimal) decimal.Decimal {
	if a.AccountType.NormalBalance() == "debit" {
		return a.Balance.Add(debit).Sub(credit)
	}
	return a.Balance.Add(credit).Sub(debit)
}

// BalanceDelta returns the signed change a line contributes to this
// account's balance, without mutating it.
func (a *Account) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if a.AccountType.NormalBalance() == "debit" {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// DefaultChartOfAccounts is installed by the system seeder on first boot.
var DefaultChartOfAccounts = []AccountCreate{
	{Code: "1000", Name: "Assets", AccountType: AccountTypeAsset, IsHeader: true, Currency: "IDR"},
	{Code: "1100", Name: "Cash", AccountType: AccountTypeAsset, Currency: "IDR"},
	{Code: "1200", Name: "Bank", AccountType: AccountTypeAsset, Currency: "IDR"},
	{Code: "1300", Name: "Accounts Receivable", AccountType: AccountTypeAsset, Currency: "IDR"},
	{Code: "2000", Name: "Liabilities", AccountType: AccountTypeLiability, IsHeader: true, Currency: "IDR"},
	{Code: "2100", Name: "Accounts Payable", AccountType: AccountTypeLiability, Currency: "IDR"},
	{Code: "2200", Name: "Tax Payable", AccountType: AccountTypeLiability, Currency: "IDR"},
	{Code: "3000", Name: "Equity", AccountType: AccountTypeEquity, IsHeader: true, Currency: "IDR"},
	{Code: "3100", Name: "Retained Earnings", AccountType: AccountTypeEquity, Currency: "IDR"},
	{Code: "4000", Name: "Revenue", AccountType: AccountTypeRevenue, IsHeader: true, Currency: "IDR"},
	{Code: "4100", Name: "Service Revenue", AccountType: AccountTypeRevenue, Currency: "IDR"},
	{Code: "5000", Name: "Expenses", AccountType: AccountTypeExpense, IsHeader: true, Currency: "IDR"},
	{Code: "5100", Name: "Operating Expenses", AccountType: AccountTypeExpense, Currency: "IDR"},
	{Code: "5200", Name: "Salaries Expense", AccountType: AccountTypeExpense, Currency: "IDR"},
}
