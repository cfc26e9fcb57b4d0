package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary aggregates the headline finance figures.
type DashboardSummary struct {
	RevenueThisMonth  decimal.Decimal `json:"revenue_this_month"`
	OutstandingAR     decimal.Decimal `json:"outstanding_ar"`
	OverdueInvoices   int64           `json:"overdue_invoices"`
	CashInThisMonth   decimal.Decimal `json:"cash_in_this_month"`
	CashOutThisMonth  decimal.Decimal `json:"cash_out_this_month"`
	BudgetAllocated   decimal.Decimal `json:"budget_allocated"`
	BudgetSpent       decimal.Decimal `json:"budget_spent"`
	BudgetCommitted   decimal.Decimal `json:"budget_committed"`
	BudgetUtilization decimal.Decimal `json:"budget_utilization"`
	AsOf              time.Time       `json:"as_of"`
}

// TrialBalanceRow is one account in a trial balance report.
type TrialBalanceRow struct {
	AccountID   int64           `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}
