package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ReportRepository interface {
	GetDashboardSummary(ctx context.Context, now time.Time) (*domain.DashboardSummary, error)
	GetTrialBalance(ctx context.Context) ([]*domain.TrialBalanceRow, error)
}

type reportRepo struct {
	db *pgxpool.Pool
}

func NewReportRepo(db *pgxpool.Pool) ReportRepository {
	return &reportRepo{db: db}
}

// GetDashboardSummary runs the headline aggregates in one round trip each.
// All figures exclude soft-deleted rows.
func (r *reportRepo) GetDashboardSummary(ctx context.Context, now time.Time) (*domain.DashboardSummary, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	summary := &domain.DashboardSummary{AsOf: now}

	revenueQuery := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE invoice_type = 'sales'
		  AND status NOT IN ('draft', 'cancelled')
		  AND invoice_date >= $1
		  AND deleted_at IS NULL
	`
	if err := r.db.QueryRow(ctx, revenueQuery, monthStart).Scan(&summary.RevenueThisMonth); err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}

	arQuery := `
		SELECT COALESCE(SUM(total_amount - paid_amount), 0),
		       COUNT(*) FILTER (WHERE status = 'overdue' OR (status IN ('sent', 'partial') AND due_date < $1))
		FROM invoices
		WHERE invoice_type = 'sales'
		  AND status IN ('sent', 'partial', 'overdue')
		  AND deleted_at IS NULL
	`
	if err := r.db.QueryRow(ctx, arQuery, now).Scan(&summary.OutstandingAR, &summary.OverdueInvoices); err != nil {
		return nil, fmt.Errorf("failed to aggregate receivables: %w", err)
	}

	cashQuery := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE payment_type = 'receipt'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE payment_type = 'payment'), 0)
		FROM payments
		WHERE status = 'completed'
		  AND payment_date >= $1
		  AND deleted_at IS NULL
	`
	if err := r.db.QueryRow(ctx, cashQuery, monthStart).Scan(&summary.CashInThisMonth, &summary.CashOutThisMonth); err != nil {
		return nil, fmt.Errorf("failed to aggregate cash flow: %w", err)
	}

	budgetQuery := `
		SELECT COALESCE(SUM(total_allocated), 0),
		       COALESCE(SUM(total_spent), 0),
		       COALESCE(SUM(total_committed), 0)
		FROM budgets
		WHERE status = 'active' AND deleted_at IS NULL
	`
	if err := r.db.QueryRow(ctx, budgetQuery).Scan(
		&summary.BudgetAllocated, &summary.BudgetSpent, &summary.BudgetCommitted); err != nil {
		return nil, fmt.Errorf("failed to aggregate budgets: %w", err)
	}

	if summary.BudgetAllocated.IsPositive() {
		used := summary.BudgetSpent.Add(summary.BudgetCommitted)
		summary.BudgetUtilization = used.Mul(decimal.NewFromInt(100)).Div(summary.BudgetAllocated).Round(2)
	}

	return summary, nil
}

// GetTrialBalance lists every postable account with its balance split
// onto its normal side.
func (r *reportRepo) GetTrialBalance(ctx context.Context) ([]*domain.TrialBalanceRow, error) {
	query := `
		SELECT id, code, name, account_type, balance
		FROM accounts
		WHERE is_header = false AND deleted_at IS NULL
		ORDER BY code ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial balance: %w", err)
	}
	defer rows.Close()

	var out []*domain.TrialBalanceRow
	for rows.Next() {
		var row domain.TrialBalanceRow
		var balance decimal.Decimal
		if err := rows.Scan(&row.AccountID, &row.Code, &row.Name, &row.AccountType, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan trial balance row: %w", err)
		}
		if row.AccountType.NormalBalance() == "debit" {
			row.Debit = balance
		} else {
			row.Credit = balance
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}
