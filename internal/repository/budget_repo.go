package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BudgetRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	Create(ctx context.Context, b *domain.Budget) error
	GetByID(ctx context.Context, id int64) (*domain.Budget, error)
	List(ctx context.Context, filter *domain.BudgetFilter) ([]*domain.Budget, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BudgetStatus) error
	SoftDelete(ctx context.Context, id int64) error

	// Lines
	UpsertLine(ctx context.Context, tx pgx.Tx, line *domain.BudgetLine) error
	GetLineWithLock(ctx context.Context, tx pgx.Tx, budgetID, accountID int64) (*domain.BudgetLine, error)
	FindLineForExpense(ctx context.Context, tx pgx.Tx, accountID int64, departmentID, projectID *string) (*domain.BudgetLine, error)
	UpdateLineAmounts(ctx context.Context, tx pgx.Tx, lineID int64, spent, committed decimal.Decimal) error
	RefreshTotals(ctx context.Context, tx pgx.Tx, budgetID int64) error
}

type budgetRepo struct {
	db *pgxpool.Pool
}

func NewBudgetRepo(db *pgxpool.Pool) BudgetRepository {
	return &budgetRepo{db: db}
}

func (r *budgetRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const budgetColumns = `
	id, name, fiscal_year, period, department_id, project_id, status,
	total_allocated, total_spent, total_committed, created_by,
	created_at, updated_at
`

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var b domain.Budget
	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.FiscalYear,
		&b.Period,
		&b.DepartmentID,
		&b.ProjectID,
		&b.Status,
		&b.TotalAllocated,
		&b.TotalSpent,
		&b.TotalCommitted,
		&b.CreatedBy,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *budgetRepo) Create(ctx context.Context, b *domain.Budget) error {
	query := `
		INSERT INTO budgets (
			id, name, fiscal_year, period, department_id, project_id,
			status, total_allocated, total_spent, total_committed, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		b.ID,
		b.Name,
		b.FiscalYear,
		b.Period,
		b.DepartmentID,
		b.ProjectID,
		b.Status,
		b.TotalAllocated,
		b.TotalSpent,
		b.TotalCommitted,
		b.CreatedBy,
	).Scan(&b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

func (r *budgetRepo) GetByID(ctx context.Context, id int64) (*domain.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE id = $1 AND deleted_at IS NULL
	`

	b, err := scanBudget(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Lines = lines
	return b, nil
}

const budgetLineColumns = `
	id, budget_id, account_id, allocated_amount, spent_amount,
	committed_amount, notes, created_at, updated_at
`

func scanBudgetLine(row pgx.Row) (*domain.BudgetLine, error) {
	var l domain.BudgetLine
	err := row.Scan(
		&l.ID,
		&l.BudgetID,
		&l.AccountID,
		&l.AllocatedAmount,
		&l.SpentAmount,
		&l.CommittedAmount,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *budgetRepo) loadLines(ctx context.Context, budgetID int64) ([]*domain.BudgetLine, error) {
	query := `
		SELECT ` + budgetLineColumns + `
		FROM budget_lines
		WHERE budget_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget lines: %w", err)
	}
	defer rows.Close()

	var lines []*domain.BudgetLine
	for rows.Next() {
		l, err := scanBudgetLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *budgetRepo) List(ctx context.Context, filter *domain.BudgetFilter) ([]*domain.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argIdx := 1

	if filter != nil {
		if filter.FiscalYear != nil {
			query += fmt.Sprintf(" AND fiscal_year = $%d", argIdx)
			args = append(args, *filter.FiscalYear)
			argIdx++
		}
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argIdx)
			args = append(args, *filter.Status)
			argIdx++
		}
		if filter.DepartmentID != nil {
			query += fmt.Sprintf(" AND department_id = $%d", argIdx)
			args = append(args, *filter.DepartmentID)
			argIdx++
		}
	}

	query += " ORDER BY fiscal_year DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *budgetRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.BudgetStatus) error {
	query := `
		UPDATE budgets
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update budget status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *budgetRepo) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE budgets
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// UpsertLine creates the allocation row or overwrites its allocated
// amount when the (budget, account) pair already exists.
func (r *budgetRepo) UpsertLine(ctx context.Context, tx pgx.Tx, line *domain.BudgetLine) error {
	query := `
		INSERT INTO budget_lines (
			id, budget_id, account_id, allocated_amount, spent_amount,
			committed_amount, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (budget_id, account_id)
		DO UPDATE SET allocated_amount = EXCLUDED.allocated_amount,
		              notes = EXCLUDED.notes,
		              updated_at = NOW()
		RETURNING id, spent_amount, committed_amount, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		line.ID,
		line.BudgetID,
		line.AccountID,
		line.AllocatedAmount,
		line.SpentAmount,
		line.CommittedAmount,
		line.Notes,
	).Scan(&line.ID, &line.SpentAmount, &line.CommittedAmount, &line.CreatedAt, &line.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert budget line: %w", err)
	}
	return nil
}

func (r *budgetRepo) GetLineWithLock(ctx context.Context, tx pgx.Tx, budgetID, accountID int64) (*domain.BudgetLine, error) {
	query := `
		SELECT ` + budgetLineColumns + `
		FROM budget_lines
		WHERE budget_id = $1 AND account_id = $2
		FOR UPDATE
	`

	l, err := scanBudgetLine(tx.QueryRow(ctx, query, budgetID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock budget line: %w", err)
	}
	return l, nil
}

// FindLineForExpense locates the budget line an expense charges:
// matching account on an active budget, preferring department then
// project attribution, newest fiscal year first.
func (r *budgetRepo) FindLineForExpense(ctx context.Context, tx pgx.Tx, accountID int64, departmentID, projectID *string) (*domain.BudgetLine, error) {
	query := `
		SELECT ` + qualifyLineColumns("l") + `
		FROM budget_lines l
		INNER JOIN budgets b ON b.id = l.budget_id
		WHERE l.account_id = $1
		  AND b.status = 'active'
		  AND b.deleted_at IS NULL
		  AND (b.department_id = $2 OR ($2::text IS NULL AND b.department_id IS NULL))
		  AND (b.project_id = $3 OR ($3::text IS NULL AND b.project_id IS NULL))
		ORDER BY b.fiscal_year DESC, l.id ASC
		LIMIT 1
		FOR UPDATE OF l
	`

	l, err := scanBudgetLine(tx.QueryRow(ctx, query, accountID, departmentID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find budget line for expense: %w", err)
	}
	return l, nil
}

func qualifyLineColumns(alias string) string {
	return alias + `.id, ` + alias + `.budget_id, ` + alias + `.account_id, ` +
		alias + `.allocated_amount, ` + alias + `.spent_amount, ` +
		alias + `.committed_amount, ` + alias + `.notes, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

func (r *budgetRepo) UpdateLineAmounts(ctx context.Context, tx pgx.Tx, lineID int64, spent, committed decimal.Decimal) error {
	query := `
		UPDATE budget_lines
		SET spent_amount = $2, committed_amount = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, lineID, spent, committed)
	if err != nil {
		return fmt.Errorf("failed to update budget line amounts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RefreshTotals recomputes the header rollups from the lines.
func (r *budgetRepo) RefreshTotals(ctx context.Context, tx pgx.Tx, budgetID int64) error {
	query := `
		UPDATE budgets b
		SET total_allocated = COALESCE(t.allocated, 0),
		    total_spent = COALESCE(t.spent, 0),
		    total_committed = COALESCE(t.committed, 0),
		    updated_at = NOW()
		FROM (
			SELECT SUM(allocated_amount) AS allocated,
			       SUM(spent_amount) AS spent,
			       SUM(committed_amount) AS committed
			FROM budget_lines
			WHERE budget_id = $1
		) t
		WHERE b.id = $1
	`

	if _, err := tx.Exec(ctx, query, budgetID); err != nil {
		return fmt.Errorf("failed to refresh budget totals: %w", err)
	}
	return nil
}
