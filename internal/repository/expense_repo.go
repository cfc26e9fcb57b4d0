package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExpenseRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	Create(ctx context.Context, tx pgx.Tx, e *domain.Expense) error
	GetByID(ctx context.Context, id int64) (*domain.Expense, error)
	GetByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*domain.Expense, error)
	List(ctx context.Context, filter *domain.ExpenseFilter) ([]*domain.Expense, error)
	UpdateDraft(ctx context.Context, e *domain.Expense) error
	MarkSubmitted(ctx context.Context, id int64) error
	MarkDecided(ctx context.Context, tx pgx.Tx, id int64, status domain.ExpenseStatus, approvedBy string, notes *string) error
	MarkPaid(ctx context.Context, tx pgx.Tx, id int64) error
	SoftDelete(ctx context.Context, id int64) error
	NextDocumentSeq(ctx context.Context, tx pgx.Tx, docType string, year int) (int64, error)
}

type expenseRepo struct {
	db *pgxpool.Pool
}

func NewExpenseRepo(db *pgxpool.Pool) ExpenseRepository {
	return &expenseRepo{db: db}
}

func (r *expenseRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const expenseColumns = `
	id, expense_number, expense_date, description, amount, account_id,
	department_id, project_id, status, submitted_by, approved_by,
	approved_at, approval_notes, created_at, updated_at
`

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(
		&e.ID,
		&e.ExpenseNumber,
		&e.ExpenseDate,
		&e.Description,
		&e.Amount,
		&e.AccountID,
		&e.DepartmentID,
		&e.ProjectID,
		&e.Status,
		&e.SubmittedBy,
		&e.ApprovedBy,
		&e.ApprovedAt,
		&e.ApprovalNotes,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expenseRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Expense) error {
	query := `
		INSERT INTO expenses (
			id, expense_number, expense_date, description, amount,
			account_id, department_id, project_id, status, submitted_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		e.ID,
		e.ExpenseNumber,
		e.ExpenseDate,
		e.Description,
		e.Amount,
		e.AccountID,
		e.DepartmentID,
		e.ProjectID,
		e.Status,
		e.SubmittedBy,
	).Scan(&e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		if domain.IsUniqueViolation(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (r *expenseRepo) GetByID(ctx context.Context, id int64) (*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE id = $1 AND deleted_at IS NULL
	`

	e, err := scanExpense(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

func (r *expenseRepo) GetByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	e, err := scanExpense(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock expense: %w", err)
	}
	return e, nil
}

func (r *expenseRepo) List(ctx context.Context, filter *domain.ExpenseFilter) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argIdx := 1

	if filter != nil {
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argIdx)
			args = append(args, *filter.Status)
			argIdx++
		}
		if filter.AccountID != nil {
			query += fmt.Sprintf(" AND account_id = $%d", argIdx)
			args = append(args, *filter.AccountID)
			argIdx++
		}
		if filter.DepartmentID != nil {
			query += fmt.Sprintf(" AND department_id = $%d", argIdx)
			args = append(args, *filter.DepartmentID)
			argIdx++
		}
		if filter.DateFrom != nil {
			query += fmt.Sprintf(" AND expense_date >= $%d", argIdx)
			args = append(args, *filter.DateFrom)
			argIdx++
		}
		if filter.DateTo != nil {
			query += fmt.Sprintf(" AND expense_date <= $%d", argIdx)
			args = append(args, *filter.DateTo)
			argIdx++
		}
	}

	query += " ORDER BY expense_date DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *expenseRepo) UpdateDraft(ctx context.Context, e *domain.Expense) error {
	query := `
		UPDATE expenses
		SET expense_date = $2, description = $3, amount = $4, account_id = $5,
		    department_id = $6, project_id = $7, updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query,
		e.ID, e.ExpenseDate, e.Description, e.Amount, e.AccountID,
		e.DepartmentID, e.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *expenseRepo) MarkSubmitted(ctx context.Context, id int64) error {
	query := `
		UPDATE expenses
		SET status = 'submitted', updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to submit expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// MarkDecided records an approve or reject decision on a submitted expense.
func (r *expenseRepo) MarkDecided(ctx context.Context, tx pgx.Tx, id int64, status domain.ExpenseStatus, approvedBy string, notes *string) error {
	query := `
		UPDATE expenses
		SET status = $2, approved_by = $3, approved_at = NOW(),
		    approval_notes = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'submitted' AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query, id, status, approvedBy, notes)
	if err != nil {
		return fmt.Errorf("failed to decide expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *expenseRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `
		UPDATE expenses
		SET status = 'paid', updated_at = NOW()
		WHERE id = $1 AND status = 'approved' AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark expense paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *expenseRepo) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE expenses
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *expenseRepo) NextDocumentSeq(ctx context.Context, tx pgx.Tx, docType string, year int) (int64, error) {
	query := `
		INSERT INTO document_counters (doc_type, year, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET last_seq = document_counters.last_seq + 1
		RETURNING last_seq
	`

	var seq int64
	if err := tx.QueryRow(ctx, query, docType, year).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to advance document counter: %w", err)
	}
	return seq, nil
}
