package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	Create(ctx context.Context, tx pgx.Tx, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*domain.Payment, error)
	List(ctx context.Context, filter *domain.PaymentFilter) ([]*domain.Payment, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, id int64, confirmedBy string) error
	MarkStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) error
	SoftDelete(ctx context.Context, id int64) error
	NextDocumentSeq(ctx context.Context, tx pgx.Tx, docType string, year int) (int64, error)
}

type paymentRepo struct {
	db *pgxpool.Pool
}

func NewPaymentRepo(db *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const paymentColumns = `
	id, payment_number, payment_type, invoice_id, payment_date, amount,
	payment_method, cash_account_id, reference_number, status, notes,
	confirmed_by, confirmed_at, created_by, created_at, updated_at
`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID,
		&p.PaymentNumber,
		&p.PaymentType,
		&p.InvoiceID,
		&p.PaymentDate,
		&p.Amount,
		&p.PaymentMethod,
		&p.CashAccountID,
		&p.ReferenceNumber,
		&p.Status,
		&p.Notes,
		&p.ConfirmedBy,
		&p.ConfirmedAt,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, payment_number, payment_type, invoice_id, payment_date,
			amount, payment_method, cash_account_id, reference_number,
			status, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		p.ID,
		p.PaymentNumber,
		p.PaymentType,
		p.InvoiceID,
		p.PaymentDate,
		p.Amount,
		p.PaymentMethod,
		p.CashAccountID,
		p.ReferenceNumber,
		p.Status,
		p.Notes,
		p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if domain.IsUniqueViolation(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepo) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1 AND deleted_at IS NULL
	`

	p, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// GetByIDWithLock locks the payment row FOR UPDATE so concurrent
// confirmations of the same payment serialize.
func (r *paymentRepo) GetByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	p, err := scanPayment(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	return p, nil
}

func (r *paymentRepo) List(ctx context.Context, filter *domain.PaymentFilter) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argIdx := 1

	if filter != nil {
		if filter.PaymentType != nil {
			query += fmt.Sprintf(" AND payment_type = $%d", argIdx)
			args = append(args, *filter.PaymentType)
			argIdx++
		}
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argIdx)
			args = append(args, *filter.Status)
			argIdx++
		}
		if filter.InvoiceID != nil {
			query += fmt.Sprintf(" AND invoice_id = $%d", argIdx)
			args = append(args, *filter.InvoiceID)
			argIdx++
		}
		if filter.DateFrom != nil {
			query += fmt.Sprintf(" AND payment_date >= $%d", argIdx)
			args = append(args, *filter.DateFrom)
			argIdx++
		}
		if filter.DateTo != nil {
			query += fmt.Sprintf(" AND payment_date <= $%d", argIdx)
			args = append(args, *filter.DateTo)
			argIdx++
		}
	}

	query += " ORDER BY payment_date DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *paymentRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id int64, confirmedBy string) error {
	query := `
		UPDATE payments
		SET status = 'completed', confirmed_by = $2, confirmed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query, id, confirmedBy)
	if err != nil {
		return fmt.Errorf("failed to mark payment completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// MarkStatus moves a payment between states with the current state
// guarded in the WHERE clause.
func (r *paymentRepo) MarkStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *paymentRepo) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE payments
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *paymentRepo) NextDocumentSeq(ctx context.Context, tx pgx.Tx, docType string, year int) (int64, error) {
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
