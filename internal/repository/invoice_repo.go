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

type InvoiceRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	Create(ctx context.Context, tx pgx.Tx, inv *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*domain.Invoice, error)
	List(ctx context.Context, filter *domain.InvoiceFilter) ([]*domain.Invoice, error)
	UpdateDraft(ctx context.Context, tx pgx.Tx, inv *domain.Invoice) error
	UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) error
	ApplyPayment(ctx context.Context, tx pgx.Tx, id int64, paidAmount decimal.Decimal, status domain.InvoiceStatus) error
	SoftDelete(ctx context.Context, id int64) error
	HasCompletedPayments(ctx context.Context, id int64) (bool, error)
	NextDocumentSeq(ctx context.Context, tx pgx.Tx, docType string, year int) (int64, error)
}

type invoiceRepo struct {
	db *pgxpool.Pool
}

func NewInvoiceRepo(db *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const invoiceColumns = `
	id, invoice_number, invoice_type, client_id, project_id, invoice_date,
	due_date, status, subtotal, tax_amount, discount_amount, total_amount,
	paid_amount, payment_terms, notes, created_by, created_at, updated_at
`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.InvoiceType,
		&inv.ClientID,
		&inv.ProjectID,
		&inv.InvoiceDate,
		&inv.DueDate,
		&inv.Status,
		&inv.Subtotal,
		&inv.TaxAmount,
		&inv.DiscountAmount,
		&inv.TotalAmount,
		&inv.PaidAmount,
		&inv.PaymentTerms,
		&inv.Notes,
		&inv.CreatedBy,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) Create(ctx context.Context, tx pgx.Tx, inv *domain.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, invoice_number, invoice_type, client_id, project_id,
			invoice_date, due_date, status, subtotal, tax_amount,
			discount_amount, total_amount, paid_amount, payment_terms,
			notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		inv.ID,
		inv.InvoiceNumber,
		inv.InvoiceType,
		inv.ClientID,
		inv.ProjectID,
		inv.InvoiceDate,
		inv.DueDate,
		inv.Status,
		inv.Subtotal,
		inv.TaxAmount,
		inv.DiscountAmount,
		inv.TotalAmount,
		inv.PaidAmount,
		inv.PaymentTerms,
		inv.Notes,
		inv.CreatedBy,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)

	if err != nil {
		if domain.IsUniqueViolation(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return r.insertLines(ctx, tx, inv.ID, inv.Lines)
}

func (r *invoiceRepo) insertLines(ctx context.Context, tx pgx.Tx, invoiceID int64, lines []*domain.InvoiceLine) error {
	query := `
		INSERT INTO invoice_lines (
			id, invoice_id, description, quantity, unit_price,
			discount_pct, tax_rate, amount, account_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, l := range lines {
		l.InvoiceID = invoiceID
		_, err := tx.Exec(ctx, query,
			l.ID, l.InvoiceID, l.Description, l.Quantity, l.UnitPrice,
			l.DiscountPct, l.TaxRate, l.Amount, l.AccountID,
		)
		if err != nil {
			return fmt.Errorf("failed to create invoice line: %w", err)
		}
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND deleted_at IS NULL
	`

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return inv, nil
}

func (r *invoiceRepo) GetByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	inv, err := scanInvoice(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock invoice: %w", err)
	}
	return inv, nil
}

func (r *invoiceRepo) loadLines(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price,
		       discount_pct, tax_rate, amount, account_id
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []*domain.InvoiceLine
	for rows.Next() {
		var l domain.InvoiceLine
		err := rows.Scan(
			&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.DiscountPct, &l.TaxRate, &l.Amount, &l.AccountID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

func (r *invoiceRepo) List(ctx context.Context, filter *domain.InvoiceFilter) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argIdx := 1

	if filter != nil {
		if filter.InvoiceType != nil {
			query += fmt.Sprintf(" AND invoice_type = $%d", argIdx)
			args = append(args, *filter.InvoiceType)
			argIdx++
		}
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argIdx)
			args = append(args, *filter.Status)
			argIdx++
		}
		if filter.ClientID != nil {
			query += fmt.Sprintf(" AND client_id = $%d", argIdx)
			args = append(args, *filter.ClientID)
			argIdx++
		}
		if filter.DateFrom != nil {
			query += fmt.Sprintf(" AND invoice_date >= $%d", argIdx)
			args = append(args, *filter.DateFrom)
			argIdx++
		}
		if filter.DateTo != nil {
			query += fmt.Sprintf(" AND invoice_date <= $%d", argIdx)
			args = append(args, *filter.DateTo)
			argIdx++
		}
		if filter.Search != nil {
			query += fmt.Sprintf(" AND (invoice_number ILIKE $%d OR notes ILIKE $%d)", argIdx, argIdx)
			args = append(args, "%"+*filter.Search+"%")
			argIdx++
		}
	}

	query += " ORDER BY invoice_date DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// UpdateDraft rewrites a draft invoice header, its recomputed totals
// and its lines in one transaction.
func (r *invoiceRepo) UpdateDraft(ctx context.Context, tx pgx.Tx, inv *domain.Invoice) error {
	query := `
		UPDATE invoices
		SET client_id = $2, project_id = $3, invoice_date = $4, due_date = $5,
		    subtotal = $6, tax_amount = $7, discount_amount = $8,
		    total_amount = $9, payment_terms = $10, notes = $11,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query,
		inv.ID, inv.ClientID, inv.ProjectID, inv.InvoiceDate, inv.DueDate,
		inv.Subtotal, inv.TaxAmount, inv.DiscountAmount, inv.TotalAmount,
		inv.PaymentTerms, inv.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, inv.ID); err != nil {
		return fmt.Errorf("failed to clear invoice lines: %w", err)
	}
	return r.insertLines(ctx, tx, inv.ID, inv.Lines)
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) error {
	query := `
		UPDATE invoices
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyPayment writes the settled paid amount and derived status under
// the row lock taken by GetByIDWithLock.
func (r *invoiceRepo) ApplyPayment(ctx context.Context, tx pgx.Tx, id int64, paidAmount decimal.Decimal, status domain.InvoiceStatus) error {
	query := `
		UPDATE invoices
		SET paid_amount = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query, id, paidAmount, status)
	if err != nil {
		return fmt.Errorf("failed to apply payment to invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE invoices
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) HasCompletedPayments(ctx context.Context, id int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM payments
			WHERE invoice_id = $1 AND status = 'completed' AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check invoice payments: %w", err)
	}
	return exists, nil
}

func (r *invoiceRepo) NextDocumentSeq(ctx context.Context, tx pgx.Tx, docType string, year int) (int64, error) {
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
