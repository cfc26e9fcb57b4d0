package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JournalRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	Create(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id int64) (*domain.JournalEntry, error)
	GetByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*domain.JournalEntry, error)
	List(ctx context.Context, filter *domain.JournalEntryFilter) ([]*domain.JournalEntry, error)
	UpdateDraft(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error
	ReplaceLines(ctx context.Context, tx pgx.Tx, entryID int64, lines []*domain.JournalLine) error
	SoftDelete(ctx context.Context, id int64) error

	// Posting
	MarkPosted(ctx context.Context, tx pgx.Tx, id int64, postedBy string) error
	MarkReversed(ctx context.Context, tx pgx.Tx, id int64) error
	NextDocumentSeq(ctx context.Context, tx pgx.Tx, docType string, year int) (int64, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*domain.JournalLine, error)
}

type journalRepo struct {
	db *pgxpool.Pool
}

func NewJournalRepo(db *pgxpool.Pool) JournalRepository {
	return &journalRepo{db: db}
}

func (r *journalRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const entryColumns = `
	id, entry_number, entry_date, description, reference_number, status,
	posted_by, posted_at, reversed_entry_id, created_by, created_at, updated_at
`

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := row.Scan(
		&e.ID,
		&e.EntryNumber,
		&e.EntryDate,
		&e.Description,
		&e.ReferenceNumber,
		&e.Status,
		&e.PostedBy,
		&e.PostedAt,
		&e.ReversedEntryID,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts the entry header and its lines inside tx.
func (r *journalRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (
			id, entry_number, entry_date, description, reference_number,
			status, reversed_entry_id, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		entry.ID,
		entry.EntryNumber,
		entry.EntryDate,
		entry.Description,
		entry.ReferenceNumber,
		entry.Status,
		entry.ReversedEntryID,
		entry.CreatedBy,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		if domain.IsUniqueViolation(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return r.insertLines(ctx, tx, entry.ID, entry.Lines)
}

func (r *journalRepo) insertLines(ctx context.Context, tx pgx.Tx, entryID int64, lines []*domain.JournalLine) error {
	query := `
		INSERT INTO journal_lines (
			id, entry_id, account_id, description, debit, credit,
			project_id, department_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	for _, l := range lines {
		l.EntryID = entryID
		err := tx.QueryRow(ctx, query,
			l.ID, l.EntryID, l.AccountID, l.Description,
			l.Debit, l.Credit, l.ProjectID, l.DepartmentID,
		).Scan(&l.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create journal line: %w", err)
		}
	}
	return nil
}

func (r *journalRepo) GetByID(ctx context.Context, id int64) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE id = $1 AND deleted_at IS NULL
	`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	return entry, nil
}

// GetByIDWithLock locks the entry header FOR UPDATE inside tx so
// concurrent post and reverse calls on the same entry serialize.
func (r *journalRepo) GetByIDWithLock(ctx context.Context, tx pgx.Tx, id int64) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	entry, err := scanEntry(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock journal entry: %w", err)
	}

	lines, err := r.loadLinesTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	return entry, nil
}

const lineColumns = `
	l.id, l.entry_id, l.account_id, l.description, l.debit, l.credit,
	l.project_id, l.department_id, l.created_at
`

func scanLine(row pgx.Row) (*domain.JournalLine, error) {
	var l domain.JournalLine
	err := row.Scan(
		&l.ID,
		&l.EntryID,
		&l.AccountID,
		&l.Description,
		&l.Debit,
		&l.Credit,
		&l.ProjectID,
		&l.DepartmentID,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *journalRepo) loadLines(ctx context.Context, entryID int64) ([]*domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines l
		WHERE l.entry_id = $1
		ORDER BY l.id ASC
	`

	rows, err := r.db.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal lines: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}

func (r *journalRepo) loadLinesTx(ctx context.Context, tx pgx.Tx, entryID int64) ([]*domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines l
		WHERE l.entry_id = $1
		ORDER BY l.id ASC
	`

	rows, err := tx.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal lines: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}

func collectLines(rows pgx.Rows) ([]*domain.JournalLine, error) {
	var lines []*domain.JournalLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *journalRepo) List(ctx context.Context, filter *domain.JournalEntryFilter) ([]*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
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
		if filter.DateFrom != nil {
			query += fmt.Sprintf(" AND entry_date >= $%d", argIdx)
			args = append(args, *filter.DateFrom)
			argIdx++
		}
		if filter.DateTo != nil {
			query += fmt.Sprintf(" AND entry_date <= $%d", argIdx)
			args = append(args, *filter.DateTo)
			argIdx++
		}
		if filter.Search != nil {
			query += fmt.Sprintf(" AND (entry_number ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx)
			args = append(args, "%"+*filter.Search+"%")
			argIdx++
		}
	}

	query += " ORDER BY entry_date DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateDraft rewrites the header fields of a draft entry in the same
// transaction that rewrites its lines. The status guard lives in the
// WHERE clause so posted entries are never touched.
func (r *journalRepo) UpdateDraft(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error {
	query := `
		UPDATE journal_entries
		SET entry_date = $2, description = $3, reference_number = $4,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query,
		entry.ID, entry.EntryDate, entry.Description, entry.ReferenceNumber)
	if err != nil {
		return fmt.Errorf("failed to update journal entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *journalRepo) ReplaceLines(ctx context.Context, tx pgx.Tx, entryID int64, lines []*domain.JournalLine) error {
	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1`, entryID); err != nil {
		return fmt.Errorf("failed to clear journal lines: %w", err)
	}
	return r.insertLines(ctx, tx, entryID, lines)
}

func (r *journalRepo) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE journal_entries
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *journalRepo) MarkPosted(ctx context.Context, tx pgx.Tx, id int64, postedBy string) error {
	query := `
		UPDATE journal_entries
		SET status = 'posted', posted_by = $2, posted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query, id, postedBy)
	if err != nil {
		return fmt.Errorf("failed to mark entry posted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *journalRepo) MarkReversed(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `
		UPDATE journal_entries
		SET status = 'reversed', updated_at = NOW()
		WHERE id = $1 AND status = 'posted' AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark entry reversed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// NextDocumentSeq bumps and returns the per-type per-year document
// counter. The upsert takes a row lock, so concurrent callers get
// distinct sequence numbers.
func (r *journalRepo) NextDocumentSeq(ctx context.Context, tx pgx.Tx, docType string, year int) (int64, error) {
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

func (r *journalRepo) ListByAccount(ctx context.Context, accountID int64) ([]*domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines l
		INNER JOIN journal_entries e ON e.id = l.entry_id
		WHERE l.account_id = $1 AND e.deleted_at IS NULL
		ORDER BY l.id DESC
	`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines by account: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}
