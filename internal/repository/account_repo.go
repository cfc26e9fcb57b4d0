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

type AccountRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	Create(ctx context.Context, acc *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	List(ctx context.Context, filter *domain.AccountFilter) ([]*domain.Account, error)
	Update(ctx context.Context, acc *domain.Account) error
	SoftDelete(ctx context.Context, id int64) error

	// Posting support
	GetByIDsWithLock(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance decimal.Decimal) error
	HasJournalLines(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type accountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const accountColumns = `
	id, code, name, account_type, parent_id, is_header, is_active,
	currency, description, balance, created_at, updated_at
`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.ID,
		&acc.Code,
		&acc.Name,
		&acc.AccountType,
		&acc.ParentID,
		&acc.IsHeader,
		&acc.IsActive,
		&acc.Currency,
		&acc.Description,
		&acc.Balance,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepo) Create(ctx context.Context, acc *domain.Account) error {
	query := `
		INSERT INTO accounts (
			id, code, name, account_type, parent_id, is_header, is_active,
			currency, description, balance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		acc.ID,
		acc.Code,
		acc.Name,
		acc.AccountType,
		acc.ParentID,
		acc.IsHeader,
		acc.IsActive,
		acc.Currency,
		acc.Description,
		acc.Balance,
	).Scan(&acc.CreatedAt, &acc.UpdatedAt)

	if err != nil {
		if domain.IsUniqueViolation(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND deleted_at IS NULL
	`

	acc, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (r *accountRepo) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE code = $1 AND deleted_at IS NULL
	`

	acc, err := scanAccount(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by code: %w", err)
	}
	return acc, nil
}

func (r *accountRepo) List(ctx context.Context, filter *domain.AccountFilter) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argIdx := 1

	if filter != nil {
		if filter.AccountType != nil {
			query += fmt.Sprintf(" AND account_type = $%d", argIdx)
			args = append(args, *filter.AccountType)
			argIdx++
		}
		if filter.IsActive != nil {
			query += fmt.Sprintf(" AND is_active = $%d", argIdx)
			args = append(args, *filter.IsActive)
			argIdx++
		}
		if filter.IsHeader != nil {
			query += fmt.Sprintf(" AND is_header = $%d", argIdx)
			args = append(args, *filter.IsHeader)
			argIdx++
		}
		if filter.Search != nil {
			query += fmt.Sprintf(" AND (code ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx)
			args = append(args, "%"+*filter.Search+"%")
			argIdx++
		}
	}

	query += " ORDER BY code ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *accountRepo) Update(ctx context.Context, acc *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, parent_id = $3, is_active = $4, description = $5,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query,
		acc.ID, acc.Name, acc.ParentID, acc.IsActive, acc.Description)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepo) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE accounts
		SET deleted_at = NOW(), is_active = false, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByIDsWithLock locks the given accounts FOR UPDATE inside tx.
// Rows come back ordered by id so every caller locks in the same order.
func (r *accountRepo) GetByIDsWithLock(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY id ASC
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[int64]*domain.Account, len(ids))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[acc.ID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := accounts[id]; !ok {
			return nil, fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
		}
	}
	return accounts, nil
}

func (r *accountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id int64, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := tx.Exec(ctx, query, id, balance)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepo) HasJournalLines(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM journal_lines WHERE account_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check journal lines: %w", err)
	}
	return exists, nil
}

func (r *accountRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}
