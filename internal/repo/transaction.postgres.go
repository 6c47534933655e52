package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"txn-store/internal/domain"

	"github.com/google/uuid"
)

const transactionColumns = `id, idempotency_key, amount, currency, description, status, created_at, updated_at`

type postgresTransactionRepo struct {
	db *sql.DB
}

// NewPostgresTransactionRepo expects the schema from database.Migrate.
func NewPostgresTransactionRepo(db *sql.DB) TransactionRepo {
	return &postgresTransactionRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID,
		&t.IdempotencyKey,
		&t.Amount,
		&t.Currency,
		&t.Description,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func (r *postgresTransactionRepo) Create(ctx context.Context, params domain.CreateParams) (domain.Transaction, bool, error) {
	nt, err := params.Validate()
	if err != nil {
		return domain.Transaction{}, false, err
	}

	// The unique index on idempotency_key makes the check and insert one statement.
	query := `
		INSERT INTO transactions (id, idempotency_key, amount, currency, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING ` + transactionColumns
	row := r.db.QueryRowContext(ctx, query,
		uuid.New(), nt.IdempotencyKey, nt.Amount, nt.Currency, nt.Description, domain.StatusPending.String(),
	)
	txn, err := scanTransaction(row)
	if err == nil {
		return txn, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, false, fmt.Errorf("insert transaction: %w", err)
	}

	row = r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = $1`,
		nt.IdempotencyKey,
	)
	txn, err = scanTransaction(row)
	if err != nil {
		return domain.Transaction{}, false, fmt.Errorf("load transaction by idempotency key: %w", err)
	}
	return txn, false, nil
}

func (r *postgresTransactionRepo) FindById(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return txn, nil
}

func (r *postgresTransactionRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE ($1 = '' OR status = $1)
		AND ($2 = '' OR currency = $2)
		ORDER BY seq
	`
	var status string
	if filter.Status != nil {
		status = filter.Status.String()
	}
	rows, err := r.db.QueryContext(ctx, query, status, domain.NormalizeCurrency(filter.Currency))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

func (r *postgresTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	current, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("lock transaction: %w", err)
	}

	if !domain.CanTransition(current.Status, status) {
		return domain.Transaction{}, fmt.Errorf("%w from %s to %s", domain.ErrInvalidTransition, current.Status, status)
	}

	row = tx.QueryRowContext(ctx, `
		UPDATE transactions
		SET status = $2,
		    updated_at = GREATEST(now(), created_at)
		WHERE id = $1
		RETURNING `+transactionColumns,
		id, status.String(),
	)
	updated, err := scanTransaction(row)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("update transaction status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Transaction{}, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}
