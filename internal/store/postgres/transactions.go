package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"billbridge/internal/domain/transaction"
	"billbridge/internal/store/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// transactionRepository implements repositories.TransactionRepository.
type transactionRepository struct {
	db *pgxpool.Pool
}

// NewTransactionRepository creates a transaction log repository.
func NewTransactionRepository(db *pgxpool.Pool) *transactionRepository {
	return &transactionRepository{db: db}
}

// Save upserts a transaction keyed by reference, so redelivered provider
// callbacks and retried payments stay idempotent.
func (r *transactionRepository) Save(ctx context.Context, tx *transaction.Transaction) error {
	if strings.TrimSpace(tx.Reference) == "" {
		return fmt.Errorf("reference required")
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO transactions (
			id, user_id, provider, type, category, amount, currency, status,
			reference, provider_reference, recipient_details, created_at,
			completed_at, cancelled_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (reference) DO UPDATE
		  SET status             = EXCLUDED.status,
		      provider_reference = COALESCE(NULLIF(EXCLUDED.provider_reference,''), transactions.provider_reference),
		      completed_at       = COALESCE(EXCLUDED.completed_at, transactions.completed_at),
		      cancelled_at       = COALESCE(EXCLUDED.cancelled_at, transactions.cancelled_at)
	`, tx.ID, tx.UserID, tx.Provider, tx.Type, tx.Category, tx.Amount, tx.Currency,
		tx.Status, tx.Reference, tx.ProviderReference, tx.RecipientDetails,
		tx.CreatedAt, tx.CompletedAt, tx.CancelledAt)
	return err
}

func (r *transactionRepository) FindByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, provider, type, category, amount, currency, status,
		       reference, provider_reference, recipient_details, created_at,
		       completed_at, cancelled_at
		  FROM transactions
		 WHERE reference = $1`, reference)

	return scanTransaction(row)
}

func (r *transactionRepository) FindByUser(ctx context.Context, userID string, txType transaction.Type, category string, limit, offset int) ([]*transaction.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, provider, type, category, amount, currency, status,
		       reference, provider_reference, recipient_details, created_at,
		       completed_at, cancelled_at
		  FROM transactions
		 WHERE user_id = $1
		   AND ($2 = '' OR type = $2)
		   AND ($3 = '' OR category = $3)
		 ORDER BY created_at DESC
		 LIMIT $4 OFFSET $5`,
		userID, string(txType), category, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, reference, status, providerReference string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions
		   SET status             = $2,
		       provider_reference = COALESCE(NULLIF($3,''), provider_reference),
		       completed_at       = CASE WHEN $2 = 'completed' THEN now() ELSE completed_at END,
		       cancelled_at       = CASE WHEN $2 = 'cancelled' THEN now() ELSE cancelled_at END
		 WHERE reference = $1`,
		reference, status, providerReference)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Provider, &tx.Type, &tx.Category,
		&tx.Amount, &tx.Currency, &tx.Status, &tx.Reference, &tx.ProviderReference,
		&tx.RecipientDetails, &tx.CreatedAt, &tx.CompletedAt, &tx.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}
