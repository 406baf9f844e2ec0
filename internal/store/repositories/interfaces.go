package repositories

import (
	"context"
	"errors"

	"billbridge/internal/domain/event"
	"billbridge/internal/domain/transaction"
	"billbridge/internal/provider"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// TransactionRepository defines the contract for transaction log access.
// Reference is the caller-chosen idempotency key, so writes are upserts
// keyed by it.
type TransactionRepository interface {
	Save(ctx context.Context, tx *transaction.Transaction) error
	FindByReference(ctx context.Context, reference string) (*transaction.Transaction, error)
	FindByUser(ctx context.Context, userID string, txType transaction.Type, category string, limit, offset int) ([]*transaction.Transaction, error)
	UpdateStatus(ctx context.Context, reference, status, providerReference string) error
}

// FavoriteRepository defines the contract for saved bill recipients.
type FavoriteRepository interface {
	Save(ctx context.Context, fav *provider.Favorite) error
	FindByUser(ctx context.Context, userID string) ([]provider.Favorite, error)
	Delete(ctx context.Context, userID, favoriteID string) (bool, error)
}

// EventRepository defines the contract for the webhook event log.
type EventRepository interface {
	Save(ctx context.Context, e *event.Event) error
	FindByID(ctx context.Context, id int64) (*event.Event, error)
	FindUnprocessed(ctx context.Context, limit int) ([]*event.Event, error)
	MarkProcessed(ctx context.Context, id int64, status event.ProcessingStatus, lastError string) error
	MarkForReprocessing(ctx context.Context, id int64) error
}
