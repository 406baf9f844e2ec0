package postgres

import (
	"context"
	"errors"

	"billbridge/internal/domain/event"
	"billbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// eventRepository implements repositories.EventRepository over the
// webhook_events table.
type eventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a webhook event log repository.
func NewEventRepository(db *pgxpool.Pool) *eventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Save(ctx context.Context, e *event.Event) error {
	if e.ID == 0 {
		return r.db.QueryRow(ctx, `
			INSERT INTO webhook_events (
				provider, event_type, resource_id, payload_json,
				received_at, processing_status
			)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id`,
			e.Provider, e.EventType, e.ResourceID, e.RawJSON,
			e.ReceivedAt, e.ProcessingStatus).Scan(&e.ID)
	}

	_, err := r.db.Exec(ctx, `
		UPDATE webhook_events
		   SET processing_status = $2,
		       processed_at      = $3,
		       last_error        = $4
		 WHERE id = $1`,
		e.ID, e.ProcessingStatus, e.ProcessedAt, e.LastError)
	return err
}

func (r *eventRepository) FindByID(ctx context.Context, id int64) (*event.Event, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, provider, event_type, resource_id, payload_json,
		       received_at, processed_at, processing_status, last_error
		  FROM webhook_events
		 WHERE id = $1`, id)
	return scanEvent(row)
}

func (r *eventRepository) FindUnprocessed(ctx context.Context, limit int) ([]*event.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, provider, event_type, resource_id, payload_json,
		       received_at, processed_at, processing_status, last_error
		  FROM webhook_events
		 WHERE processing_status IN ('pending', 'queued')
		 ORDER BY received_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepository) MarkProcessed(ctx context.Context, id int64, status event.ProcessingStatus, lastError string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE webhook_events
		   SET processing_status = $2,
		       processed_at      = now(),
		       last_error        = $3
		 WHERE id = $1`, id, status, lastError)
	return err
}

func (r *eventRepository) MarkForReprocessing(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE webhook_events
		   SET processing_status = 'queued',
		       processed_at      = NULL
		 WHERE id = $1`, id)
	return err
}

func scanEvent(row pgx.Row) (*event.Event, error) {
	var e event.Event
	err := row.Scan(&e.ID, &e.Provider, &e.EventType, &e.ResourceID, &e.RawJSON,
		&e.ReceivedAt, &e.ProcessedAt, &e.ProcessingStatus, &e.LastError)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
