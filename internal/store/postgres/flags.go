package postgres

import (
	"context"
	"errors"

	"billbridge/internal/featureflag"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// flagStore implements featureflag.Store over the feature_flags table.
type flagStore struct {
	db *pgxpool.Pool
}

// NewFlagStore creates a feature flag store.
func NewFlagStore(db *pgxpool.Pool) *flagStore {
	return &flagStore{db: db}
}

func (s *flagStore) GetFlag(ctx context.Context, name string) (*featureflag.Flag, error) {
	var flag featureflag.Flag
	err := s.db.QueryRow(ctx, `
		SELECT name, enabled, rollout_pct
		  FROM feature_flags
		 WHERE name = $1`, name).
		Scan(&flag.Name, &flag.Enabled, &flag.RolloutPct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, featureflag.ErrFlagNotFound
		}
		return nil, err
	}
	return &flag, nil
}
