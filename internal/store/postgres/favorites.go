package postgres

import (
	"context"

	"billbridge/internal/provider"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// favoriteRepository implements repositories.FavoriteRepository.
type favoriteRepository struct {
	db *pgxpool.Pool
}

// NewFavoriteRepository creates a saved-recipient repository.
func NewFavoriteRepository(db *pgxpool.Pool) *favoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Save(ctx context.Context, fav *provider.Favorite) error {
	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO bill_favorites (id, user_id, category, provider, customer_id, label, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		ON CONFLICT (user_id, category, provider, customer_id) DO UPDATE
		  SET label = EXCLUDED.label`,
		fav.ID, fav.UserID, fav.Category, fav.Provider, fav.CustomerID, fav.Label)
	return err
}

func (r *favoriteRepository) FindByUser(ctx context.Context, userID string) ([]provider.Favorite, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, category, provider, customer_id, label, created_at
		  FROM bill_favorites
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []provider.Favorite
	for rows.Next() {
		var f provider.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.Category, &f.Provider, &f.CustomerID, &f.Label, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes a favorite and reports whether a row actually existed.
func (r *favoriteRepository) Delete(ctx context.Context, userID, favoriteID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM bill_favorites WHERE user_id = $1 AND id = $2`, userID, favoriteID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
