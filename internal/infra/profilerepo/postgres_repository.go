package profilerepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/kisanmitra/internal/domain/profile"
)

// PostgresRepository persists profiles in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const profileColumns = `user_id, display_name, phone, address, state, district, farm_name, farm_size, crop_types, preferred_language, updated_at`

// Get fetches the profile for a user.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (profile.Profile, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE user_id = $1
		LIMIT 1
	`, userID)
	if err != nil {
		return profile.Profile{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return profile.Profile{}, false, rows.Err()
	}
	p, err := scanProfile(rows)
	if err != nil {
		return profile.Profile{}, false, err
	}
	return p, true, rows.Err()
}

// Upsert inserts or updates the profile row.
func (r *PostgresRepository) Upsert(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			state = EXCLUDED.state,
			district = EXCLUDED.district,
			farm_name = EXCLUDED.farm_name,
			farm_size = EXCLUDED.farm_size,
			crop_types = EXCLUDED.crop_types,
			preferred_language = EXCLUDED.preferred_language,
			updated_at = EXCLUDED.updated_at
		RETURNING `+profileColumns,
		p.UserID, p.DisplayName, p.Phone, p.Address, p.State, p.District,
		p.FarmName, p.FarmSize, p.CropTypes, p.PreferredLanguage, p.UpdatedAt,
	)
	return scanProfile(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (profile.Profile, error) {
	var p profile.Profile
	var updated time.Time
	if err := row.Scan(
		&p.UserID, &p.DisplayName, &p.Phone, &p.Address, &p.State, &p.District,
		&p.FarmName, &p.FarmSize, &p.CropTypes, &p.PreferredLanguage, &updated,
	); err != nil {
		return profile.Profile{}, err
	}
	p.UpdatedAt = updated.UTC()
	return p, nil
}

var _ profile.Repository = (*PostgresRepository)(nil)
