package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type ZoneStore struct {
	db *sqlx.DB
}

func (zs *ZoneStore) GetByID(ctx context.Context, id int64) (*Zone, error) {
	query := `SELECT id, name, active, created_at, updated_at
		FROM zones
		WHERE id = $1`

	zone := &Zone{}
	if err := zs.db.GetContext(ctx, zone, query, id); err != nil {
		return nil, translateNoRows(err)
	}
	return zone, nil
}

func (zs *ZoneStore) ListActive(ctx context.Context) ([]Zone, error) {
	query := `SELECT id, name, active, created_at, updated_at
		FROM zones
		WHERE active = true
		ORDER BY id`

	zones := []Zone{}
	if err := zs.db.SelectContext(ctx, &zones, query); err != nil {
		return nil, err
	}
	return zones, nil
}
