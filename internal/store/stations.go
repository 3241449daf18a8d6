package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type StationStore struct {
	db *sqlx.DB
}

func (ss *StationStore) GetByExternalID(ctx context.Context, externalID string) (*Station, error) {
	query := `SELECT id, zone_id, external_id, name, active, created_at, updated_at
		FROM stations
		WHERE external_id = $1`

	station := &Station{}
	if err := ss.db.GetContext(ctx, station, query, externalID); err != nil {
		return nil, translateNoRows(err)
	}
	return station, nil
}

func (ss *StationStore) CountActiveByZone(ctx context.Context, zoneID int64) (int, error) {
	query := `SELECT COUNT(*) FROM stations WHERE zone_id = $1 AND active = true`

	var count int
	if err := ss.db.GetContext(ctx, &count, query, zoneID); err != nil {
		return 0, err
	}
	return count, nil
}
