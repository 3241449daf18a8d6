package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type ClosureStore struct {
	db *sqlx.DB
}

func (cs *ClosureStore) Get(ctx context.Context, zoneID, periodID int64) (*ZoneClosure, error) {
	query := `SELECT id, zone_id, period_id, closed, closed_at, closed_by, reopened_at, reopened_by
		FROM zone_closures
		WHERE zone_id = $1 AND period_id = $2`

	closure := &ZoneClosure{}
	if err := cs.db.GetContext(ctx, closure, query, zoneID, periodID); err != nil {
		return nil, translateNoRows(err)
	}
	return closure, nil
}

// Close upserts the closure row for (zone, period). The unique key on
// (zone_id, period_id) is the only mutual exclusion: concurrent closes
// resolve last-write-wins at the database.
func (cs *ClosureStore) Close(ctx context.Context, zoneID, periodID, actor int64) (*ZoneClosure, error) {
	query := `INSERT INTO zone_closures (zone_id, period_id, closed, closed_at, closed_by)
		VALUES ($1, $2, true, $3, $4)
		ON CONFLICT (zone_id, period_id) DO UPDATE
		SET closed = true, closed_at = $3, closed_by = $4
		RETURNING id, zone_id, period_id, closed, closed_at, closed_by, reopened_at, reopened_by`

	closure := &ZoneClosure{}
	if err := cs.db.GetContext(ctx, closure, query, zoneID, periodID, time.Now().UTC(), actor); err != nil {
		return nil, err
	}
	return closure, nil
}

func (cs *ClosureStore) Reopen(ctx context.Context, zoneID, periodID, actor int64) (*ZoneClosure, error) {
	query := `UPDATE zone_closures
		SET closed = false, reopened_at = $3, reopened_by = $4
		WHERE zone_id = $1 AND period_id = $2
		RETURNING id, zone_id, period_id, closed, closed_at, closed_by, reopened_at, reopened_by`

	closure := &ZoneClosure{}
	if err := cs.db.GetContext(ctx, closure, query, zoneID, periodID, time.Now().UTC(), actor); err != nil {
		return nil, translateNoRows(err)
	}
	return closure, nil
}

func (cs *ClosureStore) CountClosedZones(ctx context.Context, periodID int64) (int, error) {
	query := `SELECT COUNT(*)
		FROM zone_closures zc
		JOIN zones z ON z.id = zc.zone_id
		WHERE zc.period_id = $1 AND zc.closed = true AND z.active = true`

	var count int
	if err := cs.db.GetContext(ctx, &count, query, periodID); err != nil {
		return 0, err
	}
	return count, nil
}

func (cs *ClosureStore) CountClosedStations(ctx context.Context, zoneID, periodID int64) (int, error) {
	query := `SELECT COUNT(*)
		FROM station_closures sc
		JOIN stations s ON s.id = sc.station_id
		WHERE s.zone_id = $1 AND sc.period_id = $2 AND sc.closed = true AND s.active = true`

	var count int
	if err := cs.db.GetContext(ctx, &count, query, zoneID, periodID); err != nil {
		return 0, err
	}
	return count, nil
}
