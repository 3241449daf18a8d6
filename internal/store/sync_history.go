package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type SyncHistoryStore struct {
	db *sqlx.DB
}

var (
	TriggerTypeManual    = "manual"
	TriggerTypeScheduled = "scheduled"
)

var (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusPartial = "partial"
)

func (sh *SyncHistoryStore) Insert(ctx context.Context, run *SyncRun) error {
	query := `INSERT INTO sync_history (
		date_start,
		date_end,
		trigger_type,
		status,
		created,
		updated,
		errors,
		details,
		actor,
		started_at,
		finished_at
	) VALUES (
		:date_start,
		:date_end,
		:trigger_type,
		:status,
		:created,
		:updated,
		:errors,
		:details,
		:actor,
		:started_at,
		:finished_at
	) RETURNING id`

	rows, err := sh.db.NamedQueryContext(ctx, query, run)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&run.ID); err != nil {
			return err
		}
	}
	return nil
}

func (sh *SyncHistoryStore) GetLatest(ctx context.Context, limit int) ([]SyncRun, error) {
	query := `SELECT id, date_start, date_end, trigger_type, status, created, updated, errors, details, actor, started_at, finished_at
		FROM sync_history
		ORDER BY started_at DESC
		LIMIT $1`

	runs := []SyncRun{}
	if err := sh.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}
