package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type LiquidationStore struct {
	db *sqlx.DB
}

const liquidationColumns = `id, zone_id, year, month, estado, closed_at, closed_by, reopened_at, reopened_by, notes, created_at, updated_at`

func (ls *LiquidationStore) Get(ctx context.Context, zoneID int64, year, month int) (*Liquidation, error) {
	query := `SELECT ` + liquidationColumns + `
		FROM liquidations
		WHERE zone_id = $1 AND year = $2 AND month = $3`

	liquidation := &Liquidation{}
	if err := ls.db.GetContext(ctx, liquidation, query, zoneID, year, month); err != nil {
		return nil, translateNoRows(err)
	}
	return liquidation, nil
}

// Close flips estado abierto -> cerrado. The liquidation row must
// already exist: a missing row comes back as ErrNotFound and nothing is
// auto-created.
func (ls *LiquidationStore) Close(ctx context.Context, zoneID int64, year, month int, actor int64, notes string) (*Liquidation, error) {
	now := time.Now().UTC()
	query := `UPDATE liquidations
		SET estado = $4, closed_at = $5, closed_by = $6, notes = $7, updated_at = $5
		WHERE zone_id = $1 AND year = $2 AND month = $3
		RETURNING ` + liquidationColumns

	liquidation := &Liquidation{}
	if err := ls.db.GetContext(ctx, liquidation, query, zoneID, year, month, EstadoCerrado, now, actor, notes); err != nil {
		return nil, translateNoRows(err)
	}
	return liquidation, nil
}

// Reopen flips estado back to abierto and clears the close timestamp.
func (ls *LiquidationStore) Reopen(ctx context.Context, zoneID int64, year, month int, actor int64) (*Liquidation, error) {
	now := time.Now().UTC()
	query := `UPDATE liquidations
		SET estado = $4, closed_at = NULL, reopened_at = $5, reopened_by = $6, updated_at = $5
		WHERE zone_id = $1 AND year = $2 AND month = $3
		RETURNING ` + liquidationColumns

	liquidation := &Liquidation{}
	if err := ls.db.GetContext(ctx, liquidation, query, zoneID, year, month, EstadoAbierto, now, actor); err != nil {
		return nil, translateNoRows(err)
	}
	return liquidation, nil
}

func (ls *LiquidationStore) CountClosed(ctx context.Context, year, month int) (int, error) {
	query := `SELECT COUNT(*)
		FROM liquidations l
		JOIN zones z ON z.id = l.zone_id
		WHERE l.year = $1 AND l.month = $2 AND l.estado = $3 AND z.active = true`

	var count int
	if err := ls.db.GetContext(ctx, &count, query, year, month, EstadoCerrado); err != nil {
		return 0, err
	}
	return count, nil
}
