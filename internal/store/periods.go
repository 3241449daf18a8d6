package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type PeriodStore struct {
	db *sqlx.DB
}

func (ps *PeriodStore) GetByYearMonth(ctx context.Context, year, month int) (*Period, error) {
	query := `SELECT id, year, month FROM periods WHERE year = $1 AND month = $2`

	period := &Period{}
	if err := ps.db.GetContext(ctx, period, query, year, month); err != nil {
		return nil, translateNoRows(err)
	}
	return period, nil
}
