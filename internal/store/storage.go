package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by every Get* method when no row matches.
// Services translate it into not-found API responses instead of
// letting a missing reference corrupt state.
var ErrNotFound = errors.New("record not found")

type Storage struct {
	Zones interface {
		GetByID(ctx context.Context, id int64) (*Zone, error)
		ListActive(ctx context.Context) ([]Zone, error)
	}

	Stations interface {
		GetByExternalID(ctx context.Context, externalID string) (*Station, error)
		CountActiveByZone(ctx context.Context, zoneID int64) (int, error)
	}

	Products interface {
		ListActive(ctx context.Context) ([]Product, error)
	}

	Reports interface {
		GetByStationAndDate(ctx context.Context, stationID int64, date time.Time) (*Report, error)
		Insert(ctx context.Context, report *Report, lines []ReportLine) error
		ReplaceLines(ctx context.Context, reportID int64, lines []ReportLine) error
		UpdateOils(ctx context.Context, reportID int64, oils float64, detected bool) error
		ListZoneMonthLines(ctx context.Context, zoneID int64, year, month int) ([]ZoneMonthLine, error)
	}

	Periods interface {
		GetByYearMonth(ctx context.Context, year, month int) (*Period, error)
	}

	Closures interface {
		Get(ctx context.Context, zoneID, periodID int64) (*ZoneClosure, error)
		Close(ctx context.Context, zoneID, periodID, actor int64) (*ZoneClosure, error)
		Reopen(ctx context.Context, zoneID, periodID, actor int64) (*ZoneClosure, error)
		CountClosedZones(ctx context.Context, periodID int64) (int, error)
		CountClosedStations(ctx context.Context, zoneID, periodID int64) (int, error)
	}

	Liquidations interface {
		Get(ctx context.Context, zoneID int64, year, month int) (*Liquidation, error)
		Close(ctx context.Context, zoneID int64, year, month int, actor int64, notes string) (*Liquidation, error)
		Reopen(ctx context.Context, zoneID int64, year, month int, actor int64) (*Liquidation, error)
		CountClosed(ctx context.Context, year, month int) (int, error)
	}

	SyncHistory interface {
		Insert(ctx context.Context, run *SyncRun) error
		GetLatest(ctx context.Context, limit int) ([]SyncRun, error)
	}

	Audit interface {
		Insert(ctx context.Context, entry *AuditEntry) error
		ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]AuditEntry, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Zones:        &ZoneStore{db: db},
		Stations:     &StationStore{db: db},
		Products:     &ProductStore{db: db},
		Reports:      &ReportStore{db: db},
		Periods:      &PeriodStore{db: db},
		Closures:     &ClosureStore{db: db},
		Liquidations: &LiquidationStore{db: db},
		SyncHistory:  &SyncHistoryStore{db: db},
		Audit:        &AuditStore{db: db},
	}
}

func translateNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
