// Package periods implements the two-level monthly close state
// machine: an operational close per (zone, period) and an accounting
// close (liquidation) per (zone, year, month). The two flags are
// independent; a closed period can always be reopened by an authorized
// actor. Each transition is a single row mutation, so concurrent closes
// across zones stay independent and order-insensitive.
package periods

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gasred/estaciones-backoffice/internal/store"
)

// Precondition violations. Handlers map these to not-found/validation
// responses; none of them mutates state.
var (
	ErrPeriodNotFound      = eris.New("no period exists for that year and month")
	ErrZoneNotFound        = eris.New("no zone exists with that id")
	ErrStationsPending     = eris.New("not every active station in the zone has closed the period")
	ErrLiquidationNotFound = eris.New("no liquidation exists for this period")
)

// MonthStatus is the derived monthly rollup: each flag is true only
// when every active zone satisfies the corresponding close for that
// exact (year, month). It is a read, not a stored flag.
type MonthStatus struct {
	Year             int  `json:"year"`
	Month            int  `json:"month"`
	ActiveZones      int  `json:"active_zones"`
	ClosedOperative  int  `json:"closed_operative"`
	ClosedAccounting int  `json:"closed_accounting"`
	CerradoOperativo bool `json:"cerrado_operativo"`
	CerradoContable  bool `json:"cerrado_contable"`
}

type Service struct {
	store *store.Storage
	log   *zap.SugaredLogger
}

func NewService(st *store.Storage, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log}
}

// CloseOperational closes a zone's operational period. The (year,
// month) pair must resolve to a recognized period, and every active
// station in the zone must already have its own closure record for it.
func (s *Service) CloseOperational(ctx context.Context, zoneID int64, year, month int, actor int64) (*store.ZoneClosure, error) {
	period, err := s.resolvePeriod(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if _, err := s.zone(ctx, zoneID); err != nil {
		return nil, err
	}

	active, err := s.store.Stations.CountActiveByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	closed, err := s.store.Closures.CountClosedStations(ctx, zoneID, period.ID)
	if err != nil {
		return nil, err
	}
	if closed < active {
		return nil, eris.Wrapf(ErrStationsPending, "%d of %d stations closed", closed, active)
	}

	before, _ := s.store.Closures.Get(ctx, zoneID, period.ID)
	closure, err := s.store.Closures.Close(ctx, zoneID, period.ID, actor)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, store.ActionCloseOperativo, zoneID, actor, before, closure,
		fmt.Sprintf("operational close of zone %d for %04d-%02d", zoneID, year, month))
	return closure, nil
}

// ReopenOperational flips the operational close back. Beyond role
// gating at the API boundary there is no approval workflow.
func (s *Service) ReopenOperational(ctx context.Context, zoneID int64, year, month int, actor int64) (*store.ZoneClosure, error) {
	period, err := s.resolvePeriod(ctx, year, month)
	if err != nil {
		return nil, err
	}

	before, _ := s.store.Closures.Get(ctx, zoneID, period.ID)
	closure, err := s.store.Closures.Reopen(ctx, zoneID, period.ID, actor)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, eris.Wrap(ErrPeriodNotFound, "no closure record to reopen")
		}
		return nil, err
	}

	s.audit(ctx, store.ActionReopenOperativo, zoneID, actor, before, closure,
		fmt.Sprintf("operational reopen of zone %d for %04d-%02d", zoneID, year, month))
	return closure, nil
}

// CloseAccounting closes the liquidation for (zone, year, month). The
// liquidation row must already exist; it is never auto-created here.
func (s *Service) CloseAccounting(ctx context.Context, zoneID int64, year, month int, actor int64, notes string) (*store.Liquidation, error) {
	before, err := s.store.Liquidations.Get(ctx, zoneID, year, month)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, ErrLiquidationNotFound
		}
		return nil, err
	}

	liquidation, err := s.store.Liquidations.Close(ctx, zoneID, year, month, actor, notes)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, ErrLiquidationNotFound
		}
		return nil, err
	}

	s.audit(ctx, store.ActionCloseContable, zoneID, actor, before, liquidation,
		fmt.Sprintf("accounting close of zone %d for %04d-%02d", zoneID, year, month))
	return liquidation, nil
}

// ReopenAccounting flips the liquidation back to abierto and clears the
// close timestamp, independent of the operational flag.
func (s *Service) ReopenAccounting(ctx context.Context, zoneID int64, year, month int, actor int64) (*store.Liquidation, error) {
	before, err := s.store.Liquidations.Get(ctx, zoneID, year, month)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, ErrLiquidationNotFound
		}
		return nil, err
	}

	liquidation, err := s.store.Liquidations.Reopen(ctx, zoneID, year, month, actor)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, ErrLiquidationNotFound
		}
		return nil, err
	}

	s.audit(ctx, store.ActionReopenContable, zoneID, actor, before, liquidation,
		fmt.Sprintf("accounting reopen of zone %d for %04d-%02d", zoneID, year, month))
	return liquidation, nil
}

// Month computes the derived rollup for a month across all active
// zones.
func (s *Service) Month(ctx context.Context, year, month int) (*MonthStatus, error) {
	zones, err := s.store.Zones.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	status := &MonthStatus{Year: year, Month: month, ActiveZones: len(zones)}

	period, err := s.store.Periods.GetByYearMonth(ctx, year, month)
	switch {
	case err == nil:
		closedZones, err := s.store.Closures.CountClosedZones(ctx, period.ID)
		if err != nil {
			return nil, err
		}
		status.ClosedOperative = closedZones
	case eris.Is(err, store.ErrNotFound):
		// Unrecognized period: no zone can have closed it.
	default:
		return nil, err
	}

	closedLiquidations, err := s.store.Liquidations.CountClosed(ctx, year, month)
	if err != nil {
		return nil, err
	}
	status.ClosedAccounting = closedLiquidations

	status.CerradoOperativo = status.ActiveZones > 0 && status.ClosedOperative >= status.ActiveZones
	status.CerradoContable = status.ActiveZones > 0 && status.ClosedAccounting >= status.ActiveZones
	return status, nil
}

func (s *Service) resolvePeriod(ctx context.Context, year, month int) (*store.Period, error) {
	period, err := s.store.Periods.GetByYearMonth(ctx, year, month)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, err
	}
	return period, nil
}

func (s *Service) zone(ctx context.Context, zoneID int64) (*store.Zone, error) {
	zone, err := s.store.Zones.GetByID(ctx, zoneID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	return zone, nil
}

func (s *Service) audit(ctx context.Context, action string, zoneID, actor int64, before, after any, description string) {
	beforeJSON, _ := json.Marshal(before)
	afterJSON, _ := json.Marshal(after)

	entry := &store.AuditEntry{
		EntityType:  "zone_period",
		EntityID:    strconv.FormatInt(zoneID, 10),
		Actor:       actor,
		Action:      action,
		Description: description,
		Before:      beforeJSON,
		After:       afterJSON,
	}
	if err := s.store.Audit.Insert(ctx, entry); err != nil {
		s.log.Warnw("audit insert failed", "action", action, "zone_id", zoneID, "error", err)
	}
}
