package periods

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gasred/estaciones-backoffice/internal/store"
)

type fakeZones struct {
	zones map[int64]*store.Zone
}

func (f *fakeZones) GetByID(ctx context.Context, id int64) (*store.Zone, error) {
	if z, ok := f.zones[id]; ok {
		return z, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeZones) ListActive(ctx context.Context) ([]store.Zone, error) {
	var out []store.Zone
	for _, z := range f.zones {
		if z.Active {
			out = append(out, *z)
		}
	}
	return out, nil
}

type fakeStations struct {
	activeByZone map[int64]int
}

func (f *fakeStations) GetByExternalID(ctx context.Context, externalID string) (*store.Station, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStations) CountActiveByZone(ctx context.Context, zoneID int64) (int, error) {
	return f.activeByZone[zoneID], nil
}

type fakePeriods struct {
	periods map[[2]int]*store.Period
}

func (f *fakePeriods) GetByYearMonth(ctx context.Context, year, month int) (*store.Period, error) {
	if p, ok := f.periods[[2]int{year, month}]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

type closureKey struct {
	zoneID   int64
	periodID int64
}

type fakeClosures struct {
	closures       map[closureKey]*store.ZoneClosure
	closedStations map[closureKey]int
}

func (f *fakeClosures) Get(ctx context.Context, zoneID, periodID int64) (*store.ZoneClosure, error) {
	if c, ok := f.closures[closureKey{zoneID, periodID}]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeClosures) Close(ctx context.Context, zoneID, periodID, actor int64) (*store.ZoneClosure, error) {
	now := time.Now()
	c := &store.ZoneClosure{ZoneID: zoneID, PeriodID: periodID, Closed: true, ClosedAt: &now, ClosedBy: &actor}
	f.closures[closureKey{zoneID, periodID}] = c
	return c, nil
}

func (f *fakeClosures) Reopen(ctx context.Context, zoneID, periodID, actor int64) (*store.ZoneClosure, error) {
	c, ok := f.closures[closureKey{zoneID, periodID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := time.Now()
	c.Closed = false
	c.ReopenedAt = &now
	c.ReopenedBy = &actor
	return c, nil
}

func (f *fakeClosures) CountClosedZones(ctx context.Context, periodID int64) (int, error) {
	n := 0
	for k, c := range f.closures {
		if k.periodID == periodID && c.Closed {
			n++
		}
	}
	return n, nil
}

func (f *fakeClosures) CountClosedStations(ctx context.Context, zoneID, periodID int64) (int, error) {
	return f.closedStations[closureKey{zoneID, periodID}], nil
}

type liquidationKey struct {
	zoneID int64
	year   int
	month  int
}

type fakeLiquidations struct {
	rows map[liquidationKey]*store.Liquidation
}

func (f *fakeLiquidations) Get(ctx context.Context, zoneID int64, year, month int) (*store.Liquidation, error) {
	if l, ok := f.rows[liquidationKey{zoneID, year, month}]; ok {
		return l, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeLiquidations) Close(ctx context.Context, zoneID int64, year, month int, actor int64, notes string) (*store.Liquidation, error) {
	l, ok := f.rows[liquidationKey{zoneID, year, month}]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := time.Now()
	l.Estado = store.EstadoCerrado
	l.ClosedAt = &now
	l.ClosedBy = &actor
	if notes != "" {
		l.Notes = notes
	}
	return l, nil
}

func (f *fakeLiquidations) Reopen(ctx context.Context, zoneID int64, year, month int, actor int64) (*store.Liquidation, error) {
	l, ok := f.rows[liquidationKey{zoneID, year, month}]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := time.Now()
	l.Estado = store.EstadoAbierto
	l.ClosedAt = nil
	l.ReopenedAt = &now
	l.ReopenedBy = &actor
	return l, nil
}

func (f *fakeLiquidations) CountClosed(ctx context.Context, year, month int) (int, error) {
	n := 0
	for k, l := range f.rows {
		if k.year == year && k.month == month && l.Estado == store.EstadoCerrado {
			n++
		}
	}
	return n, nil
}

type fakeAudit struct {
	entries []*store.AuditEntry
}

func (f *fakeAudit) Insert(ctx context.Context, entry *store.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]store.AuditEntry, error) {
	return nil, nil
}

type serviceFixture struct {
	service      *Service
	zones        *fakeZones
	stations     *fakeStations
	closures     *fakeClosures
	liquidations *fakeLiquidations
	audit        *fakeAudit
}

func newServiceFixture() *serviceFixture {
	zones := &fakeZones{zones: map[int64]*store.Zone{
		1: {ID: 1, Name: "Norte", Active: true},
	}}
	stations := &fakeStations{activeByZone: map[int64]int{1: 2}}
	periods := &fakePeriods{periods: map[[2]int]*store.Period{
		{2025, 1}: {ID: 10, Year: 2025, Month: 1},
	}}
	closures := &fakeClosures{
		closures:       map[closureKey]*store.ZoneClosure{},
		closedStations: map[closureKey]int{},
	}
	liquidations := &fakeLiquidations{rows: map[liquidationKey]*store.Liquidation{}}
	audit := &fakeAudit{}

	st := &store.Storage{
		Zones:        zones,
		Stations:     stations,
		Periods:      periods,
		Closures:     closures,
		Liquidations: liquidations,
		Audit:        audit,
	}
	return &serviceFixture{
		service:      NewService(st, zap.NewNop().Sugar()),
		zones:        zones,
		stations:     stations,
		closures:     closures,
		liquidations: liquidations,
		audit:        audit,
	}
}

func TestCloseOperational(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()
	fx.closures.closedStations[closureKey{1, 10}] = 2

	closure, err := fx.service.CloseOperational(context.Background(), 1, 2025, 1, 42)
	require.NoError(t, err)

	assert.True(t, closure.Closed)
	require.NotNil(t, closure.ClosedBy)
	assert.Equal(t, int64(42), *closure.ClosedBy)

	require.Len(t, fx.audit.entries, 1)
	assert.Equal(t, store.ActionCloseOperativo, fx.audit.entries[0].Action)
}

func TestCloseOperationalStationsPending(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()
	fx.closures.closedStations[closureKey{1, 10}] = 1 // of 2 active

	_, err := fx.service.CloseOperational(context.Background(), 1, 2025, 1, 42)
	require.ErrorIs(t, err, ErrStationsPending)

	// The precondition failure must not leave a closure behind.
	assert.Empty(t, fx.closures.closures)
	assert.Empty(t, fx.audit.entries)
}

func TestCloseOperationalUnknownPeriod(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()

	_, err := fx.service.CloseOperational(context.Background(), 1, 2025, 6, 42)
	require.ErrorIs(t, err, ErrPeriodNotFound)
}

func TestCloseOperationalUnknownZone(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()

	_, err := fx.service.CloseOperational(context.Background(), 77, 2025, 1, 42)
	require.ErrorIs(t, err, ErrZoneNotFound)
}

func TestReopenOperational(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()
	fx.closures.closedStations[closureKey{1, 10}] = 2
	_, err := fx.service.CloseOperational(context.Background(), 1, 2025, 1, 42)
	require.NoError(t, err)

	closure, err := fx.service.ReopenOperational(context.Background(), 1, 2025, 1, 43)
	require.NoError(t, err)

	assert.False(t, closure.Closed)
	require.NotNil(t, closure.ReopenedBy)
	assert.Equal(t, int64(43), *closure.ReopenedBy)
}

func TestCloseAccountingRequiresLiquidation(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()

	_, err := fx.service.CloseAccounting(context.Background(), 1, 2025, 1, 42, "")
	require.ErrorIs(t, err, ErrLiquidationNotFound)

	// Never auto-created.
	assert.Empty(t, fx.liquidations.rows)
}

func TestCloseAndReopenAccounting(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()
	fx.liquidations.rows[liquidationKey{1, 2025, 1}] = &store.Liquidation{
		ZoneID: 1, Year: 2025, Month: 1, Estado: store.EstadoAbierto,
	}

	liq, err := fx.service.CloseAccounting(context.Background(), 1, 2025, 1, 42, "month reviewed")
	require.NoError(t, err)
	assert.Equal(t, store.EstadoCerrado, liq.Estado)
	assert.NotNil(t, liq.ClosedAt)
	assert.Equal(t, "month reviewed", liq.Notes)

	liq, err = fx.service.ReopenAccounting(context.Background(), 1, 2025, 1, 43)
	require.NoError(t, err)
	assert.Equal(t, store.EstadoAbierto, liq.Estado)
	assert.Nil(t, liq.ClosedAt)
}

func TestAccountingIndependentOfOperational(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()
	fx.liquidations.rows[liquidationKey{1, 2025, 1}] = &store.Liquidation{
		ZoneID: 1, Year: 2025, Month: 1, Estado: store.EstadoAbierto,
	}

	// No operational closure exists: the accounting close still works.
	liq, err := fx.service.CloseAccounting(context.Background(), 1, 2025, 1, 42, "")
	require.NoError(t, err)
	assert.Equal(t, store.EstadoCerrado, liq.Estado)
}

func TestMonthRollup(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()
	fx.closures.closedStations[closureKey{1, 10}] = 2

	status, err := fx.service.Month(context.Background(), 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, status.ActiveZones)
	assert.False(t, status.CerradoOperativo)
	assert.False(t, status.CerradoContable)

	_, err = fx.service.CloseOperational(context.Background(), 1, 2025, 1, 42)
	require.NoError(t, err)

	fx.liquidations.rows[liquidationKey{1, 2025, 1}] = &store.Liquidation{
		ZoneID: 1, Year: 2025, Month: 1, Estado: store.EstadoAbierto,
	}
	_, err = fx.service.CloseAccounting(context.Background(), 1, 2025, 1, 42, "")
	require.NoError(t, err)

	status, err = fx.service.Month(context.Background(), 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, status.ClosedOperative)
	assert.Equal(t, 1, status.ClosedAccounting)
	assert.True(t, status.CerradoOperativo)
	assert.True(t, status.CerradoContable)
}

func TestMonthRollupFlipsWhenZoneAdded(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()
	fx.closures.closedStations[closureKey{1, 10}] = 2
	_, err := fx.service.CloseOperational(context.Background(), 1, 2025, 1, 42)
	require.NoError(t, err)

	status, err := fx.service.Month(context.Background(), 2025, 1)
	require.NoError(t, err)
	assert.True(t, status.CerradoOperativo)

	// A second active zone without a closure reopens the rollup.
	fx.zones.zones[2] = &store.Zone{ID: 2, Name: "Sur", Active: true}

	status, err = fx.service.Month(context.Background(), 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, status.ActiveZones)
	assert.False(t, status.CerradoOperativo)
}

func TestMonthRollupUnrecognizedPeriod(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture()

	status, err := fx.service.Month(context.Background(), 2030, 12)
	require.NoError(t, err)
	assert.Zero(t, status.ClosedOperative)
	assert.False(t, status.CerradoOperativo)
}
