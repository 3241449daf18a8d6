package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAliases(t *testing.T) *Aliases {
	t.Helper()
	aliases, err := LoadAliases()
	require.NoError(t, err)
	return aliases
}

func testDay(t *testing.T) (*DayReport, *Aliases, *Catalog) {
	t.Helper()
	aliases := testAliases(t)
	day := NewDayReport("12", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	return day, aliases, NewCatalog(aliases)
}

func TestFoldSeedsFirstRow(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)

	day.Fold(Row{
		"Producto": "Magna",
		"Volumen":  "1,000.50",
		"Importe":  "18000",
	}, aliases, catalog, zap.NewNop().Sugar())

	magna := day.Products[KindMagna]
	require.NotNil(t, magna)
	assert.InDelta(t, 1000.50, magna.Liters, 1e-9)
	assert.InDelta(t, 18000, magna.Amount, 1e-9)
	// No feed price, so price is derived from amount/volume.
	assert.InDelta(t, 18000/1000.50, magna.Price, 1e-6)
}

func TestFoldPrefersFeedPrice(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)

	day.Fold(Row{
		"Producto": "Premium",
		"Volumen":  500.0,
		"Importe":  10000.0,
		"Precio":   "21.50",
	}, aliases, catalog, zap.NewNop().Sugar())

	assert.InDelta(t, 21.5, day.Products[KindPremium].Price, 1e-9)
}

func TestFoldZeroVolumeKeepsZeroPrice(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)

	day.Fold(Row{"Producto": "Diesel", "Volumen": 0.0, "Importe": 500.0}, aliases, catalog, zap.NewNop().Sugar())

	assert.Zero(t, day.Products[KindDiesel].Price)
}

func TestFoldWeightedAverages(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)
	log := zap.NewNop().Sugar()

	day.Fold(Row{"Producto": "Magna", "Volumen": 1000.0, "Precio": 18.0, "Importe": 18000.0, "Merma": 0.02}, aliases, catalog, log)
	day.Fold(Row{"Producto": "Magna", "Volumen": 3000.0, "Precio": 20.0, "Importe": 60000.0, "Merma": 0.04}, aliases, catalog, log)

	magna := day.Products[KindMagna]
	assert.InDelta(t, 4000, magna.Liters, 1e-9)
	assert.InDelta(t, 78000, magna.Amount, 1e-9)
	assert.InDelta(t, (18.0*1000+20.0*3000)/4000, magna.Price, 1e-9)
	assert.InDelta(t, (2.0*1000+4.0*3000)/4000, magna.ShrinkPct, 1e-9)
}

func TestFoldAdminAndShrinkAreAdditive(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)
	log := zap.NewNop().Sugar()

	day.Fold(Row{"Producto": "Magna", "Volumen": 100.0, "Volumen Admin": 10.0, "Importe Admin": 200.0, "Volumen Merma": 1.0, "Importe Merma": 18.0}, aliases, catalog, log)
	day.Fold(Row{"Producto": "Magna", "Volumen": 100.0, "Volumen Admin": 5.0, "Importe Admin": 100.0, "Volumen Merma": 2.0, "Importe Merma": 36.0}, aliases, catalog, log)

	magna := day.Products[KindMagna]
	assert.InDelta(t, 15, magna.AdminVolume, 1e-9)
	assert.InDelta(t, 300, magna.AdminAmount, 1e-9)
	assert.InDelta(t, 3, magna.ShrinkVolume, 1e-9)
	assert.InDelta(t, 54, magna.ShrinkAmount, 1e-9)
}

func TestFoldPassThroughLatestWins(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)
	log := zap.NewNop().Sugar()

	day.Fold(Row{"Producto": "Magna", "Volumen": 100.0, "I.I.B.": 5000.0, "IFFB": 5100.0}, aliases, catalog, log)
	day.Fold(Row{"Producto": "Magna", "Volumen": 100.0, "IIB": 5200.0}, aliases, catalog, log)

	magna := day.Products[KindMagna]
	assert.InDelta(t, 5200, magna.InitialInventory, 1e-9)
	// Second row did not carry the field: stored value stands.
	assert.InDelta(t, 5100, magna.FinalInventory, 1e-9)
}

func TestFoldDropsUnknownProduct(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)

	day.Fold(Row{"Producto": "Kerosene", "Volumen": 100.0}, aliases, catalog, zap.NewNop().Sugar())

	assert.Empty(t, day.Products)
	assert.False(t, day.OilsDetected)
}

func TestFoldOilsFirstNonZeroWins(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)
	log := zap.NewNop().Sugar()

	day.Fold(Row{"Producto": "Magna", "Volumen": 100.0, "Aceites": 0.0}, aliases, catalog, log)
	day.Fold(Row{"Producto": "Premium", "Volumen": 100.0, "Aceites": 150.0}, aliases, catalog, log)
	day.Fold(Row{"Producto": "Diesel", "Volumen": 100.0, "Aceites": 900.0}, aliases, catalog, log)

	assert.InDelta(t, 150, day.Oils, 1e-9)
	assert.True(t, day.OilsDetected)
}

func TestFoldOilsOrderDependence(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)
	log := zap.NewNop().Sugar()

	// A non-zero value locks the field against later zeros.
	day.Fold(Row{"Producto": "Magna", "Volumen": 100.0, "Aceites": 150.0}, aliases, catalog, log)
	day.Fold(Row{"Producto": "Premium", "Volumen": 100.0, "Aceites": 0.0}, aliases, catalog, log)

	assert.InDelta(t, 150, day.Oils, 1e-9)
}

func TestFoldOilsAllZeroStillDetected(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)
	log := zap.NewNop().Sugar()

	day.Fold(Row{"Producto": "Magna", "Volumen": 100.0, "Aceites": 0.0}, aliases, catalog, log)
	day.Fold(Row{"Producto": "Premium", "Volumen": 100.0, "Aceites": 0.0}, aliases, catalog, log)

	assert.Zero(t, day.Oils)
	assert.True(t, day.OilsDetected)
}

func TestFoldOilsAbsentNotDetected(t *testing.T) {
	t.Parallel()
	day, aliases, catalog := testDay(t)

	day.Fold(Row{"Producto": "Magna", "Volumen": 100.0}, aliases, catalog, zap.NewNop().Sugar())

	assert.False(t, day.OilsDetected)
}

func TestCatalogLookup(t *testing.T) {
	t.Parallel()
	catalog := NewCatalog(testAliases(t))

	kind, ok := catalog.Lookup("magna")
	assert.True(t, ok)
	assert.Equal(t, KindMagna, kind)

	kind, ok = catalog.Lookup("Diésel")
	assert.True(t, ok)
	assert.Equal(t, KindDiesel, kind)

	_, ok = catalog.Lookup("Kerosene")
	assert.False(t, ok)
}
