package summary

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasred/estaciones-backoffice/internal/store"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildWeightedAverages(t *testing.T) {
	t.Parallel()

	lines := []store.ZoneMonthLine{
		{StationName: "Norte 1", ReportDate: day(1), Product: "Magna", Price: 17, Liters: 1000, Amount: 17000, ShrinkPct: 1.0},
		{StationName: "Norte 2", ReportDate: day(1), Product: "Magna", Price: 19, Liters: 3000, Amount: 57000, ShrinkPct: 3.0},
	}

	zm := Build(5, 2025, 1, lines)

	assert.Equal(t, int64(5), zm.ZoneID)
	require.Len(t, zm.Products, 1)

	magna := zm.Products[0]
	assert.Equal(t, "Magna", magna.Product)
	assert.Equal(t, 2, magna.Reports)
	assert.InDelta(t, 4000, magna.Liters, 1e-9)
	assert.InDelta(t, 74000, magna.Amount, 1e-9)
	// (17*1000 + 19*3000) / 4000
	assert.InDelta(t, 18.5, magna.AvgPrice, 1e-9)
	// (1*1000 + 3*3000) / 4000
	assert.InDelta(t, 2.5, magna.AvgShrinkPct, 1e-9)

	assert.InDelta(t, 4000, zm.TotalLiters, 1e-9)
	assert.InDelta(t, 74000, zm.TotalAmount, 1e-9)
}

func TestBuildSortsProducts(t *testing.T) {
	t.Parallel()

	lines := []store.ZoneMonthLine{
		{Product: "Premium", Liters: 10, Price: 22},
		{Product: "Diesel", Liters: 10, Price: 24},
		{Product: "Magna", Liters: 10, Price: 18},
	}

	zm := Build(1, 2025, 1, lines)

	require.Len(t, zm.Products, 3)
	assert.Equal(t, "Diesel", zm.Products[0].Product)
	assert.Equal(t, "Magna", zm.Products[1].Product)
	assert.Equal(t, "Premium", zm.Products[2].Product)
}

func TestBuildZeroVolume(t *testing.T) {
	t.Parallel()

	lines := []store.ZoneMonthLine{
		{Product: "Magna", Price: 18, Liters: 0},
	}

	zm := Build(1, 2025, 1, lines)

	// No volume means the weighted average is undefined; it stays zero
	// instead of propagating a NaN into the JSON response.
	require.Len(t, zm.Products, 1)
	assert.Zero(t, zm.Products[0].AvgPrice)
	assert.Zero(t, zm.Products[0].AvgShrinkPct)
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	zm := Build(1, 2025, 1, nil)
	assert.Empty(t, zm.Products)
	assert.Zero(t, zm.TotalLiters)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	lines := []store.ZoneMonthLine{
		{StationName: "Norte 1", ReportDate: day(15), Product: "Magna", Price: 17.99, Liters: 1000.5, Amount: 18000, ShrinkPct: 1.2, Oils: 150},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, lines))

	out := buf.String()
	rows := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, rows, 2)
	assert.Equal(t, "station,date,product,price,liters,amount,shrink_pct,oils", rows[0])
	assert.Contains(t, rows[1], "Norte 1")
	assert.Contains(t, rows[1], "2025-01-15")
	assert.Contains(t, rows[1], "Magna")
}

func TestWriteCSVEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "station,date,product,price,liters,amount,shrink_pct,oils\n", buf.String())
}
