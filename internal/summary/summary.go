// Package summary builds the zone-month reading views on top of the
// persisted report lines: aggregated per-product totals with
// volume-weighted averages, and a flat CSV export.
package summary

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gasred/estaciones-backoffice/internal/store"
)

// ProductSummary aggregates one product across every station/day of a
// zone-month. AvgPrice and AvgShrinkPct are volume-weighted.
type ProductSummary struct {
	Product      string  `json:"product"`
	Liters       float64 `json:"liters"`
	Amount       float64 `json:"amount"`
	AvgPrice     float64 `json:"avg_price"`
	AvgShrinkPct float64 `json:"avg_shrink_pct"`
	Reports      int     `json:"reports"`
}

// ZoneMonth is the aggregated view served by the summary endpoint.
type ZoneMonth struct {
	ZoneID      int64            `json:"zone_id"`
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	Products    []ProductSummary `json:"products"`
	TotalLiters float64          `json:"total_liters"`
	TotalAmount float64          `json:"total_amount"`
}

// Build folds the flattened join rows into the zone-month view.
func Build(zoneID int64, year, month int, lines []store.ZoneMonthLine) *ZoneMonth {
	type bucket struct {
		prices    []float64
		shrinkPct []float64
		weights   []float64
		liters    float64
		amount    float64
		count     int
	}

	buckets := make(map[string]*bucket)
	for _, line := range lines {
		b, ok := buckets[line.Product]
		if !ok {
			b = &bucket{}
			buckets[line.Product] = b
		}
		b.prices = append(b.prices, line.Price)
		b.shrinkPct = append(b.shrinkPct, line.ShrinkPct)
		b.weights = append(b.weights, line.Liters)
		b.liters += line.Liters
		b.amount += line.Amount
		b.count++
	}

	zm := &ZoneMonth{ZoneID: zoneID, Year: year, Month: month, Products: []ProductSummary{}}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b := buckets[name]
		ps := ProductSummary{
			Product: name,
			Liters:  b.liters,
			Amount:  b.amount,
			Reports: b.count,
		}
		if b.liters > 0 {
			ps.AvgPrice = stat.Mean(b.prices, b.weights)
			ps.AvgShrinkPct = stat.Mean(b.shrinkPct, b.weights)
		}
		zm.Products = append(zm.Products, ps)
		zm.TotalLiters += b.liters
		zm.TotalAmount += b.amount
	}

	return zm
}
