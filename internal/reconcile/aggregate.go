package reconcile

import (
	"time"

	"go.uber.org/zap"
)

// ProductKind is the internal fuel product taxonomy.
type ProductKind string

const (
	KindPremium ProductKind = "premium"
	KindMagna   ProductKind = "magna"
	KindDiesel  ProductKind = "diesel"
)

// Catalog resolves feed product names to product kinds through
// normalized-name lookup.
type Catalog struct {
	kinds map[string]ProductKind
}

// NewCatalog builds a catalog from the alias configuration.
func NewCatalog(aliases *Aliases) *Catalog {
	kinds := make(map[string]ProductKind)
	for kind, names := range aliases.Products {
		for _, name := range names {
			kinds[NormalizeKey(name)] = ProductKind(kind)
		}
	}
	return &Catalog{kinds: kinds}
}

// Lookup resolves a feed product name. Unknown names are reported, not
// guessed.
func (c *Catalog) Lookup(name string) (ProductKind, bool) {
	kind, ok := c.kinds[NormalizeKey(name)]
	return kind, ok
}

// ProductTotals is the per (station, date, product) accumulator.
// Price and ShrinkPct are volume-weighted running averages; admin and
// shrink volumes/amounts are additive; the inventory and purchase
// fields are pass-through, latest value wins.
type ProductTotals struct {
	Liters             float64
	Amount             float64
	Price              float64
	AdminVolume        float64
	AdminAmount        float64
	ShrinkVolume       float64
	ShrinkAmount       float64
	ShrinkPct          float64
	InitialInventory   float64
	PurchasesDocument  float64
	PurchasesReception float64
	FinalInventory     float64
}

// DayReport accumulates the external rows of one station/day into up to
// three product aggregates plus the oils scalar.
type DayReport struct {
	ExternalID string
	Date       time.Time
	Products   map[ProductKind]*ProductTotals

	// Oils is assigned once per station/day: the first non-zero value
	// wins and locks the field; zeros keep overwriting each other until
	// then, so a feed that only ever sends zero leaves the last zero.
	// OilsDetected stays true either way, distinguishing "legitimately
	// zero" from "field never sent".
	Oils         float64
	OilsDetected bool
	oilsAssigned bool
}

func NewDayReport(externalID string, date time.Time) *DayReport {
	return &DayReport{
		ExternalID: externalID,
		Date:       date,
		Products:   make(map[ProductKind]*ProductTotals),
	}
}

// Fold merges one raw row into the accumulator. Rows with an
// unrecognized product name are dropped, logged at debug.
func (d *DayReport) Fold(row Row, aliases *Aliases, catalog *Catalog, log *zap.SugaredLogger) {
	name := ResolveString(row, aliases.Keys(FieldProduct))
	kind, ok := catalog.Lookup(name)
	if !ok {
		if log != nil {
			log.Debugw("dropping row with unrecognized product",
				"station", d.ExternalID, "product", name)
		}
		return
	}

	volume := ResolveValue(row, aliases.Keys(FieldVolume))
	amount := ResolveValue(row, aliases.Keys(FieldAmount))

	price := ResolveValue(row, aliases.Keys(FieldPrice))
	if price == 0 && volume != 0 {
		price = amount / volume
	}

	shrinkPct := ResolveValue(row, aliases.Keys(FieldShrinkFraction)) * 100

	adminVolume := ResolveValue(row, aliases.Keys(FieldAdminVolume))
	adminAmount := ResolveValue(row, aliases.Keys(FieldAdminAmount))
	shrinkVolume := ResolveValue(row, aliases.Keys(FieldShrinkVolume))
	shrinkAmount := ResolveValue(row, aliases.Keys(FieldShrinkAmount))

	totals, exists := d.Products[kind]
	if exists && totals.Liters > 0 {
		// Second row for the same product/day: weighted running
		// averages for price and shrink pct, sums for the rest.
		totalLiters := totals.Liters + volume
		if totalLiters > 0 {
			totals.Price = (totals.Price*totals.Liters + price*volume) / totalLiters
			totals.ShrinkPct = (totals.ShrinkPct*totals.Liters + shrinkPct*volume) / totalLiters
		} else {
			totals.Price = price
			totals.ShrinkPct = shrinkPct
		}
		totals.Liters = totalLiters
		totals.Amount += amount
		totals.AdminVolume += adminVolume
		totals.AdminAmount += adminAmount
		totals.ShrinkVolume += shrinkVolume
		totals.ShrinkAmount += shrinkAmount
	} else {
		totals = &ProductTotals{
			Liters:       volume,
			Amount:       amount,
			Price:        price,
			AdminVolume:  adminVolume,
			AdminAmount:  adminAmount,
			ShrinkVolume: shrinkVolume,
			ShrinkAmount: shrinkAmount,
			ShrinkPct:    shrinkPct,
		}
		d.Products[kind] = totals
	}

	// Pass-through fields: only overwrite when the row actually carries
	// the field, latest value wins.
	if HasAnyKey(row, aliases.Keys(FieldInitialInventory)) {
		totals.InitialInventory = ResolveValue(row, aliases.Keys(FieldInitialInventory))
	}
	if HasAnyKey(row, aliases.Keys(FieldPurchasesDocument)) {
		totals.PurchasesDocument = ResolveValue(row, aliases.Keys(FieldPurchasesDocument))
	}
	if HasAnyKey(row, aliases.Keys(FieldPurchasesReception)) {
		totals.PurchasesReception = ResolveValue(row, aliases.Keys(FieldPurchasesReception))
	}
	if HasAnyKey(row, aliases.Keys(FieldFinalInventory)) {
		totals.FinalInventory = ResolveValue(row, aliases.Keys(FieldFinalInventory))
	}

	if HasAnyKey(row, aliases.Keys(FieldOils)) {
		value := ResolveValue(row, aliases.Keys(FieldOils))
		d.OilsDetected = true
		if !d.oilsAssigned {
			d.Oils = value
			if value != 0 {
				d.oilsAssigned = true
			}
		}
	}
}
