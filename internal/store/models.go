package store

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Zone represents the 'zones' table. Zones group stations under one
// manager and are the unit of accounting-period closure.
type Zone struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Station represents the 'stations' table. ExternalID is the numeric
// prefix the external sales feed uses in its "<id>: <name>" station label.
type Station struct {
	ID         int64     `db:"id" json:"id"`
	ZoneID     int64     `db:"zone_id" json:"zone_id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Name       string    `db:"name" json:"name"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents the 'products' table. Kind is one of
// premium, magna or diesel.
type Product struct {
	ID     int64  `db:"id" json:"id"`
	Kind   string `db:"kind" json:"kind"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

// Report represents the 'reports' table: one row per (station, calendar
// date), owning its product lines as a unit.
type Report struct {
	ID           int64     `db:"id" json:"id"`
	StationID    int64     `db:"station_id" json:"station_id"`
	ReportDate   time.Time `db:"report_date" json:"report_date"`
	Oils         float64   `db:"oils" json:"oils"`
	OilsDetected bool      `db:"oils_detected" json:"oils_detected"`
	Status       string    `db:"status" json:"status"`
	CreatedBy    int64     `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ReportLine represents the 'report_lines' table.
type ReportLine struct {
	ID                 int64     `db:"id" json:"id"`
	ReportID           int64     `db:"report_id" json:"report_id"`
	ProductID          int64     `db:"product_id" json:"product_id"`
	Price              float64   `db:"price" json:"price"`
	Liters             float64   `db:"liters" json:"liters"`
	Amount             float64   `db:"amount" json:"amount"`
	AdminVolume        float64   `db:"admin_volume" json:"admin_volume"`
	AdminAmount        float64   `db:"admin_amount" json:"admin_amount"`
	ShrinkVolume       float64   `db:"shrink_volume" json:"shrink_volume"`
	ShrinkAmount       float64   `db:"shrink_amount" json:"shrink_amount"`
	ShrinkPct          float64   `db:"shrink_pct" json:"shrink_pct"`
	InitialInventory   float64   `db:"initial_inventory" json:"initial_inventory"`
	PurchasesDocument  float64   `db:"purchases_document" json:"purchases_document"`
	PurchasesReception float64   `db:"purchases_reception" json:"purchases_reception"`
	FinalInventory     float64   `db:"final_inventory" json:"final_inventory"`
	RealEfficiency     float64   `db:"real_efficiency" json:"real_efficiency"`
	RealEfficiencyPct  float64   `db:"real_efficiency_pct" json:"real_efficiency_pct"`
	LineDate           time.Time `db:"line_date" json:"line_date"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Period represents the 'periods' table (recognized calendar periods).
type Period struct {
	ID    int64 `db:"id" json:"id"`
	Year  int   `db:"year" json:"year"`
	Month int   `db:"month" json:"month"`
}

// ZoneClosure represents the 'zone_closures' table: the operational
// close flag for a (zone, period), with actor/timestamp audit metadata.
type ZoneClosure struct {
	ID         int64      `db:"id" json:"id"`
	ZoneID     int64      `db:"zone_id" json:"zone_id"`
	PeriodID   int64      `db:"period_id" json:"period_id"`
	Closed     bool       `db:"closed" json:"closed"`
	ClosedAt   *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy   *int64     `db:"closed_by" json:"closed_by,omitempty"`
	ReopenedAt *time.Time `db:"reopened_at" json:"reopened_at,omitempty"`
	ReopenedBy *int64     `db:"reopened_by" json:"reopened_by,omitempty"`
}

// StationClosure represents the 'station_closures' table: individual
// operational closure records that gate the zone-level close.
type StationClosure struct {
	ID        int64      `db:"id" json:"id"`
	StationID int64      `db:"station_id" json:"station_id"`
	PeriodID  int64      `db:"period_id" json:"period_id"`
	Closed    bool       `db:"closed" json:"closed"`
	ClosedAt  *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy  *int64     `db:"closed_by" json:"closed_by,omitempty"`
}

// Liquidation states for the accounting close.
const (
	EstadoAbierto = "abierto"
	EstadoCerrado = "cerrado"
)

// Liquidation represents the 'liquidations' table: the accounting close
// record keyed directly by (zone, year, month).
type Liquidation struct {
	ID         int64      `db:"id" json:"id"`
	ZoneID     int64      `db:"zone_id" json:"zone_id"`
	Year       int        `db:"year" json:"year"`
	Month      int        `db:"month" json:"month"`
	Estado     string     `db:"estado" json:"estado"`
	ClosedAt   *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy   *int64     `db:"closed_by" json:"closed_by,omitempty"`
	ReopenedAt *time.Time `db:"reopened_at" json:"reopened_at,omitempty"`
	ReopenedBy *int64     `db:"reopened_by" json:"reopened_by,omitempty"`
	Notes      string     `db:"notes" json:"notes"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// AuditEntry represents the append-only 'audit_log' table. Before and
// After hold serialized snapshots, independent of the live rows.
type AuditEntry struct {
	ID          string         `db:"id" json:"id"`
	EntityType  string         `db:"entity_type" json:"entity_type"`
	EntityID    string         `db:"entity_id" json:"entity_id"`
	Actor       int64          `db:"actor" json:"actor"`
	Action      string         `db:"action" json:"action"`
	Description string         `db:"description" json:"description"`
	Before      types.JSONText `db:"before_snapshot" json:"before,omitempty"`
	After       types.JSONText `db:"after_snapshot" json:"after,omitempty"`
	Metadata    types.JSONText `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// SyncRun represents the 'sync_history' table: one row per synchronize
// call, successful or not.
type SyncRun struct {
	ID          int64          `db:"id" json:"id"`
	DateStart   time.Time      `db:"date_start" json:"date_start"`
	DateEnd     time.Time      `db:"date_end" json:"date_end"`
	TriggerType string         `db:"trigger_type" json:"trigger_type"`
	Status      string         `db:"status" json:"status"`
	Created     int            `db:"created" json:"created"`
	Updated     int            `db:"updated" json:"updated"`
	Errors      int            `db:"errors" json:"errors"`
	Details     pq.StringArray `db:"details" json:"details"`
	Actor       int64          `db:"actor" json:"actor"`
	StartedAt   time.Time      `db:"started_at" json:"started_at"`
	FinishedAt  time.Time      `db:"finished_at" json:"finished_at"`
}

// ZoneMonthLine is the flattened join row used by the zone-month
// summary and CSV export.
type ZoneMonthLine struct {
	StationName string    `db:"station_name" json:"station_name"`
	ReportDate  time.Time `db:"report_date" json:"report_date"`
	Product     string    `db:"product" json:"product"`
	Price       float64   `db:"price" json:"price"`
	Liters      float64   `db:"liters" json:"liters"`
	Amount      float64   `db:"amount" json:"amount"`
	ShrinkPct   float64   `db:"shrink_pct" json:"shrink_pct"`
	Oils        float64   `db:"oils" json:"oils"`
}
