package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type ReportStore struct {
	db *sqlx.DB
}

// Report statuses.
const (
	ReportStatusActive    = "activo"
	ReportStatusCancelled = "cancelado"
)

const insertLineQuery = `INSERT INTO report_lines (
		report_id,
		product_id,
		price,
		liters,
		amount,
		admin_volume,
		admin_amount,
		shrink_volume,
		shrink_amount,
		shrink_pct,
		initial_inventory,
		purchases_document,
		purchases_reception,
		final_inventory,
		real_efficiency,
		real_efficiency_pct,
		line_date,
		created_at,
		updated_at
	) VALUES (
		:report_id,
		:product_id,
		:price,
		:liters,
		:amount,
		:admin_volume,
		:admin_amount,
		:shrink_volume,
		:shrink_amount,
		:shrink_pct,
		:initial_inventory,
		:purchases_document,
		:purchases_reception,
		:final_inventory,
		:real_efficiency,
		:real_efficiency_pct,
		:line_date,
		:created_at,
		:updated_at
	)`

func (rs *ReportStore) GetByStationAndDate(ctx context.Context, stationID int64, date time.Time) (*Report, error) {
	query := `SELECT id, station_id, report_date, oils, oils_detected, status, created_by, created_at, updated_at
		FROM reports
		WHERE station_id = $1 AND report_date = $2`

	report := &Report{}
	if err := rs.db.GetContext(ctx, report, query, stationID, date); err != nil {
		return nil, translateNoRows(err)
	}
	return report, nil
}

// Insert writes the report and its product lines in one transaction so
// a report never exists without its lines.
func (rs *ReportStore) Insert(ctx context.Context, report *Report, lines []ReportLine) error {
	tx, err := rs.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	query := `INSERT INTO reports (
		station_id,
		report_date,
		oils,
		oils_detected,
		status,
		created_by,
		created_at,
		updated_at
	) VALUES (
		:station_id,
		:report_date,
		:oils,
		:oils_detected,
		:status,
		:created_by,
		:created_at,
		:updated_at
	) RETURNING id`

	rows, err := tx.NamedQuery(query, report)
	if err != nil {
		return err
	}
	if rows.Next() {
		if err := rows.Scan(&report.ID); err != nil {
			rows.Close()
			return err
		}
	}
	rows.Close()

	for i := range lines {
		lines[i].ReportID = report.ID
		lines[i].CreatedAt = now
		lines[i].UpdatedAt = now
		if _, err := tx.NamedExec(insertLineQuery, &lines[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReplaceLines deletes and reinserts the report's product lines as a
// unit. Each sync carries exactly one row per product per day, so a
// replace never accumulates liters across calls.
func (rs *ReportStore) ReplaceLines(ctx context.Context, reportID int64, lines []ReportLine) error {
	tx, err := rs.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_lines WHERE report_id = $1`, reportID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range lines {
		lines[i].ReportID = reportID
		lines[i].CreatedAt = now
		lines[i].UpdatedAt = now
		if _, err := tx.NamedExec(insertLineQuery, &lines[i]); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE reports SET updated_at = $1 WHERE id = $2`, now, reportID); err != nil {
		return err
	}

	return tx.Commit()
}

func (rs *ReportStore) UpdateOils(ctx context.Context, reportID int64, oils float64, detected bool) error {
	query := `UPDATE reports
		SET oils = $1, oils_detected = $2, updated_at = $3
		WHERE id = $4`

	result, err := rs.db.ExecContext(ctx, query, oils, detected, time.Now().UTC(), reportID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (rs *ReportStore) ListZoneMonthLines(ctx context.Context, zoneID int64, year, month int) ([]ZoneMonthLine, error) {
	query := `
	SELECT
		s.name AS station_name,
		r.report_date AS report_date,
		p.kind AS product,
		rl.price AS price,
		rl.liters AS liters,
		rl.amount AS amount,
		rl.shrink_pct AS shrink_pct,
		r.oils AS oils
	FROM
		report_lines rl
	JOIN
		reports r ON r.id = rl.report_id
	JOIN
		stations s ON s.id = r.station_id
	JOIN
		products p ON p.id = rl.product_id
	WHERE
		s.zone_id = $1
		AND EXTRACT(YEAR FROM r.report_date) = $2
		AND EXTRACT(MONTH FROM r.report_date) = $3
		AND r.status = $4
	ORDER BY
		r.report_date, s.name, p.kind;
	`

	lines := []ZoneMonthLine{}
	if err := rs.db.SelectContext(ctx, &lines, query, zoneID, year, month, ReportStatusActive); err != nil {
		return nil, err
	}
	return lines, nil
}
