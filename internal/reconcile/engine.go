package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gasred/estaciones-backoffice/internal/store"
)

// ExternalAPI is the slice of the client the engine needs; tests swap
// in a fake.
type ExternalAPI interface {
	GetToken(ctx context.Context) (string, error)
	FetchRows(ctx context.Context, token string, dateStart, dateEnd time.Time) ([]Row, error)
}

// Result is the outcome of one synchronize call. Details keeps one
// human-readable line per skipped station or warning so partial success
// stays transparent.
type Result struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  int      `json:"errors"`
	Details []string `json:"details"`
}

// The derived efficiency columns are NUMERIC(8,4); out-of-range values
// are clamped, not rejected.
const maxAbsEfficiency = 9999.9999

var stationPrefix = regexp.MustCompile(`^(\d+):`)

// Engine reconciles external sales rows into internal reports. Stations
// are processed sequentially; one bad station never aborts the rest.
type Engine struct {
	api     ExternalAPI
	store   *store.Storage
	aliases *Aliases
	catalog *Catalog
	log     *zap.SugaredLogger
}

func NewEngine(api ExternalAPI, st *store.Storage, aliases *Aliases, log *zap.SugaredLogger) *Engine {
	return &Engine{
		api:     api,
		store:   st,
		aliases: aliases,
		catalog: NewCatalog(aliases),
		log:     log,
	}
}

type groupKey struct {
	externalID string
	date       string // YYYY-MM-DD
}

// Synchronize pulls external rows for the date range and upserts the
// matching internal reports. Only configuration, transport and
// top-level protocol failures abort the call; everything else is a
// per-item error in the result.
func (e *Engine) Synchronize(ctx context.Context, dateStart, dateEnd time.Time, actorID int64, trigger string) (*Result, error) {
	startedAt := time.Now().UTC()

	token, err := e.api.GetToken(ctx)
	if err != nil {
		e.recordRun(ctx, dateStart, dateEnd, actorID, trigger, startedAt, nil, err)
		return nil, eris.Wrap(err, "synchronize: obtain external token")
	}

	rows, err := e.api.FetchRows(ctx, token, dateStart, dateEnd)
	if err != nil {
		e.recordRun(ctx, dateStart, dateEnd, actorID, trigger, startedAt, nil, err)
		return nil, eris.Wrap(err, "synchronize: fetch external rows")
	}

	productIDs, err := e.productIDs(ctx)
	if err != nil {
		e.recordRun(ctx, dateStart, dateEnd, actorID, trigger, startedAt, nil, err)
		return nil, eris.Wrap(err, "synchronize: load product catalog")
	}

	result := &Result{Details: []string{}}
	groups := e.groupRows(rows, dateStart, result)

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].externalID != keys[j].externalID {
			return keys[i].externalID < keys[j].externalID
		}
		return keys[i].date < keys[j].date
	})

	for _, key := range keys {
		if err := e.syncStationDay(ctx, key, groups[key], productIDs, actorID, result); err != nil {
			result.Errors++
			result.Details = append(result.Details,
				fmt.Sprintf("station %s (%s): %s", key.externalID, key.date, err.Error()))
			e.log.Warnw("station sync failed", "station", key.externalID, "date", key.date, "error", err)
		}
	}

	e.recordRun(ctx, dateStart, dateEnd, actorID, trigger, startedAt, result, nil)
	e.log.Infow("synchronize finished",
		"created", result.Created, "updated", result.Updated, "errors", result.Errors)
	return result, nil
}

// groupRows buckets raw rows by (external station id, date). Rows whose
// station label lacks the "<digits>:" prefix are dropped with a
// warning; rows without a usable date fall back to the range start.
func (e *Engine) groupRows(rows []Row, dateStart time.Time, result *Result) map[groupKey][]Row {
	groups := make(map[groupKey][]Row)
	for _, row := range rows {
		label := ResolveString(row, e.aliases.Keys(FieldStation))
		match := stationPrefix.FindStringSubmatch(label)
		if match == nil {
			e.log.Warnw("dropping row without station prefix", "label", label)
			continue
		}

		date := dateStart
		if raw := ResolveString(row, e.aliases.Keys(FieldDate)); raw != "" {
			if parsed, ok := parseRowDate(raw); ok {
				date = parsed
			}
		}

		key := groupKey{externalID: match[1], date: date.Format("2006-01-02")}
		groups[key] = append(groups[key], row)
	}
	return groups
}

func parseRowDate(raw string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("02/01/2006", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (e *Engine) syncStationDay(ctx context.Context, key groupKey, rows []Row, productIDs map[ProductKind]int64, actorID int64, result *Result) error {
	station, err := e.store.Stations.GetByExternalID(ctx, key.externalID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return eris.Errorf("no internal station with external id %s", key.externalID)
		}
		return err
	}

	date, _ := time.Parse("2006-01-02", key.date)
	day := NewDayReport(key.externalID, date)
	for _, row := range rows {
		day.Fold(row, e.aliases, e.catalog, e.log)
	}

	lines := e.buildLines(day, productIDs)

	existing, err := e.store.Reports.GetByStationAndDate(ctx, station.ID, date)
	switch {
	case err == nil:
		if err := e.store.Reports.ReplaceLines(ctx, existing.ID, lines); err != nil {
			return err
		}
		// Only overwrite oils when the new fold actually saw the field;
		// otherwise the stored value stands.
		if day.OilsDetected {
			if err := e.store.Reports.UpdateOils(ctx, existing.ID, day.Oils, true); err != nil {
				return err
			}
		}
		result.Updated++
		e.audit(ctx, existing.ID, actorID, "updated", station, date)

	case eris.Is(err, store.ErrNotFound):
		report := &store.Report{
			StationID:    station.ID,
			ReportDate:   date,
			Oils:         day.Oils,
			OilsDetected: day.OilsDetected,
			Status:       store.ReportStatusActive,
			CreatedBy:    actorID,
		}
		if err := e.store.Reports.Insert(ctx, report, lines); err != nil {
			return err
		}
		result.Created++
		e.audit(ctx, report.ID, actorID, "created", station, date)

	default:
		return err
	}
	return nil
}

// buildLines turns the fold result into persistable lines, computing
// the derived real efficiency and its percentage of volume.
func (e *Engine) buildLines(day *DayReport, productIDs map[ProductKind]int64) []store.ReportLine {
	lines := make([]store.ReportLine, 0, len(day.Products))
	for _, kind := range []ProductKind{KindPremium, KindMagna, KindDiesel} {
		totals, ok := day.Products[kind]
		if !ok {
			continue
		}
		productID, ok := productIDs[kind]
		if !ok {
			e.log.Warnw("no internal product for kind, line skipped", "kind", kind)
			continue
		}

		efficiency := totals.FinalInventory - totals.InitialInventory
		efficiencyPct := 0.0
		if totals.Liters != 0 {
			efficiencyPct = efficiency / totals.Liters * 100
		}

		lines = append(lines, store.ReportLine{
			ProductID:          productID,
			Price:              totals.Price,
			Liters:             totals.Liters,
			Amount:             totals.Amount,
			AdminVolume:        totals.AdminVolume,
			AdminAmount:        totals.AdminAmount,
			ShrinkVolume:       totals.ShrinkVolume,
			ShrinkAmount:       totals.ShrinkAmount,
			ShrinkPct:          totals.ShrinkPct,
			InitialInventory:   totals.InitialInventory,
			PurchasesDocument:  totals.PurchasesDocument,
			PurchasesReception: totals.PurchasesReception,
			FinalInventory:     totals.FinalInventory,
			RealEfficiency:     e.clamp(efficiency, string(kind), "real_efficiency"),
			RealEfficiencyPct:  e.clamp(efficiencyPct, string(kind), "real_efficiency_pct"),
			LineDate:           day.Date,
		})
	}
	return lines
}

func (e *Engine) clamp(value float64, product, field string) float64 {
	if value > maxAbsEfficiency {
		e.log.Warnw("derived value above storage precision, clamped",
			"field", field, "product", product, "value", value)
		return maxAbsEfficiency
	}
	if value < -maxAbsEfficiency {
		e.log.Warnw("derived value below storage precision, clamped",
			"field", field, "product", product, "value", value)
		return -maxAbsEfficiency
	}
	return value
}

func (e *Engine) productIDs(ctx context.Context) (map[ProductKind]int64, error) {
	products, err := e.store.Products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[ProductKind]int64, len(products))
	for _, p := range products {
		ids[ProductKind(p.Kind)] = p.ID
	}
	return ids, nil
}

func (e *Engine) audit(ctx context.Context, reportID, actorID int64, action string, station *store.Station, date time.Time) {
	metadata, _ := json.Marshal(map[string]string{
		"station":     station.ExternalID,
		"report_date": date.Format("2006-01-02"),
		"outcome":     action,
	})
	entry := &store.AuditEntry{
		EntityType:  "report",
		EntityID:    strconv.FormatInt(reportID, 10),
		Actor:       actorID,
		Action:      store.ActionSync,
		Description: fmt.Sprintf("report %s by external sync for station %s", action, station.ExternalID),
		Metadata:    metadata,
	}
	if err := e.store.Audit.Insert(ctx, entry); err != nil {
		e.log.Warnw("audit insert failed", "report_id", reportID, "error", err)
	}
}

func (e *Engine) recordRun(ctx context.Context, dateStart, dateEnd time.Time, actorID int64, trigger string, startedAt time.Time, result *Result, topErr error) {
	run := &store.SyncRun{
		DateStart:   dateStart,
		DateEnd:     dateEnd,
		TriggerType: trigger,
		Actor:       actorID,
		StartedAt:   startedAt,
		FinishedAt:  time.Now().UTC(),
	}

	switch {
	case topErr != nil:
		run.Status = store.StatusFailure
		run.Details = []string{topErr.Error()}
	case result.Errors > 0:
		run.Status = store.StatusPartial
		run.Created = result.Created
		run.Updated = result.Updated
		run.Errors = result.Errors
		run.Details = result.Details
	default:
		run.Status = store.StatusSuccess
		run.Created = result.Created
		run.Updated = result.Updated
		run.Details = result.Details
	}

	if err := e.store.SyncHistory.Insert(ctx, run); err != nil {
		e.log.Warnw("sync history insert failed", "error", err)
	}
}
