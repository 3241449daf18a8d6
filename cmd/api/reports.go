package main

import (
	"fmt"
	"net/http"

	"github.com/gasred/estaciones-backoffice/internal/response"
	"github.com/gasred/estaciones-backoffice/internal/summary"
)

type ZoneMonthSummaryResponse = response.APIResponse[*summary.ZoneMonth]

func (app *application) handleGetZoneMonthSummary(w http.ResponseWriter, r *http.Request) {
	zoneID, year, month, ok := app.zoneMonthQuery(w, r)
	if !ok {
		return
	}

	lines, err := app.store.Reports.ListZoneMonthLines(r.Context(), zoneID, year, month)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load report lines: "+err.Error())
		return
	}

	resp := &ZoneMonthSummaryResponse{
		Success: true,
		Data:    summary.Build(zoneID, year, month, lines),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) handleExportZoneMonth(w http.ResponseWriter, r *http.Request) {
	zoneID, year, month, ok := app.zoneMonthQuery(w, r)
	if !ok {
		return
	}

	lines, err := app.store.Reports.ListZoneMonthLines(r.Context(), zoneID, year, month)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load report lines: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="zone_%d_%04d%02d.csv"`, zoneID, year, month))

	if err := summary.WriteCSV(w, lines); err != nil {
		app.logger.Errorw("csv export failed", "zone_id", zoneID, "error", err)
	}
}

func (app *application) zoneMonthQuery(w http.ResponseWriter, r *http.Request) (int64, int, int, bool) {
	zoneID, err := urlParamInt64(r, "zoneID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid zone id")
		return 0, 0, 0, false
	}
	year := queryInt(r, "year", 0)
	month := queryInt(r, "month", 0)
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		writeJSONError(w, http.StatusBadRequest, "year and month query parameters are required")
		return 0, 0, 0, false
	}
	return zoneID, year, month, true
}
