package main

import (
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/gasred/estaciones-backoffice/internal/auth"
	"github.com/gasred/estaciones-backoffice/internal/periods"
	"github.com/gasred/estaciones-backoffice/internal/response"
	"github.com/gasred/estaciones-backoffice/internal/store"
)

type ClosureResponse = response.APIResponse[*store.ZoneClosure]
type LiquidationResponse = response.APIResponse[*store.Liquidation]
type MonthStatusResponse = response.APIResponse[*periods.MonthStatus]

func (app *application) handleCloseOperational(w http.ResponseWriter, r *http.Request) {
	zoneID, year, month, ok := app.periodParams(w, r)
	if !ok {
		return
	}

	closure, err := app.periods.CloseOperational(r.Context(), zoneID, year, month, auth.ActorFrom(r.Context()))
	if err != nil {
		app.writePeriodError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &ClosureResponse{
		Success: true,
		Data:    closure,
		Message: "Operational period closed",
	})
}

func (app *application) handleReopenOperational(w http.ResponseWriter, r *http.Request) {
	zoneID, year, month, ok := app.periodParams(w, r)
	if !ok {
		return
	}

	closure, err := app.periods.ReopenOperational(r.Context(), zoneID, year, month, auth.ActorFrom(r.Context()))
	if err != nil {
		app.writePeriodError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &ClosureResponse{
		Success: true,
		Data:    closure,
		Message: "Operational period reopened",
	})
}

func (app *application) handleCloseAccounting(w http.ResponseWriter, r *http.Request) {
	zoneID, year, month, ok := app.periodParams(w, r)
	if !ok {
		return
	}

	var input struct {
		Notes string `json:"notes"`
	}
	// The notes body is optional.
	_ = readJSON(w, r, &input)

	liquidation, err := app.periods.CloseAccounting(r.Context(), zoneID, year, month, auth.ActorFrom(r.Context()), input.Notes)
	if err != nil {
		app.writePeriodError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &LiquidationResponse{
		Success: true,
		Data:    liquidation,
		Message: "Accounting period closed",
	})
}

func (app *application) handleReopenAccounting(w http.ResponseWriter, r *http.Request) {
	zoneID, year, month, ok := app.periodParams(w, r)
	if !ok {
		return
	}

	liquidation, err := app.periods.ReopenAccounting(r.Context(), zoneID, year, month, auth.ActorFrom(r.Context()))
	if err != nil {
		app.writePeriodError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &LiquidationResponse{
		Success: true,
		Data:    liquidation,
		Message: "Accounting period reopened",
	})
}

func (app *application) handleGetMonthStatus(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonthParams(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid year/month")
		return
	}

	status, err := app.periods.Month(r.Context(), year, month)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, &MonthStatusResponse{
		Success: true,
		Data:    status,
	})
}

func (app *application) periodParams(w http.ResponseWriter, r *http.Request) (int64, int, int, bool) {
	zoneID, err := urlParamInt64(r, "zoneID")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid zone id")
		return 0, 0, 0, false
	}
	year, month, ok := yearMonthParams(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid year/month")
		return 0, 0, 0, false
	}
	return zoneID, year, month, true
}

// writePeriodError maps the close state machine's precondition
// violations onto explicit denial responses.
func (app *application) writePeriodError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, periods.ErrPeriodNotFound),
		eris.Is(err, periods.ErrZoneNotFound),
		eris.Is(err, periods.ErrLiquidationNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case eris.Is(err, periods.ErrStationsPending):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
