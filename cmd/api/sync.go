package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gasred/estaciones-backoffice/internal/auth"
	"github.com/gasred/estaciones-backoffice/internal/reconcile"
	"github.com/gasred/estaciones-backoffice/internal/response"
	"github.com/gasred/estaciones-backoffice/internal/store"
)

type SynchronizeResponse = response.APIResponse[*reconcile.Result]
type GetSyncHistoryResponse = response.APIResponse[[]store.SyncRun]

func (app *application) handleSynchronize(w http.ResponseWriter, r *http.Request) {
	var input struct {
		DateStart string `json:"date_start"`
		DateEnd   string `json:"date_end"`
	}

	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	dateStart, err := parseTime(input.DateStart)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid date_start format (YYYY-MM-DD expected)")
		return
	}
	dateEnd, err := parseTime(input.DateEnd)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid date_end format (YYYY-MM-DD expected)")
		return
	}
	if dateEnd.Before(dateStart) {
		writeJSONError(w, http.StatusBadRequest, "date_end precedes date_start")
		return
	}

	ctx := r.Context()
	actor := auth.ActorFrom(ctx)
	started := time.Now()

	result, err := app.engine.Synchronize(ctx, dateStart, dateEnd, actor, store.TriggerTypeManual)
	if err != nil {
		app.metrics.ObserveSync(store.StatusFailure, 0, 0, 0, time.Since(started).Seconds())
		switch {
		case eris.Is(err, reconcile.ErrMissingCredentials):
			writeJSONError(w, http.StatusPreconditionFailed, err.Error())
		case eris.Is(err, reconcile.ErrTransport), eris.Is(err, reconcile.ErrProtocol):
			writeJSONError(w, http.StatusBadGateway, err.Error())
		default:
			writeJSONError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	status := store.StatusSuccess
	if result.Errors > 0 {
		status = store.StatusPartial
	}
	app.metrics.ObserveSync(status, result.Created, result.Updated, result.Errors, time.Since(started).Seconds())

	resp := &SynchronizeResponse{
		Success: true,
		Data:    result,
		Message: "Synchronization finished",
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) handleGetSyncHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)

	ctx := r.Context()
	data, err := app.store.SyncHistory.GetLatest(ctx, limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get sync history: "+err.Error())
		return
	}

	resp := &GetSyncHistoryResponse{
		Success: true,
		Data:    data,
		Message: "Successfully retrieved latest sync runs",
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
