package main

import (
	"net/http"

	"github.com/gasred/estaciones-backoffice/internal/response"
	"github.com/gasred/estaciones-backoffice/internal/store"
)

type GetAuditResponse = response.APIResponse[[]store.AuditEntry]

func (app *application) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")
	entityID := r.URL.Query().Get("entity_id")
	if entityType == "" || entityID == "" {
		writeJSONError(w, http.StatusBadRequest, "entity_type and entity_id query parameters are required")
		return
	}
	limit := queryInt(r, "limit", 50)

	entries, err := app.store.Audit.ListByEntity(r.Context(), entityType, entityID, limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get audit entries: "+err.Error())
		return
	}

	resp := &GetAuditResponse{
		Success: true,
		Data:    entries,
		Message: "Successfully retrieved audit entries",
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
