package main

import (
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/gasred/estaciones-backoffice/internal/backup"
	"github.com/gasred/estaciones-backoffice/internal/response"
)

type BackupStatusResponse = response.APIResponse[backup.Status]

func (app *application) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if err := app.backup.Backup(r.Context()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "backup failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, &BackupStatusResponse{
		Success: true,
		Data:    app.backup.Status(),
		Message: "Backup completed",
	})
}

func (app *application) handleBackupStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &BackupStatusResponse{
		Success: true,
		Data:    app.backup.Status(),
	})
}

func (app *application) handleRestore(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Path string `json:"path"`
	}
	if err := readJSON(w, r, &input); err != nil || input.Path == "" {
		writeJSONError(w, http.StatusBadRequest, "a dump path is required")
		return
	}

	if err := app.backup.Restore(r.Context(), input.Path); err != nil {
		if eris.Is(err, backup.ErrRestoreInProgress) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "restore failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, &BackupStatusResponse{
		Success: true,
		Data:    app.backup.Status(),
		Message: "Restore completed",
	})
}
