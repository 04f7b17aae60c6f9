package handler

import (
	"net/http"

	"github.com/kartquake/kartquake/internal/backup"
)

type BackupHandler struct {
	manager *backup.Manager
}

func NewBackupHandler(manager *backup.Manager) *BackupHandler {
	return &BackupHandler{manager: manager}
}

// Run triggers an immediate snapshot upload.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.BackupNow(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}
