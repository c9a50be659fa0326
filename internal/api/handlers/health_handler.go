package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/whenworks/calendar-api/internal/api/types"
)

type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler returns liveness/readiness probes. db may be nil, in which
// case readiness only reports process health.
func NewHealthHandler(db *gorm.DB) *HealthHandler { return &HealthHandler{db: db} }

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]string{"status": "ok"}})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, types.APIResponse{
				Success: false,
				Error:   &types.APIError{Code: "unavailable", Message: "database not reachable"},
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]string{"status": "ready"}})
}
