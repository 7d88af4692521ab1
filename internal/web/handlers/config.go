package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/database"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	service *attendance.Service
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(service *attendance.Service) *ConfigHandler {
	return &ConfigHandler{
		service: service,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Policy      attendance.Policy `json:"policy"`
	CivilZone   string            `json:"civil_zone"`
	Today       string            `json:"today"`
	StorageOpen bool              `json:"storage_open"`
}

// Get returns the active attendance policy
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Policy:      h.service.Policy(),
		CivilZone:   h.service.Location().String(),
		Today:       h.service.Today(),
		StorageOpen: database.IsInitialized(),
	})
}
