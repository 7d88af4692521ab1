package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/database"
	"go.uber.org/zap"
)

// GeofenceHandler handles per-company geofence endpoints
type GeofenceHandler struct {
	service *attendance.Service
	logger  *zap.Logger
}

// NewGeofenceHandler creates a new geofence handler
func NewGeofenceHandler(service *attendance.Service, logger *zap.Logger) *GeofenceHandler {
	return &GeofenceHandler{
		service: service,
		logger:  logger,
	}
}

// GeofenceResponse represents a company geofence
type GeofenceResponse struct {
	ID           int64     `json:"id"`
	AdminID      string    `json:"admin_id"`
	CompanyCode  string    `json:"company_code"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters int       `json:"radius_meters"`
	CreatedAt    time.Time `json:"created_at"`
}

func geofenceToResponse(g *database.StoredGeofence, loc *time.Location) GeofenceResponse {
	return GeofenceResponse{
		ID:           g.ID,
		AdminID:      g.AdminID,
		CompanyCode:  g.CompanyCode,
		Latitude:     g.Latitude,
		Longitude:    g.Longitude,
		RadiusMeters: g.RadiusMeters,
		CreatedAt:    g.CreatedAt.In(loc),
	}
}

// Get handles GET /geofences/{companyCode}.
func (h *GeofenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	fence, err := h.service.Geofence(r.Context(), chi.URLParam(r, "companyCode"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if fence == nil {
		respondError(w, http.StatusNotFound, "no geofence configured for this company")
		return
	}
	respondJSON(w, http.StatusOK, geofenceToResponse(fence, h.service.Location()))
}

// Put handles PUT /geofences/{companyCode}.
func (h *GeofenceHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req attendance.GeofenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fence, err := h.service.ConfigureGeofence(r.Context(), chi.URLParam(r, "companyCode"), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, geofenceToResponse(fence, h.service.Location()))
}
