package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/database"
	"go.uber.org/zap"
)

// AttendanceHandler handles check-in, check-out and attendance queries.
type AttendanceHandler struct {
	service *attendance.Service
	logger  *zap.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(service *attendance.Service, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger,
	}
}

// AttendanceResponse wraps a single record.
type AttendanceResponse struct {
	Message    string                 `json:"message,omitempty"`
	Attendance *attendance.RecordView `json:"attendance"`
}

// HistoryResponse is the body of the history endpoint.
type HistoryResponse struct {
	UserID  string                  `json:"user_id"`
	Count   int                     `json:"count"`
	Records []attendance.RecordView `json:"records"`
}

// CompanyDayResponse is the body of the company day endpoint.
type CompanyDayResponse struct {
	CompanyCode string                  `json:"company_code"`
	Date        string                  `json:"date"`
	Present     int                     `json:"present"`
	Absent      int                     `json:"absent"`
	Records     []attendance.RecordView `json:"records"`
}

func (h *AttendanceHandler) view(rec *database.AttendanceRecord) *attendance.RecordView {
	if rec == nil {
		return nil
	}
	v := attendance.NewRecordView(rec, h.service.Location(), h.service.Now())
	return &v
}

// CheckIn handles POST /attendance/checkin.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.service.CheckIn(r.Context(), req)
	if err != nil {
		h.logger.Info("check-in rejected",
			zap.String("user_id", sanitizeForLog(req.UserID)),
			zap.String("kind", string(attendance.KindOf(err))),
		)
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, AttendanceResponse{
		Message:    "checked in successfully",
		Attendance: h.view(rec),
	})
}

// CheckOut handles POST /attendance/checkout.
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckOutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.service.CheckOut(r.Context(), req)
	if err != nil {
		h.logger.Info("check-out rejected",
			zap.String("user_id", sanitizeForLog(req.UserID)),
			zap.String("kind", string(attendance.KindOf(err))),
		)
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, AttendanceResponse{
		Message:    "checked out successfully",
		Attendance: h.view(rec),
	})
}

// Today handles GET /attendance/today?user_id=. A user without a record
// today gets a null attendance.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.TodayRecord(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, AttendanceResponse{Attendance: h.view(rec)})
}

// Active handles GET /attendance/active?user_id=.
func (h *AttendanceHandler) Active(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.ActiveRecord(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, AttendanceResponse{Attendance: h.view(rec)})
}

// History handles GET /attendance/users/{userID}?limit=.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	views := attendance.NewRecordViews(recs, h.service.Location(), h.service.Now())
	respondJSON(w, http.StatusOK, HistoryResponse{
		UserID:  userID,
		Count:   len(views),
		Records: views,
	})
}

// CompanyDay handles GET /attendance/companies/{companyCode}?date=.
func (h *AttendanceHandler) CompanyDay(w http.ResponseWriter, r *http.Request) {
	companyCode := attendance.NormalizeCompanyCode(chi.URLParam(r, "companyCode"))
	date := r.URL.Query().Get("date")
	recs, err := h.service.CompanyDay(r.Context(), companyCode, date)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if date == "" {
		date = h.service.Today()
	}

	resp := CompanyDayResponse{
		CompanyCode: companyCode,
		Date:        date,
		Records:     attendance.NewRecordViews(recs, h.service.Location(), h.service.Now()),
	}
	for _, rec := range recs {
		if rec.Status == database.StatusAbsent || rec.Status == "" {
			resp.Absent++
		} else {
			resp.Present++
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
