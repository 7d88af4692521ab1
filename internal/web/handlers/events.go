package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/notify"
	"go.uber.org/zap"
)

// EventsHandler streams attendanceUpdated events over SSE.
type EventsHandler struct {
	hub       *notify.Hub
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *notify.Hub, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		hub:       hub,
		logger:    logger,
		keepAlive: constants.SSEKeepAliveInterval,
	}
}

// Stream handles GET /attendance/events?company_code=. Without a company code
// the stream carries every tenant's events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	companyCode := attendance.NormalizeCompanyCode(r.URL.Query().Get("company_code"))

	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	eventCh := h.hub.Subscribe(companyCode)
	defer h.hub.Unsubscribe(eventCh)

	h.logger.Debug("event stream opened", zap.String("company_code", companyCode))
	defer h.logger.Debug("event stream closed", zap.String("company_code", companyCode))

	sendSSEEvent(w, flusher, "connected", map[string]string{"company_code": companyCode})

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			sendSSEComment(w, flusher, "keepalive")
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
		}
	}
}
