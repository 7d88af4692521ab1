// Package notify delivers attendanceUpdated events to in-process SSE
// subscribers and to Redis.
package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/constants"
)

// AllCompanies subscribes to events of every tenant.
const AllCompanies = ""

type listener struct {
	companyCode string
	ch          chan attendance.Event
}

// Hub fans events out to subscribers filtered by company code. Sends never
// block: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu        sync.RWMutex
	listeners []listener
	closed    bool
	dropped   atomic.Int64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe returns a channel receiving events of companyCode, or of every
// tenant for AllCompanies. After Close the channel is returned already closed.
func (h *Hub) Subscribe(companyCode string) chan attendance.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan attendance.Event, constants.EventChannelBuffer)
	if h.closed {
		close(ch)
		return ch
	}
	h.listeners = append(h.listeners, listener{companyCode: companyCode, ch: ch})
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(ch chan attendance.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, l := range h.listeners {
		if l.ch == ch {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes every subscriber channel so open streams end, and rejects
// later subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.listeners {
		close(l.ch)
	}
	h.listeners = nil
	h.closed = true
}

// Notify implements attendance.Notifier.
func (h *Hub) Notify(_ context.Context, event attendance.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, l := range h.listeners {
		if l.companyCode != AllCompanies && l.companyCode != event.CompanyCode {
			continue
		}
		select {
		case l.ch <- event:
		default:
			// Listener buffer full, skip.
			h.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
