package services

import (
	"sync"
	"time"
)

// FeedEvent is the payload streamed to connected review consoles when a
// report is created or reviewed.
type FeedEvent struct {
	Type      string    `json:"type"` // "report_created" or "report_reviewed"
	ReportID  string    `json:"report_id"`
	UserID    int64     `json:"user_id"`
	Target    string    `json:"target,omitempty"`
	Category  string    `json:"category,omitempty"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedConn is the minimal interface our WebSocket implementation must satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// FeedHub fans report events out to connected admin consoles. Slow or
// broken connections are dropped on write error.
type FeedHub struct {
	mu    sync.RWMutex
	conns map[FeedConn]struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{conns: make(map[FeedConn]struct{})}
}

// Register adds a console connection.
func (h *FeedHub) Register(conn FeedConn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a console connection.
func (h *FeedHub) Unregister(conn FeedConn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Publish sends the event to every connected console.
func (h *FeedHub) Publish(event FeedEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	conns := make([]FeedConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteJSON(event); err != nil {
			h.Unregister(c)
			c.Close()
		}
	}
}
