package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"

	"github.com/gin-gonic/gin"
)

// Hub maintains per-user subscribers listening for queue status events.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan model.QueueEvent]struct{}
}

func NewQueueHub() *Hub {
	return &Hub{users: make(map[string]map[chan model.QueueEvent]struct{})}
}

var _ repository.IQueueNotifier = (*Hub)(nil)

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan model.QueueEvent, 8)
	h.subscribe(userID, ch)
	defer h.unsubscribe(userID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: " + evt.Type + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) subscribe(userID string, ch chan model.QueueEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan model.QueueEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) unsubscribe(userID string, ch chan model.QueueEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// Subscribers reports how many streams the user has open.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Notify broadcasts to all subscribers of the event's user. Slow subscribers miss events.
func (h *Hub) Notify(_ context.Context, evt model.QueueEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[evt.UserID] {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	return nil
}
