package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightsteps/clinic-scheduling-api/pkg/events"
)

// EventsHandler streams hub events over server-sent events.
type EventsHandler struct {
	hub          *events.Hub
	pingInterval time.Duration
}

// NewEventsHandler constructs handler.
func NewEventsHandler(hub *events.Hub, pingInterval time.Duration) *EventsHandler {
	if pingInterval <= 0 {
		pingInterval = 25 * time.Second
	}
	return &EventsHandler{hub: hub, pingInterval: pingInterval}
}

// Stream godoc
// @Summary Subscribe to schedule, interrupt, and pairing events
// @Tags Events
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	c.SSEvent("hello", gin.H{"ts": time.Now().UnixMilli()})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-ping.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().UnixMilli()})
			return true
		}
	})
}
