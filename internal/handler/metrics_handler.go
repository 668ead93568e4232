package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/brightsteps/clinic-scheduling-api/internal/service"
	"github.com/brightsteps/clinic-scheduling-api/pkg/events"
	"github.com/brightsteps/clinic-scheduling-api/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics      *service.MetricsService
	hub          *events.Hub
	db           *sqlx.DB
	redis        *redis.Client
	slackEnabled bool
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, hub *events.Hub, db *sqlx.DB, redisClient *redis.Client, slackEnabled bool) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, hub: hub, db: db, redis: redisClient, slackEnabled: slackEnabled}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports liveness plus a few operational facts.
func (h *MetricsHandler) Health(c *gin.Context) {
	payload := gin.H{
		"status":        "ok",
		"slack_enabled": h.slackEnabled,
	}
	if h.hub != nil {
		payload["subscribers"] = h.hub.SubscriberCount()
	}
	c.JSON(http.StatusOK, payload)
}

// Ready verifies the backing stores answer before reporting ready.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
			return
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "redis"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Summary returns the aggregated snapshot for dashboards.
func (h *MetricsHandler) Summary(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
