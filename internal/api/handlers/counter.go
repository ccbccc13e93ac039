package handlers

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vehicle-counter-go/internal/models"
	"vehicle-counter-go/internal/services/pipeline"
)

const defaultEventLimit = 50

type CounterHandler struct {
	pipeline *pipeline.Service
}

func NewCounterHandler(p *pipeline.Service) *CounterHandler {
	return &CounterHandler{pipeline: p}
}

// GetStats returns the pipeline run snapshot plus process metrics.
func (h *CounterHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := h.pipeline.Stats()

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"pipeline": stats,
		"process": gin.H{
			"memory_mb":  m.Alloc / 1024 / 1024,
			"cpu_cores":  runtime.NumCPU(),
			"goroutines": runtime.NumGoroutine(),
			"go_version": runtime.Version(),
		},
		"timestamp": time.Now().Unix(),
	})
}

// GetCounts returns the aggregate count summary.
func (h *CounterHandler) GetCounts(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Counts())
}

// GetEvents returns recent count events, newest last. The limit query
// parameter bounds the result size.
func (h *CounterHandler) GetEvents(c *gin.Context) {
	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	events := h.pipeline.RecentEvents(limit)
	if events == nil {
		events = []models.CountEvent{}
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
