package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/config"
	"github.com/stemsi/classpoints-backend/internal/response"
)

// SubscriberCounter reports live stream subscribers. *events.LocalBus
// satisfies it.
type SubscriberCounter interface {
	SubscriberCount() int
}

// SaveCounter reports completed snapshot saves. *worker.SnapshotWorker
// satisfies it.
type SaveCounter interface {
	Saved() int
}

// SystemHandler reports process and storage status for whoever runs the
// classroom server.
type SystemHandler struct {
	cfg       *config.Config
	bus       SubscriberCounter
	snapshots SaveCounter
	clock     clock.Clock
	startTime time.Time
}

func NewSystemHandler(cfg *config.Config, bus SubscriberCounter, snapshots SaveCounter, clk clock.Clock) *SystemHandler {
	return &SystemHandler{
		cfg:       cfg,
		bus:       bus,
		snapshots: snapshots,
		clock:     clk,
		startTime: clk.Now(),
	}
}

type systemStatus struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	StoreDriver     string `json:"store_driver"`
	EventsDriver    string `json:"events_driver"`
	StreamClients   int    `json:"stream_clients"`
	SnapshotsSaved  int    `json:"snapshots_saved"`
	Goroutines      int    `json:"goroutines"`
	HeapAlloc       uint64 `json:"heap_alloc"`
	HeapSys         uint64 `json:"heap_sys"`
	NumGC           uint32 `json:"num_gc"`
	GoVersion       string `json:"go_version"`
	NumCPU          int    `json:"num_cpu"`
	MaxUploadBytes  int64  `json:"max_upload_bytes"`
	FeedbackTTLMsec int64  `json:"feedback_ttl_ms"`
}

// Status godoc
// GET /api/v1/system
func (h *SystemHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.collect())
}

func (h *SystemHandler) collect() systemStatus {
	now := h.clock.Now()
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := systemStatus{
		Timestamp:       now.Unix(),
		Uptime:          formatDuration(now.Sub(h.startTime)),
		StoreDriver:     h.cfg.StoreDriver,
		EventsDriver:    h.cfg.EventsDriver,
		Goroutines:      runtime.NumGoroutine(),
		HeapAlloc:       mem.HeapAlloc,
		HeapSys:         mem.HeapSys,
		NumGC:           mem.NumGC,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		MaxUploadBytes:  h.cfg.MaxUploadBytes,
		FeedbackTTLMsec: h.cfg.FeedbackTTL.Milliseconds(),
	}
	if h.bus != nil {
		s.StreamClients = h.bus.SubscriberCount()
	}
	if h.snapshots != nil {
		s.SnapshotsSaved = h.snapshots.Saved()
	}
	return s
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
