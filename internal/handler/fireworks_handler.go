package handler

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/particles"
)

const (
	defaultFrameInterval = time.Second / 30
	defaultCanvasWidth   = 1280
	defaultCanvasHeight  = 720
	maxCanvasSide        = 4096
)

// FireworksHandler streams particle frames over SSE.
type FireworksHandler struct {
	frameInterval time.Duration
	newRand       func() particles.Rand
	log           zerolog.Logger
}

// NewFireworksHandler creates a new FireworksHandler.
func NewFireworksHandler(log zerolog.Logger) *FireworksHandler {
	return &FireworksHandler{
		frameInterval: defaultFrameInterval,
		newRand: func() particles.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		log: log.With().Str("component", "fireworks_handler").Logger(),
	}
}

// Stream godoc
// GET /api/v1/fireworks/stream?width=1280&height=720&frames=0
// Streams one frame per tick until the client leaves. frames > 0 ends the
// stream after that many frames.
func (h *FireworksHandler) Stream(c *gin.Context) {
	width := canvasSide(c.Query("width"), defaultCanvasWidth)
	height := canvasSide(c.Query("height"), defaultCanvasHeight)
	limit, _ := strconv.Atoi(c.Query("frames"))

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	system := particles.NewSystem(width, height, h.newRand())

	ticker := time.NewTicker(h.frameInterval)
	defer ticker.Stop()

	h.log.Debug().Float64("width", width).Float64("height", height).Msg("Fireworks stream attached")

	sent := 0
	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Int("frames", sent).Msg("Fireworks stream detached")
			return

		case now := <-ticker.C:
			payload, err := json.Marshal(system.Tick(now))
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to encode frame")
				return
			}
			c.Writer.Write([]byte("event: frame\ndata: "))
			c.Writer.Write(payload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

			sent++
			if limit > 0 && sent >= limit {
				return
			}
		}
	}
}

func canvasSide(raw string, fallback float64) float64 {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > maxCanvasSide {
		n = maxCanvasSide
	}
	return float64(n)
}
