package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vehicle-counter-go/internal/services/pipeline"
)

const mjpegBoundary = "frame"

type PreviewHandler struct {
	pipeline *pipeline.Service
	interval time.Duration
}

func NewPreviewHandler(p *pipeline.Service) *PreviewHandler {
	return &PreviewHandler{
		pipeline: p,
		interval: 100 * time.Millisecond,
	}
}

// GetFrame returns the latest annotated frame as a single JPEG.
func (h *PreviewHandler) GetFrame(c *gin.Context) {
	jpeg, ok := h.pipeline.PreviewFrame()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame available yet"})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", jpeg)
}

// StreamMJPEG serves the annotated frames as a multipart MJPEG stream until
// the client disconnects.
func (h *PreviewHandler) StreamMJPEG(c *gin.Context) {
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "close")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, ok := h.pipeline.PreviewFrame()
		if !ok {
			continue
		}

		_, err := fmt.Fprintf(c.Writer, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", mjpegBoundary, len(jpeg))
		if err == nil {
			_, err = c.Writer.Write(jpeg)
		}
		if err == nil {
			_, err = c.Writer.Write([]byte("\r\n"))
		}
		if err != nil {
			log.Debug().Err(err).Msg("preview_client_gone")
			return
		}
		c.Writer.Flush()
	}
}
