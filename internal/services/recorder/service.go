package recorder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"vehicle-counter-go/internal/config"
)

// Service writes annotated frames to a video file on disk.
type Service struct {
	cfg    *config.Config
	writer *gocv.VideoWriter
	frames int64
}

func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Open creates the output file once the frame dimensions are known.
func (s *Service) Open(width, height int) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.RecordPath), 0o755); err != nil {
		return fmt.Errorf("failed to create recording directory: %w", err)
	}

	writer, err := gocv.VideoWriterFile(s.cfg.RecordPath, "MJPG", s.cfg.RecordFPS, width, height, true)
	if err != nil {
		return fmt.Errorf("failed to open video writer for %s: %w", s.cfg.RecordPath, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return fmt.Errorf("video writer for %s is not opened", s.cfg.RecordPath)
	}

	log.Info().
		Str("path", s.cfg.RecordPath).
		Float64("fps", s.cfg.RecordFPS).
		Int("width", width).
		Int("height", height).
		Msg("Recording annotated output")

	s.writer = writer
	return nil
}

// Write appends one annotated frame. Write errors are logged, not fatal; a
// failing disk must not stop counting.
func (s *Service) Write(mat gocv.Mat) {
	if s.writer == nil {
		return
	}
	if err := s.writer.Write(mat); err != nil {
		log.Warn().Err(err).Msg("Failed to write recording frame")
		return
	}
	s.frames++
}

func (s *Service) Close() {
	if s.writer == nil {
		return
	}
	s.writer.Close()
	s.writer = nil
	log.Info().Int64("frames", s.frames).Str("path", s.cfg.RecordPath).Msg("Recording closed")
}
