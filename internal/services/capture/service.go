package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"vehicle-counter-go/internal/config"
)

// ErrEndOfStream is returned by Read when a file source has no more frames.
var ErrEndOfStream = errors.New("end of stream")

const maxConsecutiveErrors = 10

// Frame is one decoded frame. The Mat is owned by the capture service and is
// only valid until the next Read.
type Frame struct {
	Image     gocv.Mat
	ID        int64
	Timestamp time.Time
	Width     int
	Height    int
}

// Service wraps gocv.VideoCapture for files, RTSP streams and webcams.
// It is used strictly sequentially by the run loop.
type Service struct {
	cfg *config.Config

	cap     *gocv.VideoCapture
	raw     gocv.Mat
	resized gocv.Mat
	frameID int64
	errors  int
	isFile  bool
}

func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Open opens the configured source and fails fast with a descriptive error
// when it cannot be read, before the processing loop is entered.
func (s *Service) Open() error {
	source := s.cfg.VideoSource

	var cap *gocv.VideoCapture
	var err error

	switch {
	case isStreamURI(source):
		log.Info().Str("source", source).Msg("Opening stream with FFmpeg capture options")
		s.configureFFmpegOptions()
		cap, err = gocv.OpenVideoCaptureWithAPI(source, gocv.VideoCaptureFFmpeg)
	case isDeviceIndex(source):
		device, _ := strconv.Atoi(source)
		log.Info().Int("device", device).Msg("Opening webcam device")
		cap, err = gocv.OpenVideoCapture(device)
	default:
		if _, statErr := os.Stat(source); statErr != nil {
			return fmt.Errorf("video source %s is not readable: %w", source, statErr)
		}
		log.Info().Str("source", source).Msg("Opening video file")
		cap, err = gocv.OpenVideoCapture(source)
		s.isFile = true
	}
	if err != nil {
		return fmt.Errorf("failed to open video source %s: %w", source, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("video source %s could not be opened", source)
	}

	if s.cfg.VideoFPS > 0 {
		cap.Set(gocv.VideoCaptureFPS, float64(s.cfg.VideoFPS))
	}
	// Minimal buffer for low-latency live sources.
	if !s.isFile {
		cap.Set(gocv.VideoCaptureBufferSize, 1)
	}

	log.Info().
		Str("source", source).
		Float64("fps", cap.Get(gocv.VideoCaptureFPS)).
		Float64("width", cap.Get(gocv.VideoCaptureFrameWidth)).
		Float64("height", cap.Get(gocv.VideoCaptureFrameHeight)).
		Msg("Video source opened")

	s.cap = cap
	s.raw = gocv.NewMat()
	s.resized = gocv.NewMat()
	return nil
}

// Read returns the next frame, resized to the configured output size. For
// file sources a failed read means end of stream; live sources get a short
// backoff and retry before giving up.
func (s *Service) Read(ctx context.Context) (Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		default:
		}

		ok := s.cap.Read(&s.raw)
		if !ok || s.raw.Empty() {
			if s.isFile {
				return Frame{}, ErrEndOfStream
			}

			s.errors++
			log.Warn().Int("consecutive_errors", s.errors).Msg("Failed to read frame from source")
			if s.errors >= maxConsecutiveErrors {
				return Frame{}, fmt.Errorf("giving up after %d consecutive read errors", s.errors)
			}

			delay := time.Duration(s.errors*50) * time.Millisecond
			select {
			case <-ctx.Done():
				return Frame{}, ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		s.errors = 0
		s.frameID++

		out := s.raw
		if s.raw.Cols() != s.cfg.OutputWidth || s.raw.Rows() != s.cfg.OutputHeight {
			gocv.Resize(s.raw, &s.resized, image.Pt(s.cfg.OutputWidth, s.cfg.OutputHeight), 0, 0, gocv.InterpolationLinear)
			out = s.resized
		}

		return Frame{
			Image:     out,
			ID:        s.frameID,
			Timestamp: time.Now(),
			Width:     out.Cols(),
			Height:    out.Rows(),
		}, nil
	}
}

func (s *Service) Close() {
	if s.cap != nil {
		s.cap.Close()
		s.cap = nil
	}
	s.raw.Close()
	s.resized.Close()
}

func isStreamURI(source string) bool {
	for _, prefix := range []string{"rtsp://", "rtmp://", "http://", "https://", "udp://"} {
		if strings.HasPrefix(source, prefix) {
			return true
		}
	}
	return false
}

func isDeviceIndex(source string) bool {
	_, err := strconv.Atoi(source)
	return err == nil
}

// configureFFmpegOptions sets FFmpeg capture options tuned for low-latency
// RTSP through the environment variable OpenCV's FFmpeg backend reads.
func (s *Service) configureFFmpegOptions() {
	options := []string{
		"rtsp_transport;tcp",
		"buffer_size;2097152",
		"max_delay;500000",
		"stimeout;5000000",
		"rw_timeout;5000000",
		"threads;1",
		"flags;low_delay",
		"fflags;nobuffer+flush_packets",
		"analyzeduration;500000",
		"probesize;2000000",
		"err_detect;careful",
		"reconnect;1",
		"reconnect_streamed;1",
		"reconnect_delay_max;2",
	}
	os.Setenv("OPENCV_FFMPEG_CAPTURE_OPTIONS", strings.Join(options, "|"))
}
