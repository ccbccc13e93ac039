package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"vehicle-counter-go/internal/config"
	"vehicle-counter-go/internal/helpers"
	"vehicle-counter-go/internal/models"
	"vehicle-counter-go/internal/services/capture"
	"vehicle-counter-go/internal/services/counting"
	"vehicle-counter-go/internal/services/detection"
	"vehicle-counter-go/internal/services/events"
	"vehicle-counter-go/internal/services/overlay"
	"vehicle-counter-go/internal/services/recorder"
	"vehicle-counter-go/internal/services/tracking"
)

const (
	keyEsc  = 27
	keyQuit = 'q'

	fpsWindowSize = 30
)

// FrameSource yields decoded frames. Satisfied by capture.Service.
type FrameSource interface {
	Open() error
	Read(ctx context.Context) (capture.Frame, error)
	Close()
}

// Service runs the frame loop: capture -> detect -> associate -> count ->
// present, strictly sequentially, one frame fully processed before the next.
// Track and counter state are owned exclusively by the loop goroutine; the
// status API only ever sees copied snapshots.
type Service struct {
	cfg      *config.Config
	source   FrameSource
	detector detection.Detector
	tracker  *tracking.Tracker
	counter  *counting.Counter
	events   *events.Service   // optional
	recorder *recorder.Service // optional

	stopRequested atomic.Bool

	mu         sync.RWMutex
	stats      models.PipelineStats
	preview    []byte
	frameTimes []time.Time
}

func NewService(cfg *config.Config, source FrameSource, det detection.Detector, ev *events.Service, rec *recorder.Service) *Service {
	return &Service{
		cfg:      cfg,
		source:   source,
		detector: det,
		tracker: tracking.NewTracker(tracking.Config{
			MaxAssocDistance: cfg.MaxAssocDistance,
			MaxMissedFrames:  cfg.MaxMissedFrames,
			MaxLostFrames:    cfg.MaxLostFrames,
			TrackHistory:     cfg.TrackHistory,
			FrameWidth:       cfg.OutputWidth,
			FrameHeight:      cfg.OutputHeight,
		}),
		counter:  counting.NewCounter(cfg.CountLines, cfg.CountZones, cfg.OutputWidth, cfg.OutputHeight),
		events:   ev,
		recorder: rec,
		stats: models.PipelineStats{
			State:  models.RunStateStopped,
			Source: cfg.VideoSource,
			Width:  cfg.OutputWidth,
			Height: cfg.OutputHeight,
		},
	}
}

// Stop requests a clean stop; the request is honored at the next frame
// boundary.
func (p *Service) Stop() {
	p.stopRequested.Store(true)
}

// Run executes the frame loop until end-of-stream, a stop keypress, a stop
// request or context cancellation. It blocks the calling goroutine.
func (p *Service) Run(ctx context.Context) error {
	if err := p.source.Open(); err != nil {
		return err
	}
	defer p.source.Close()

	if p.recorder != nil {
		if err := p.recorder.Open(p.cfg.OutputWidth, p.cfg.OutputHeight); err != nil {
			return err
		}
		defer p.recorder.Close()
	}

	var window *gocv.Window
	if p.cfg.ShowWindow {
		window = gocv.NewWindow("vehicle-counter")
		defer window.Close()
	}

	p.setState(models.RunStateRunning, "")
	log.Info().Str("source", p.cfg.VideoSource).Int("frame_skip", p.cfg.FrameSkip).Msg("Counting started")

	reason := p.loop(ctx, window)

	p.setState(models.RunStateStopped, reason)
	p.logSummary(reason)

	if reason == models.StopReasonError {
		return errors.New("pipeline stopped on read error")
	}
	return nil
}

func (p *Service) loop(ctx context.Context, window *gocv.Window) models.StopReason {
	for {
		// Single cancellation check per frame boundary.
		select {
		case <-ctx.Done():
			p.setState(models.RunStateStopping, models.StopReasonCancelled)
			return models.StopReasonCancelled
		default:
		}
		if p.stopRequested.Load() {
			p.setState(models.RunStateStopping, models.StopReasonKeypress)
			return models.StopReasonKeypress
		}

		frame, err := p.source.Read(ctx)
		if err != nil {
			switch {
			case errors.Is(err, capture.ErrEndOfStream):
				p.setState(models.RunStateStopping, models.StopReasonEndOfStream)
				return models.StopReasonEndOfStream
			case errors.Is(err, context.Canceled):
				p.setState(models.RunStateStopping, models.StopReasonCancelled)
				return models.StopReasonCancelled
			default:
				log.Error().Err(err).Msg("Frame source failed")
				p.setState(models.RunStateStopping, models.StopReasonError)
				return models.StopReasonError
			}
		}

		if p.processFrame(frame, window) {
			p.setState(models.RunStateStopping, models.StopReasonKeypress)
			return models.StopReasonKeypress
		}
	}
}

// processFrame handles one frame end to end and reports whether a stop key
// was pressed.
func (p *Service) processFrame(frame capture.Frame, window *gocv.Window) bool {
	skipped := frame.ID%int64(p.cfg.FrameSkip) != 0

	if !skipped {
		detections := p.detect(frame)
		updated := p.tracker.Update(frame.ID, detections)
		for _, track := range updated {
			for _, event := range p.counter.Observe(track, frame.Timestamp) {
				if p.events != nil {
					p.events.Submit(event)
				}
			}
		}
	}

	p.render(frame)
	p.updateStats(frame, skipped)

	if p.recorder != nil {
		p.recorder.Write(frame.Image)
	}

	if window != nil {
		window.IMShow(frame.Image)
		key := window.WaitKey(1)
		if key == keyQuit || key == keyEsc {
			log.Info().Int("key", key).Msg("Stop key pressed")
			return true
		}
	}

	return false
}

// detect runs the detector; a failing frame is treated as having no
// detections so that one bad frame never stops the run.
func (p *Service) detect(frame capture.Frame) []models.Detection {
	detections, err := p.detector.Detect(frame.Image, frame.ID, frame.Timestamp)
	if err != nil {
		log.Warn().Err(err).Int64("frame_id", frame.ID).Msg("Detector failed, treating frame as empty")
		p.mu.Lock()
		p.stats.DetectorErrors++
		p.mu.Unlock()
		return nil
	}
	return detections
}

func (p *Service) render(frame capture.Frame) {
	overlay.DrawBoundaries(&frame.Image, p.cfg.CountLines, p.cfg.CountZones, frame.Width, frame.Height)
	overlay.DrawTracks(&frame.Image, p.tracker.Active())

	summary := p.counter.Summary()
	active, _ := p.tracker.Counts()
	overlay.DrawCounterPanel(&frame.Image, summary, active, p.currentFPS())

	jpeg, err := helpers.EncodeJPEG(frame.Image, p.cfg.OutputQuality)
	if err != nil {
		log.Debug().Err(err).Msg("preview_encode_failed")
		return
	}
	p.mu.Lock()
	p.preview = jpeg
	p.mu.Unlock()
}

func (p *Service) updateStats(frame capture.Frame, skipped bool) {
	active, lost := p.tracker.Counts()

	p.mu.Lock()
	p.frameTimes = append(p.frameTimes, time.Now())
	if len(p.frameTimes) > fpsWindowSize {
		p.frameTimes = p.frameTimes[1:]
	}

	p.stats.FrameID = frame.ID
	if skipped {
		p.stats.FramesSkipped++
	} else {
		p.stats.FramesProcessed++
	}
	p.stats.ActiveTracks = active
	p.stats.LostTracks = lost
	p.stats.TotalCount = p.counter.Total()
	p.stats.FPS = fpsFromWindow(p.frameTimes)
	p.mu.Unlock()
}

func (p *Service) currentFPS() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fpsFromWindow(p.frameTimes)
}

func fpsFromWindow(times []time.Time) float64 {
	if len(times) < 2 {
		return 0
	}
	span := times[len(times)-1].Sub(times[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(times)-1) / span
}

func (p *Service) setState(state models.RunState, reason models.StopReason) {
	p.mu.Lock()
	p.stats.State = state
	if reason != "" {
		p.stats.StopReason = reason
	}
	if state == models.RunStateRunning {
		p.stats.StartedAt = time.Now()
		p.stats.StopReason = ""
	}
	p.mu.Unlock()
}

func (p *Service) logSummary(reason models.StopReason) {
	summary := p.counter.Summary()
	stats := p.Stats()

	event := log.Info().
		Str("reason", string(reason)).
		Int64("frames_processed", stats.FramesProcessed).
		Int64("frames_skipped", stats.FramesSkipped).
		Int64("total_count", summary.Total)
	for line, total := range summary.ByLine {
		event = event.Int64("count_"+line, total)
	}
	event.Msg("Counting finished")
}

// Stats returns a copy of the current pipeline snapshot.
func (p *Service) Stats() models.PipelineStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// Counts returns the aggregate count summary.
func (p *Service) Counts() models.CountSummary {
	return p.counter.Summary()
}

// RecentEvents returns up to n most recent count events.
func (p *Service) RecentEvents(n int) []models.CountEvent {
	return p.counter.RecentEvents(n)
}

// PreviewFrame returns the latest annotated frame as JPEG.
func (p *Service) PreviewFrame() ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.preview == nil {
		return nil, false
	}
	out := make([]byte, len(p.preview))
	copy(out, p.preview)
	return out, true
}
