package pipeline

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"vehicle-counter-go/internal/config"
	"vehicle-counter-go/internal/models"
	"vehicle-counter-go/internal/services/capture"
)

// fakeSource plays back a fixed sequence of frames, then reports end of
// stream. It reuses one Mat the way the real capture service does.
type fakeSource struct {
	width, height int
	frames        int
	next          int64
	mat           gocv.Mat
}

func (f *fakeSource) Open() error {
	f.mat = gocv.NewMatWithSize(f.height, f.width, gocv.MatTypeCV8UC3)
	return nil
}

func (f *fakeSource) Read(ctx context.Context) (capture.Frame, error) {
	if err := ctx.Err(); err != nil {
		return capture.Frame{}, err
	}
	if f.next >= int64(f.frames) {
		return capture.Frame{}, capture.ErrEndOfStream
	}
	f.next++
	return capture.Frame{
		Image:     f.mat,
		ID:        f.next,
		Timestamp: time.Now(),
		Width:     f.width,
		Height:    f.height,
	}, nil
}

func (f *fakeSource) Close() { f.mat.Close() }

// scriptedDetector returns one detection per frame, walking a fixed path of
// centroids.
type scriptedDetector struct {
	path []image.Point
}

func (d *scriptedDetector) Detect(img gocv.Mat, frameID int64, ts time.Time) ([]models.Detection, error) {
	i := int(frameID) - 1
	if i < 0 || i >= len(d.path) {
		return nil, nil
	}
	p := d.path[i]
	return []models.Detection{{
		Label:     "vehicle",
		Score:     1.0,
		Box:       image.Rect(p.X-10, p.Y-10, p.X+10, p.Y+10),
		FrameID:   frameID,
		Timestamp: ts,
	}}, nil
}

func (d *scriptedDetector) Close() error { return nil }

func testPipelineConfig() *config.Config {
	return &config.Config{
		VideoSource:      "fake",
		OutputWidth:      200,
		OutputHeight:     100,
		FrameSkip:        1,
		OutputQuality:    85,
		MaxAssocDistance: 50,
		MaxMissedFrames:  3,
		MaxLostFrames:    5,
		TrackHistory:     32,
		CountLines: []models.CountLine{
			{ID: "main", X1: 0.25, Y1: 0, X2: 0.25, Y2: 1},
		},
	}
}

func TestService_RunCountsAndStopsAtEndOfStream(t *testing.T) {
	cfg := testPipelineConfig()
	source := &fakeSource{width: 200, height: 100, frames: 5}
	detector := &scriptedDetector{path: []image.Point{
		{X: 20, Y: 50}, {X: 35, Y: 50}, {X: 65, Y: 50}, {X: 80, Y: 50}, {X: 95, Y: 50},
	}}

	p := NewService(cfg, source, detector, nil, nil)
	require.NoError(t, p.Run(context.Background()))

	stats := p.Stats()
	assert.Equal(t, models.RunStateStopped, stats.State)
	assert.Equal(t, models.StopReasonEndOfStream, stats.StopReason)
	assert.Equal(t, int64(5), stats.FramesProcessed)
	assert.Equal(t, int64(1), stats.TotalCount)

	counts := p.Counts()
	assert.Equal(t, int64(1), counts.ByLine["main"])

	events := p.RecentEvents(10)
	require.Len(t, events, 1)
	assert.Equal(t, models.DirectionDown, events[0].Direction)

	_, ok := p.PreviewFrame()
	assert.True(t, ok)
}

func TestService_RunHonorsCancellation(t *testing.T) {
	cfg := testPipelineConfig()
	source := &fakeSource{width: 200, height: 100, frames: 1 << 30}
	detector := &scriptedDetector{}

	ctx, cancel := context.WithCancel(context.Background())
	p := NewService(cfg, source, detector, nil, nil)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)

	stats := p.Stats()
	assert.Equal(t, models.RunStateStopped, stats.State)
	assert.Equal(t, models.StopReasonCancelled, stats.StopReason)
}

func TestService_FrameSkipStillRendersSkippedFrames(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.FrameSkip = 2
	source := &fakeSource{width: 200, height: 100, frames: 6}
	detector := &scriptedDetector{}

	p := NewService(cfg, source, detector, nil, nil)
	require.NoError(t, p.Run(context.Background()))

	stats := p.Stats()
	assert.Equal(t, int64(3), stats.FramesProcessed)
	assert.Equal(t, int64(3), stats.FramesSkipped)
	assert.Equal(t, int64(6), stats.FrameID)
}

func TestFPSFromWindow(t *testing.T) {
	assert.Equal(t, 0.0, fpsFromWindow(nil))

	base := time.Now()
	assert.Equal(t, 0.0, fpsFromWindow([]time.Time{base}))

	// 10 frames over 9 intervals of 100ms: 10 fps.
	times := make([]time.Time, 10)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * 100 * time.Millisecond)
	}
	assert.InDelta(t, 10.0, fpsFromWindow(times), 1e-6)
}

func TestService_InitialStats(t *testing.T) {
	cfg := &config.Config{
		VideoSource:      "traffic.mp4",
		OutputWidth:      1280,
		OutputHeight:     720,
		MaxAssocDistance: 50,
		MaxMissedFrames:  3,
		MaxLostFrames:    10,
		TrackHistory:     32,
		CountLines: []models.CountLine{
			{ID: "main", X1: 0.5, Y1: 0, X2: 0.5, Y2: 1},
		},
	}
	p := NewService(cfg, nil, nil, nil, nil)

	stats := p.Stats()
	assert.Equal(t, models.RunStateStopped, stats.State)
	assert.Equal(t, "traffic.mp4", stats.Source)
	assert.Equal(t, int64(0), stats.FramesProcessed)

	_, ok := p.PreviewFrame()
	assert.False(t, ok)

	counts := p.Counts()
	require.Contains(t, counts.ByLine, "main")
	assert.Equal(t, int64(0), counts.Total)
}
