package counting

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"vehicle-counter-go/internal/models"
	"vehicle-counter-go/internal/services/tracking"
)

const (
	frameW = 200
	frameH = 100
)

// mainLine is vertical at x=50px on a 200x100 frame.
var mainLine = models.CountLine{ID: "main", X1: 0.25, Y1: 0, X2: 0.25, Y2: 1}

func newTestTracker() *tracking.Tracker {
	return tracking.NewTracker(tracking.Config{
		MaxAssocDistance: 50,
		MaxMissedFrames:  3,
		MaxLostFrames:    5,
		TrackHistory:     32,
		FrameWidth:       frameW,
		FrameHeight:      frameH,
	})
}

func detAt(x, y int) models.Detection {
	return models.Detection{
		Label: "vehicle",
		Score: 1.0,
		Box:   image.Rect(x-10, y-10, x+10, y+10),
	}
}

// step advances the tracker one frame and feeds every updated track to the
// counter, mirroring the run loop.
func step(tr *tracking.Tracker, c *Counter, frameID int64, dets ...models.Detection) []models.CountEvent {
	var out []models.CountEvent
	for _, track := range tr.Update(frameID, dets) {
		out = append(out, c.Observe(track, time.Now())...)
	}
	return out
}

func TestCounter_SingleCrossing(t *testing.T) {
	tr := newTestTracker()
	c := NewCounter([]models.CountLine{mainLine}, nil, frameW, frameH)

	// One vehicle moving left to right over the line at x=50.
	var events []models.CountEvent
	xs := []int{20, 35, 65, 80, 95}
	for i, x := range xs {
		events = append(events, step(tr, c, int64(i+1), detAt(x, 50))...)
	}

	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, "main", event.LineID)
	assert.Equal(t, int64(1), event.TrackID)
	assert.Equal(t, int64(3), event.FrameID) // the frame whose motion segment crossed
	assert.Equal(t, models.DirectionDown, event.Direction)
	assert.Equal(t, int64(1), event.Total)
	assert.Equal(t, int64(1), c.Total())
}

func TestCounter_OppositeDirections(t *testing.T) {
	tr := newTestTracker()
	c := NewCounter([]models.CountLine{mainLine}, nil, frameW, frameH)

	// Two vehicles on separate lanes crossing in opposite directions.
	var events []models.CountEvent
	left := []int{20, 40, 60, 80}
	right := []int{80, 60, 40, 20}
	for i := range left {
		events = append(events, step(tr, c, int64(i+1),
			detAt(left[i], 20), detAt(right[i], 80))...)
	}

	require.Len(t, events, 2)

	dirs := map[models.Direction]int{}
	for _, e := range events {
		dirs[e.Direction]++
	}
	assert.Equal(t, 1, dirs[models.DirectionDown])
	assert.Equal(t, 1, dirs[models.DirectionUp])

	// Totals are monotonic across events.
	assert.Equal(t, int64(1), events[0].Total)
	assert.Equal(t, int64(2), events[1].Total)

	summary := c.Summary()
	assert.Equal(t, int64(2), summary.Total)
	assert.Equal(t, int64(2), summary.ByLine["main"])
	assert.Equal(t, int64(1), summary.ByDir["main"][models.DirectionUp])
	assert.Equal(t, int64(1), summary.ByDir["main"][models.DirectionDown])
}

func TestCounter_RecrossingNotDoubleCounted(t *testing.T) {
	tr := newTestTracker()
	c := NewCounter([]models.CountLine{mainLine}, nil, frameW, frameH)

	// Cross, come back, cross again: one identity, one count.
	var events []models.CountEvent
	xs := []int{40, 60, 40, 60, 40}
	for i, x := range xs {
		events = append(events, step(tr, c, int64(i+1), detAt(x, 50))...)
	}

	assert.Len(t, events, 1)
	assert.Equal(t, int64(1), c.Total())
}

func TestCounter_NoCrossingNoEvents(t *testing.T) {
	tr := newTestTracker()
	c := NewCounter([]models.CountLine{mainLine}, nil, frameW, frameH)

	var events []models.CountEvent
	for i, x := range []int{70, 85, 100, 115} {
		events = append(events, step(tr, c, int64(i+1), detAt(x, 50))...)
	}

	assert.Empty(t, events)
	assert.Equal(t, int64(0), c.Total())
}

func TestCounter_ExactlyOnLineThenAcross(t *testing.T) {
	tr := newTestTracker()
	c := NewCounter([]models.CountLine{mainLine}, nil, frameW, frameH)

	// The centroid lands exactly on the line, then continues. The touch is
	// the crossing; the follow-up motion must not count again.
	var events []models.CountEvent
	for i, x := range []int{40, 50, 60} {
		events = append(events, step(tr, c, int64(i+1), detAt(x, 50))...)
	}

	assert.Len(t, events, 1)
}

func TestCounter_ZoneEntry(t *testing.T) {
	tr := newTestTracker()
	zone := models.CountZone{
		ID: "ramp",
		Points: []r2.Vec{
			{X: 0.4, Y: 0.2}, {X: 0.6, Y: 0.2},
			{X: 0.6, Y: 0.8}, {X: 0.4, Y: 0.8},
		},
	}
	c := NewCounter(nil, []models.CountZone{zone}, frameW, frameH)

	var events []models.CountEvent
	// Zone spans x 80..120px; approach from the left and enter.
	for i, x := range []int{40, 70, 100, 110} {
		events = append(events, step(tr, c, int64(i+1), detAt(x, 50))...)
	}

	require.Len(t, events, 1)
	assert.Equal(t, "ramp", events[0].LineID)
	assert.Equal(t, models.DirectionIn, events[0].Direction)
}

func TestCounter_RecentEvents(t *testing.T) {
	tr := newTestTracker()
	c := NewCounter([]models.CountLine{mainLine}, nil, frameW, frameH)

	// Three vehicles in separate lanes, each crossing once.
	var all []models.CountEvent
	xs := []int{30, 45, 60, 75}
	for i, x := range xs {
		all = append(all, step(tr, c, int64(i+1),
			detAt(x, 15), detAt(x, 50), detAt(x, 85))...)
	}
	require.Len(t, all, 3)

	recent := c.RecentEvents(2)
	require.Len(t, recent, 2)
	assert.Equal(t, all[1].ID, recent[0].ID)
	assert.Equal(t, all[2].ID, recent[1].ID)

	assert.Len(t, c.RecentEvents(0), 3)
	assert.Len(t, c.RecentEvents(100), 3)
}

func TestCounter_SingleSampleTrackIgnored(t *testing.T) {
	tr := newTestTracker()
	c := NewCounter([]models.CountLine{mainLine}, nil, frameW, frameH)

	events := step(tr, c, 1, detAt(49, 50))
	assert.Empty(t, events)
}
