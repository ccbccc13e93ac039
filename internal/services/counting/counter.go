package counting

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/spatial/r2"

	"vehicle-counter-go/internal/models"
	"vehicle-counter-go/internal/services/tracking"
)

type lineBoundary struct {
	id   string
	a, b r2.Vec
}

type zoneBoundary struct {
	id   string
	poly []r2.Vec
}

// Counter evaluates track trajectories against the configured counting
// boundaries and emits at most one CountEvent per track per boundary.
// Observe is called from the run loop only; the read accessors are safe to
// call concurrently from the status API.
type Counter struct {
	lines []lineBoundary
	zones []zoneBoundary

	mu     sync.RWMutex
	events []models.CountEvent
	total  int64
	byLine map[string]int64
	byDir  map[string]map[models.Direction]int64
}

// NewCounter scales the configured boundaries to the given frame size.
func NewCounter(lines []models.CountLine, zones []models.CountZone, width, height int) *Counter {
	c := &Counter{
		byLine: make(map[string]int64),
		byDir:  make(map[string]map[models.Direction]int64),
	}
	for _, l := range lines {
		a, b := l.Endpoints(width, height)
		c.lines = append(c.lines, lineBoundary{id: l.ID, a: a, b: b})
		c.byLine[l.ID] = 0
		c.byDir[l.ID] = make(map[models.Direction]int64)
	}
	for _, z := range zones {
		c.zones = append(c.zones, zoneBoundary{id: z.ID, poly: z.Polygon(width, height)})
		c.byLine[z.ID] = 0
		c.byDir[z.ID] = make(map[models.Direction]int64)
	}
	return c
}

// Observe checks whether the track just crossed any boundary and returns the
// resulting events. Tracks with fewer than two centroid samples cannot have
// crossed anything yet.
func (c *Counter) Observe(track *tracking.Track, ts time.Time) []models.CountEvent {
	prev, ok := track.PrevCentroid()
	if !ok {
		return nil
	}
	curr := track.Centroid()
	frameID := track.LastSeenFrame

	var out []models.CountEvent

	for _, l := range c.lines {
		if track.Counted(l.id) {
			continue
		}
		crossed, towardLeft := segmentCrossing(prev, curr, l.a, l.b)
		if !crossed {
			continue
		}
		dir := models.DirectionDown
		if towardLeft {
			dir = models.DirectionUp
		}
		track.MarkCounted(l.id)
		out = append(out, c.record(l.id, track.ID, frameID, ts, dir))
	}

	for _, z := range c.zones {
		if track.Counted(z.id) {
			continue
		}
		if !segmentEntersPolygon(prev, curr, z.poly) {
			continue
		}
		track.MarkCounted(z.id)
		out = append(out, c.record(z.id, track.ID, frameID, ts, models.DirectionIn))
	}

	return out
}

func (c *Counter) record(boundaryID string, trackID, frameID int64, ts time.Time, dir models.Direction) models.CountEvent {
	c.mu.Lock()
	c.total++
	c.byLine[boundaryID]++
	c.byDir[boundaryID][dir]++
	event := models.CountEvent{
		ID:        uuid.New(),
		LineID:    boundaryID,
		TrackID:   trackID,
		FrameID:   frameID,
		Timestamp: ts,
		Direction: dir,
		Total:     c.total,
	}
	c.events = append(c.events, event)
	c.mu.Unlock()

	log.Info().
		Int64("track_id", trackID).
		Int64("frame_id", frameID).
		Str("line", boundaryID).
		Str("direction", string(dir)).
		Int64("total", event.Total).
		Msg("vehicle_counted")

	return event
}

// Total returns the running count across all boundaries.
func (c *Counter) Total() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Summary returns the aggregate counts for the API and the final log line.
func (c *Counter) Summary() models.CountSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byLine := make(map[string]int64, len(c.byLine))
	for k, v := range c.byLine {
		byLine[k] = v
	}
	byDir := make(map[string]map[models.Direction]int64, len(c.byDir))
	for k, dirs := range c.byDir {
		inner := make(map[models.Direction]int64, len(dirs))
		for d, v := range dirs {
			inner[d] = v
		}
		byDir[k] = inner
	}

	return models.CountSummary{
		Total:   c.total,
		ByLine:  byLine,
		ByDir:   byDir,
		Events:  len(c.events),
		Updated: time.Now(),
	}
}

// RecentEvents returns up to n most recent events, newest last.
func (c *Counter) RecentEvents(n int) []models.CountEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || n > len(c.events) {
		n = len(c.events)
	}
	out := make([]models.CountEvent, n)
	copy(out, c.events[len(c.events)-n:])
	return out
}
