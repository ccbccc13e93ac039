package tracking

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/spatial/r2"

	"vehicle-counter-go/internal/models"
)

// Config holds the associator parameters.
type Config struct {
	MaxAssocDistance float64 // gating distance in pixels
	MaxMissedFrames  int     // ACTIVE -> LOST after this many consecutive misses
	MaxLostFrames    int     // LOST -> FINALIZED after this many further misses
	TrackHistory     int     // centroid samples retained per track
	FrameWidth       int
	FrameHeight      int
}

// Tracker associates per-frame detections into persistent tracks. It is owned
// by the run loop and is not safe for concurrent use; one frame is fully
// processed before the next.
type Tracker struct {
	cfg    Config
	tracks map[int64]*Track
	nextID int64
}

func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:    cfg,
		tracks: make(map[int64]*Track),
		nextID: 1,
	}
}

// Update ingests the current frame's detections and returns the tracks that
// were matched or created this frame, ordered by ascending track ID.
func (t *Tracker) Update(frameID int64, detections []models.Detection) []*Track {
	// Sorted by ascending ID so that equal assignment costs resolve to the
	// lowest track ID.
	live := t.liveTracks()

	assignments := t.associate(live, detections)

	matchedDets := make([]bool, len(detections))
	var updated []*Track

	for i, det := range assignments {
		track := live[i]
		if det < 0 {
			track.Missed++
			if track.State == TrackActive && track.Missed >= t.cfg.MaxMissedFrames {
				track.State = TrackLost
				log.Debug().Int64("track_id", track.ID).Int("missed", track.Missed).Msg("track_lost")
			}
			if track.Missed >= t.cfg.MaxMissedFrames+t.cfg.MaxLostFrames {
				t.finalize(track, "lost_threshold")
			}
			continue
		}

		d := detections[det]
		matchedDets[det] = true
		track.push(d.Centroid(), frameID)
		track.Box = d.Box
		track.Label = d.Label
		track.LastSeenFrame = frameID
		track.Missed = 0
		track.State = TrackActive
		updated = append(updated, track)
	}

	// Unmatched detections spawn new tracks in ACTIVE state.
	for j, matched := range matchedDets {
		if matched {
			continue
		}
		d := detections[j]
		track := newTrack(t.nextID, d.Label, d.Box, d.Centroid(), frameID, t.cfg.TrackHistory)
		t.nextID++
		t.tracks[track.ID] = track
		updated = append(updated, track)
		log.Debug().Int64("track_id", track.ID).Str("label", track.Label).Msg("track_created")
	}

	// Tracks that wandered out of the frame are finalized immediately.
	for _, track := range t.liveTracks() {
		c := track.Centroid()
		if c.X < 0 || c.Y < 0 || c.X >= float64(t.cfg.FrameWidth) || c.Y >= float64(t.cfg.FrameHeight) {
			t.finalize(track, "out_of_bounds")
		}
	}

	sort.Slice(updated, func(i, j int) bool { return updated[i].ID < updated[j].ID })
	return updated
}

// associate solves the minimum-cost track/detection matching. Cost is the
// Euclidean distance between the track's predicted centroid and the
// detection centroid, weighted by bounding-box size dissimilarity. Pairs
// beyond the gating distance are forbidden.
func (t *Tracker) associate(tracks []*Track, detections []models.Detection) []int {
	if len(tracks) == 0 || len(detections) == 0 {
		out := make([]int, len(tracks))
		for i := range out {
			out[i] = -1
		}
		return out
	}

	cost := make([][]float64, len(tracks))
	for i, track := range tracks {
		row := make([]float64, len(detections))
		pred := track.Predicted()
		trackArea := float64(track.Box.Dx()) * float64(track.Box.Dy())
		for j, det := range detections {
			dist := dist(pred, det.Centroid())
			if dist > t.cfg.MaxAssocDistance {
				row[j] = forbiddenCost
				continue
			}
			row[j] = dist * (1 + sizeDissimilarity(trackArea, det.Area()))
		}
		cost[i] = row
	}

	return hungarianAssign(cost)
}

func (t *Tracker) finalize(track *Track, reason string) {
	track.State = TrackFinalized
	delete(t.tracks, track.ID)
	log.Debug().Int64("track_id", track.ID).Str("reason", reason).Msg("track_finalized")
}

// liveTracks returns ACTIVE and LOST tracks ordered by ascending ID.
func (t *Tracker) liveTracks() []*Track {
	out := make([]*Track, 0, len(t.tracks))
	for _, track := range t.tracks {
		out = append(out, track)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Counts returns the number of ACTIVE and LOST tracks.
func (t *Tracker) Counts() (active, lost int) {
	for _, track := range t.tracks {
		switch track.State {
		case TrackActive:
			active++
		case TrackLost:
			lost++
		}
	}
	return active, lost
}

// Active returns the ACTIVE tracks ordered by ascending ID, for rendering.
func (t *Tracker) Active() []*Track {
	var out []*Track
	for _, track := range t.liveTracks() {
		if track.State == TrackActive {
			out = append(out, track)
		}
	}
	return out
}

func dist(a, b r2.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// sizeDissimilarity is 0 for identical box areas and approaches 1 as the
// areas diverge, so a same-distance detection with a similar box wins.
func sizeDissimilarity(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return 1 - a/b
}
