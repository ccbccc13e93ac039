package tracking

import (
	"image"

	"gonum.org/v1/gonum/spatial/r2"
)

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	TrackActive    TrackState = "active"    // matched recently, eligible for counting
	TrackLost      TrackState = "lost"      // missed frames, kept for re-association
	TrackFinalized TrackState = "finalized" // removed from the tracker
)

// TrackPoint is a single centroid sample in a track's history.
type TrackPoint struct {
	Pos     r2.Vec
	FrameID int64
}

// Track is one persistent identity across frames.
type Track struct {
	ID    int64
	State TrackState
	Label string

	// Centroid history, most recent last, monotonic in frame index.
	History []TrackPoint
	maxHist int

	Box           image.Rectangle // most recent bounding box
	LastSeenFrame int64
	Missed        int // consecutive frames without a match

	// Boundaries this track has already been counted for. Flags are never
	// cleared, so a re-crossing identity is not counted again.
	counted map[string]bool
}

func newTrack(id int64, label string, box image.Rectangle, centroid r2.Vec, frameID int64, maxHist int) *Track {
	t := &Track{
		ID:            id,
		State:         TrackActive,
		Label:         label,
		maxHist:       maxHist,
		Box:           box,
		LastSeenFrame: frameID,
		counted:       make(map[string]bool),
	}
	t.push(centroid, frameID)
	return t
}

func (t *Track) push(pos r2.Vec, frameID int64) {
	t.History = append(t.History, TrackPoint{Pos: pos, FrameID: frameID})
	if len(t.History) > t.maxHist {
		t.History = t.History[1:]
	}
}

// Centroid returns the most recent centroid sample.
func (t *Track) Centroid() r2.Vec {
	return t.History[len(t.History)-1].Pos
}

// PrevCentroid returns the centroid before the current one. The second
// return is false when the track has fewer than two samples.
func (t *Track) PrevCentroid() (r2.Vec, bool) {
	if len(t.History) < 2 {
		return r2.Vec{}, false
	}
	return t.History[len(t.History)-2].Pos, true
}

// Predicted returns the expected centroid for the next frame, linearly
// extrapolated from the last two samples. A track with a single sample
// cannot predict motion and is treated as stationary.
func (t *Track) Predicted() r2.Vec {
	curr := t.Centroid()
	prev, ok := t.PrevCentroid()
	if !ok {
		return curr
	}
	return r2.Add(curr, r2.Sub(curr, prev))
}

// Counted reports whether this track already produced a count event for the
// given boundary.
func (t *Track) Counted(boundaryID string) bool {
	return t.counted[boundaryID]
}

// MarkCounted flags the track as counted for the given boundary.
func (t *Track) MarkCounted(boundaryID string) {
	t.counted[boundaryID] = true
}
