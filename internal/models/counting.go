package models

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Direction tells which side of a directed counting line a track came from.
type Direction string

const (
	DirectionUp   Direction = "up"   // crossed from the line's right side to its left
	DirectionDown Direction = "down" // crossed from the line's left side to its right
	DirectionIn   Direction = "in"   // entered a counting zone
)

// CountLine is a directed counting segment in normalized [0,1] coordinates.
// Coordinates are scaled to pixels once the frame dimensions are known.
type CountLine struct {
	ID string  `json:"id"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Endpoints returns the line's endpoints scaled to the given frame size.
func (l CountLine) Endpoints(width, height int) (r2.Vec, r2.Vec) {
	w, h := float64(width), float64(height)
	return r2.Vec{X: l.X1 * w, Y: l.Y1 * h}, r2.Vec{X: l.X2 * w, Y: l.Y2 * h}
}

// CountZone is a closed polygon in normalized [0,1] coordinates. A track is
// counted once when its motion segment enters the zone from outside.
type CountZone struct {
	ID     string   `json:"id"`
	Points []r2.Vec `json:"points"`
}

// Polygon returns the zone vertices scaled to the given frame size.
func (z CountZone) Polygon(width, height int) []r2.Vec {
	w, h := float64(width), float64(height)
	out := make([]r2.Vec, len(z.Points))
	for i, p := range z.Points {
		out[i] = r2.Vec{X: p.X * w, Y: p.Y * h}
	}
	return out
}

// CountEvent is the immutable record of one counted crossing. Events are
// appended to the run's history and never mutated or removed.
type CountEvent struct {
	ID        uuid.UUID `json:"id"`
	LineID    string    `json:"line_id"`
	TrackID   int64     `json:"track_id"`
	FrameID   int64     `json:"frame_id"`
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Total     int64     `json:"total"` // running total after this event
}

// CountSummary is the aggregate view served by the status API and logged at
// stream end.
type CountSummary struct {
	Total   int64                          `json:"total"`
	ByLine  map[string]int64               `json:"by_line"`
	ByDir   map[string]map[Direction]int64 `json:"by_direction"`
	Events  int                            `json:"events"`
	Updated time.Time                      `json:"updated"`
}
