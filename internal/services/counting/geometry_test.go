package counting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

// Vertical counting segment from (50,0) down to (50,100). sideOf is positive
// for points with x < 50, so motion toward smaller x is "toward left".
var (
	lineA = r2.Vec{X: 50, Y: 0}
	lineB = r2.Vec{X: 50, Y: 100}
)

func TestSegmentCrossing_LeftToRight(t *testing.T) {
	crossed, towardLeft := segmentCrossing(r2.Vec{X: 40, Y: 50}, r2.Vec{X: 60, Y: 50}, lineA, lineB)
	assert.True(t, crossed)
	assert.False(t, towardLeft)
}

func TestSegmentCrossing_RightToLeft(t *testing.T) {
	crossed, towardLeft := segmentCrossing(r2.Vec{X: 60, Y: 50}, r2.Vec{X: 40, Y: 50}, lineA, lineB)
	assert.True(t, crossed)
	assert.True(t, towardLeft)
}

func TestSegmentCrossing_SameSide(t *testing.T) {
	crossed, _ := segmentCrossing(r2.Vec{X: 10, Y: 50}, r2.Vec{X: 40, Y: 50}, lineA, lineB)
	assert.False(t, crossed)
}

func TestSegmentCrossing_ColinearMotion(t *testing.T) {
	crossed, _ := segmentCrossing(r2.Vec{X: 50, Y: 10}, r2.Vec{X: 50, Y: 90}, lineA, lineB)
	assert.False(t, crossed)
}

func TestSegmentCrossing_FastMoverCannotSkip(t *testing.T) {
	// The whole motion segment is tested, so a 100px jump straight over
	// the line still registers.
	crossed, towardLeft := segmentCrossing(r2.Vec{X: 0, Y: 50}, r2.Vec{X: 100, Y: 50}, lineA, lineB)
	assert.True(t, crossed)
	assert.False(t, towardLeft)
}

func TestSegmentCrossing_MissesBeyondSegmentEnd(t *testing.T) {
	// Motion crosses the infinite line but below the segment's end.
	short := r2.Vec{X: 50, Y: 40}
	crossed, _ := segmentCrossing(r2.Vec{X: 40, Y: 50}, r2.Vec{X: 60, Y: 50}, lineA, short)
	assert.False(t, crossed)
}

func TestSegmentCrossing_EndpointTouch(t *testing.T) {
	// Landing exactly on the line counts as a crossing.
	crossed, towardLeft := segmentCrossing(r2.Vec{X: 40, Y: 50}, r2.Vec{X: 50, Y: 50}, lineA, lineB)
	assert.True(t, crossed)
	assert.False(t, towardLeft)
}

func TestPointInPolygon(t *testing.T) {
	square := []r2.Vec{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

	assert.True(t, pointInPolygon(r2.Vec{X: 50, Y: 50}, square))
	assert.False(t, pointInPolygon(r2.Vec{X: 150, Y: 50}, square))
	assert.False(t, pointInPolygon(r2.Vec{X: -1, Y: 50}, square))
}

func TestSegmentEntersPolygon(t *testing.T) {
	square := []r2.Vec{{X: 40, Y: 40}, {X: 60, Y: 40}, {X: 60, Y: 60}, {X: 40, Y: 60}}

	// Outside to inside.
	assert.True(t, segmentEntersPolygon(r2.Vec{X: 10, Y: 50}, r2.Vec{X: 50, Y: 50}, square))
	// Already inside: not an entry.
	assert.False(t, segmentEntersPolygon(r2.Vec{X: 45, Y: 50}, r2.Vec{X: 55, Y: 50}, square))
	// Fully outside.
	assert.False(t, segmentEntersPolygon(r2.Vec{X: 10, Y: 10}, r2.Vec{X: 20, Y: 10}, square))
	// Clean pass-through between two samples is still an entry.
	assert.True(t, segmentEntersPolygon(r2.Vec{X: 10, Y: 50}, r2.Vec{X: 90, Y: 50}, square))
}
