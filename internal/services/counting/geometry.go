package counting

import "gonum.org/v1/gonum/spatial/r2"

// sideOf returns the sign of the cross product between the directed line a→b
// and the vector a→p: positive when p lies left of the line, negative when
// right, zero when colinear.
func sideOf(a, b, p r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(p, a))
}

// segmentCrossing reports whether the motion segment p1→p2 crosses the
// directed counting segment a→b, and if so whether it crossed toward the
// line's left side. The full motion segment is tested, not just the
// endpoints, so fast movers cannot skip over the line between samples.
func segmentCrossing(p1, p2, a, b r2.Vec) (crossed, towardLeft bool) {
	d1 := sideOf(a, b, p1)
	d2 := sideOf(a, b, p2)

	// Colinear motion along the line is not a crossing.
	if d1 == 0 && d2 == 0 {
		return false, false
	}
	// Both samples on the same side: no sign flip.
	if (d1 > 0) == (d2 > 0) && d1 != 0 && d2 != 0 {
		return false, false
	}

	// The motion straddles the infinite line; require the counting segment to
	// straddle the motion segment too, endpoint touches included.
	d3 := sideOf(p1, p2, a)
	d4 := sideOf(p1, p2, b)
	if d3 != 0 && d4 != 0 && (d3 > 0) == (d4 > 0) {
		return false, false
	}

	return true, d1 < 0 || (d1 == 0 && d2 > 0)
}

// pointInPolygon tests p against a closed polygon via ray casting.
func pointInPolygon(p r2.Vec, poly []r2.Vec) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// segmentEntersPolygon reports whether the motion segment p1→p2 enters the
// polygon from outside. A segment that passes clean through between two
// samples still counts as an entry.
func segmentEntersPolygon(p1, p2 r2.Vec, poly []r2.Vec) bool {
	if pointInPolygon(p1, poly) {
		return false
	}
	if pointInPolygon(p2, poly) {
		return true
	}
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		if crossed, _ := segmentCrossing(p1, p2, a, b); crossed {
			return true
		}
	}
	return false
}
