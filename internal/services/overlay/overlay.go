package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"vehicle-counter-go/internal/models"
	"vehicle-counter-go/internal/services/tracking"
)

var (
	trackColor   = color.RGBA{R: 0, G: 165, B: 255, A: 255}
	lostColor    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	trailColor   = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	lineColor    = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	zoneColor    = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	countedColor = color.RGBA{R: 255, G: 215, B: 0, A: 255}
)

// DrawTracks renders bounding boxes with corner accents, track IDs, centroid
// points and the recent centroid trail.
func DrawTracks(mat *gocv.Mat, tracks []*tracking.Track) {
	if mat == nil {
		return
	}
	for _, t := range tracks {
		c := trackColor
		if t.State == tracking.TrackLost {
			c = lostColor
		}

		box := t.Box
		gocv.Rectangle(mat, box, c, 2)
		drawCorners(mat, box.Min.X, box.Min.Y, box.Max.X, box.Max.Y, c)

		label := fmt.Sprintf("#%d", t.ID)
		DrawTextEnhanced(mat, label, box.Min.X, box.Min.Y-6, c, 0.55, 2)

		// Centroid trail, most recent samples only.
		for i := 1; i < len(t.History); i++ {
			p0 := t.History[i-1].Pos
			p1 := t.History[i].Pos
			gocv.Line(mat, image.Pt(int(p0.X), int(p0.Y)), image.Pt(int(p1.X), int(p1.Y)), trailColor, 1)
		}
		curr := t.Centroid()
		gocv.Circle(mat, image.Pt(int(curr.X), int(curr.Y)), 4, trailColor, -1)
	}
}

// DrawBoundaries renders the counting lines and zone polygons.
func DrawBoundaries(mat *gocv.Mat, lines []models.CountLine, zones []models.CountZone, width, height int) {
	if mat == nil {
		return
	}
	for _, l := range lines {
		a, b := l.Endpoints(width, height)
		pa := image.Pt(int(a.X), int(a.Y))
		pb := image.Pt(int(b.X), int(b.Y))
		gocv.Line(mat, pa, pb, lineColor, 2)
		DrawTextEnhanced(mat, l.ID, pa.X+6, pa.Y+20, lineColor, 0.5, 1)
	}
	for _, z := range zones {
		poly := z.Polygon(width, height)
		for i := range poly {
			a := poly[i]
			b := poly[(i+1)%len(poly)]
			gocv.Line(mat, image.Pt(int(a.X), int(a.Y)), image.Pt(int(b.X), int(b.Y)), zoneColor, 2)
		}
		if len(poly) > 0 {
			DrawTextEnhanced(mat, z.ID, int(poly[0].X)+6, int(poly[0].Y)+20, zoneColor, 0.5, 1)
		}
	}
}

// DrawCounterPanel renders the running totals header.
func DrawCounterPanel(mat *gocv.Mat, summary models.CountSummary, activeTracks int, fps float64) {
	if mat == nil {
		return
	}
	y := 30
	headerText := "VEHICLE COUNTER"
	DrawTextEnhanced(mat, headerText, 15, y, color.RGBA{R: 0, G: 255, B: 255, A: 255}, 0.8, 2)
	y += 35

	DrawCompactCounter(mat, "VEHICLES", int64(activeTracks), summary.Total, 15, y,
		color.RGBA{R: 0, G: 255, B: 255, A: 255},
		getCountColor(activeTracks),
		countedColor)
	y += 35

	for line, total := range summary.ByLine {
		text := fmt.Sprintf("%s: %d", line, total)
		DrawTextEnhanced(mat, text, 15, y, countedColor, 0.6, 2)
		y += 28
	}

	if fps > 0 {
		DrawTextEnhanced(mat, fmt.Sprintf("FPS: %.1f", fps), 15, y, color.RGBA{R: 200, G: 200, B: 200, A: 255}, 0.5, 1)
	}
}

// getCountColor returns a dynamic color based on the live vehicle count.
func getCountColor(count int) color.RGBA {
	switch {
	case count == 0:
		return color.RGBA{R: 128, G: 128, B: 128, A: 255} // gray for no vehicles
	case count <= 5:
		return color.RGBA{R: 0, G: 255, B: 0, A: 255} // green for low count
	default:
		return color.RGBA{R: 255, G: 0, B: 0, A: 255} // red for busy scenes
	}
}

// drawCorners draws corner highlights for better box visibility.
func drawCorners(mat *gocv.Mat, x1, y1, x2, y2 int, c color.RGBA) {
	cornerLength := 15
	cornerThickness := 3

	gocv.Line(mat, image.Pt(x1, y1), image.Pt(x1+cornerLength, y1), c, cornerThickness)
	gocv.Line(mat, image.Pt(x1, y1), image.Pt(x1, y1+cornerLength), c, cornerThickness)

	gocv.Line(mat, image.Pt(x2, y1), image.Pt(x2-cornerLength, y1), c, cornerThickness)
	gocv.Line(mat, image.Pt(x2, y1), image.Pt(x2, y1+cornerLength), c, cornerThickness)

	gocv.Line(mat, image.Pt(x1, y2), image.Pt(x1+cornerLength, y2), c, cornerThickness)
	gocv.Line(mat, image.Pt(x1, y2), image.Pt(x1, y2-cornerLength), c, cornerThickness)

	gocv.Line(mat, image.Pt(x2, y2), image.Pt(x2-cornerLength, y2), c, cornerThickness)
	gocv.Line(mat, image.Pt(x2, y2), image.Pt(x2, y2-cornerLength), c, cornerThickness)
}
