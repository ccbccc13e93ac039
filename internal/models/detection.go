package models

import (
	"fmt"
	"image"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Detection is one validated observation in one frame. Instances are created
// at the detector boundary and discarded after association.
type Detection struct {
	Label     string          `json:"label"`
	Score     float32         `json:"score"`
	Box       image.Rectangle `json:"box"`
	FrameID   int64           `json:"frame_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// Centroid returns the geometric center of the bounding box.
func (d Detection) Centroid() r2.Vec {
	return r2.Vec{
		X: float64(d.Box.Min.X+d.Box.Max.X) / 2,
		Y: float64(d.Box.Min.Y+d.Box.Max.Y) / 2,
	}
}

// Area returns the bounding box area in pixels.
func (d Detection) Area() float64 {
	return float64(d.Box.Dx()) * float64(d.Box.Dy())
}

// Validate rejects malformed detector output before it enters the pipeline.
// Boxes that only spill over the frame edge are clamped rather than rejected.
func (d *Detection) Validate(frameWidth, frameHeight int) error {
	if d.Score < 0 || d.Score > 1 {
		return fmt.Errorf("detection score %f outside [0,1]", d.Score)
	}
	if d.Box.Dx() <= 0 || d.Box.Dy() <= 0 {
		return fmt.Errorf("detection box %v has no area", d.Box)
	}
	bounds := image.Rect(0, 0, frameWidth, frameHeight)
	clamped := d.Box.Intersect(bounds)
	if clamped.Dx() <= 0 || clamped.Dy() <= 0 {
		return fmt.Errorf("detection box %v entirely outside frame %dx%d", d.Box, frameWidth, frameHeight)
	}
	d.Box = clamped
	return nil
}

// FrameMetadata carries frame-level information alongside detections.
type FrameMetadata struct {
	FrameID        int64     `json:"frame_id"`
	Timestamp      time.Time `json:"timestamp"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	DetectionCount int       `json:"detection_count"`
}
