package config

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"vehicle-counter-go/internal/models"
)

// ParseCountLines parses the COUNT_LINES value. Format:
//
//	id:x1,y1,x2,y2[;id:x1,y1,x2,y2...]
//
// Coordinates are normalized to [0,1]. The id prefix is optional; unnamed
// lines get line-1, line-2, ...
func ParseCountLines(spec string) ([]models.CountLine, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var lines []models.CountLine
	for i, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id := fmt.Sprintf("line-%d", i+1)
		coords := part
		if idx := strings.Index(part, ":"); idx >= 0 {
			id = strings.TrimSpace(part[:idx])
			coords = part[idx+1:]
		}

		vals, err := parseFloats(coords, 4)
		if err != nil {
			return nil, fmt.Errorf("count line %q: %w", part, err)
		}

		lines = append(lines, models.CountLine{
			ID: id,
			X1: vals[0], Y1: vals[1],
			X2: vals[2], Y2: vals[3],
		})
	}
	return lines, nil
}

// ParseCountZones parses the COUNT_ZONES value. Format:
//
//	id:x1,y1,x2,y2,x3,y3[,...][;id:...]
//
// Each zone is a closed polygon with at least three vertices.
func ParseCountZones(spec string) ([]models.CountZone, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var zones []models.CountZone
	for i, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id := fmt.Sprintf("zone-%d", i+1)
		coords := part
		if idx := strings.Index(part, ":"); idx >= 0 {
			id = strings.TrimSpace(part[:idx])
			coords = part[idx+1:]
		}

		vals, err := parseFloats(coords, -1)
		if err != nil {
			return nil, fmt.Errorf("count zone %q: %w", part, err)
		}
		if len(vals) < 6 || len(vals)%2 != 0 {
			return nil, fmt.Errorf("count zone %q: need an even number of coordinates for at least 3 points, got %d values", part, len(vals))
		}

		points := make([]r2.Vec, 0, len(vals)/2)
		for j := 0; j < len(vals); j += 2 {
			points = append(points, r2.Vec{X: vals[j], Y: vals[j+1]})
		}
		zones = append(zones, models.CountZone{ID: id, Points: points})
	}
	return zones, nil
}

func parseFloats(s string, want int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if want > 0 && len(fields) != want {
		return nil, fmt.Errorf("expected %d comma-separated values, got %d", want, len(fields))
	}
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", f)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// Validate rejects out-of-range configuration at startup, before the
// processing loop is entered.
func (c *Config) Validate() error {
	if c.VideoSource == "" {
		return fmt.Errorf("VIDEO_SOURCE must not be empty")
	}
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH must not be empty")
	}
	if c.FrameSkip < 1 {
		return fmt.Errorf("FRAME_SKIP must be >= 1, got %d", c.FrameSkip)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be in [0,1], got %f", c.ConfidenceThreshold)
	}
	if c.CascadeScaleFactor <= 1.0 {
		return fmt.Errorf("CASCADE_SCALE_FACTOR must be > 1.0, got %f", c.CascadeScaleFactor)
	}
	if c.MaxAssocDistance <= 0 {
		return fmt.Errorf("MAX_ASSOC_DISTANCE must be > 0, got %f", c.MaxAssocDistance)
	}
	if c.MaxMissedFrames < 1 {
		return fmt.Errorf("MAX_MISSED_FRAMES must be >= 1, got %d", c.MaxMissedFrames)
	}
	if c.MaxLostFrames < 1 {
		return fmt.Errorf("MAX_LOST_FRAMES must be >= 1, got %d", c.MaxLostFrames)
	}
	if c.TrackHistory < 2 {
		return fmt.Errorf("TRACK_HISTORY must be >= 2, got %d", c.TrackHistory)
	}
	if c.OutputWidth <= 0 || c.OutputHeight <= 0 {
		return fmt.Errorf("output size %dx%d is invalid", c.OutputWidth, c.OutputHeight)
	}
	if len(c.CountLines) == 0 && len(c.CountZones) == 0 {
		return fmt.Errorf("at least one count line or zone must be configured")
	}

	seen := make(map[string]bool)
	for _, l := range c.CountLines {
		if seen[l.ID] {
			return fmt.Errorf("duplicate count line/zone id %q", l.ID)
		}
		seen[l.ID] = true
		for _, v := range []float64{l.X1, l.Y1, l.X2, l.Y2} {
			if v < 0 || v > 1 {
				return fmt.Errorf("count line %q: coordinate %f outside frame bounds [0,1]", l.ID, v)
			}
		}
		if l.X1 == l.X2 && l.Y1 == l.Y2 {
			return fmt.Errorf("count line %q has zero length", l.ID)
		}
	}
	for _, z := range c.CountZones {
		if seen[z.ID] {
			return fmt.Errorf("duplicate count line/zone id %q", z.ID)
		}
		seen[z.ID] = true
		for _, p := range z.Points {
			if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
				return fmt.Errorf("count zone %q: point (%f,%f) outside frame bounds [0,1]", z.ID, p.X, p.Y)
			}
		}
	}

	return nil
}
