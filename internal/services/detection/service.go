package detection

import (
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"vehicle-counter-go/internal/config"
	"vehicle-counter-go/internal/models"
)

// Detector produces validated detections for one frame. Inference is a
// synchronous, blocking call from the run loop's perspective.
type Detector interface {
	Detect(img gocv.Mat, frameID int64, ts time.Time) ([]models.Detection, error)
	Close() error
}

// CascadeDetector detects vehicles with an OpenCV Haar cascade classifier.
type CascadeDetector struct {
	cfg        *config.Config
	classifier gocv.CascadeClassifier
	gray       gocv.Mat
}

// NewCascadeDetector loads the cascade model and fails fast when the model
// file cannot be read.
func NewCascadeDetector(cfg *config.Config) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.ModelPath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade model from %s", cfg.ModelPath)
	}

	log.Info().Str("model_path", cfg.ModelPath).Msg("Cascade classifier loaded")

	return &CascadeDetector{
		cfg:        cfg,
		classifier: classifier,
		gray:       gocv.NewMat(),
	}, nil
}

// Detect runs the classifier on a grayscale copy of the frame. Cascade
// classifiers report no per-box confidence, so every surviving box carries a
// score of 1. Malformed boxes are dropped at this boundary.
func (d *CascadeDetector) Detect(img gocv.Mat, frameID int64, ts time.Time) ([]models.Detection, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty frame %d", frameID)
	}

	gocv.CvtColor(img, &d.gray, gocv.ColorBGRToGray)

	minSize := image.Pt(d.cfg.CascadeMinSize, d.cfg.CascadeMinSize)
	rects := d.classifier.DetectMultiScaleWithParams(
		d.gray,
		d.cfg.CascadeScaleFactor,
		d.cfg.CascadeMinNeighbors,
		0,
		minSize,
		image.Pt(0, 0),
	)

	width, height := img.Cols(), img.Rows()
	detections := make([]models.Detection, 0, len(rects))
	for _, r := range rects {
		det := models.Detection{
			Label:     "vehicle",
			Score:     1.0,
			Box:       r,
			FrameID:   frameID,
			Timestamp: ts,
		}
		if err := det.Validate(width, height); err != nil {
			log.Debug().Err(err).Int64("frame_id", frameID).Msg("detection_rejected")
			continue
		}
		if det.Score < d.cfg.ConfidenceThreshold {
			continue
		}
		detections = append(detections, det)
	}

	return detections, nil
}

func (d *CascadeDetector) Close() error {
	d.gray.Close()
	return d.classifier.Close()
}
