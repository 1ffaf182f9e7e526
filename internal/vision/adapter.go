package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// ErrDecodeFailed marks a corrupt frame. It aborts the whole analysis
// cycle before any model call; the caller must not record an event nor
// count a warning for it.
var ErrDecodeFailed = errors.New("frame decode failed")

// Detection is one labeled box from the object detector.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Point is a normalized landmark coordinate in [0,1]².
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ObjectDetector is the external model that returns labeled boxes with
// confidences for one frame.
type ObjectDetector interface {
	Detect(ctx context.Context, frame []byte) ([]Detection, error)
}

// LandmarkExtractor is the external model that returns normalized facial
// landmarks for one frame, or found=false when no face resolves.
type LandmarkExtractor interface {
	Landmarks(ctx context.Context, frame []byte) (points []Point, found bool, err error)
}

// DetectionResult is the fixed structured verdict for one frame.
type DetectionResult struct {
	FacePresent    bool `json:"face_present"`
	MultipleFaces  bool `json:"multiple_faces"`
	MobileDetected bool `json:"mobile_detected"`
	GazeOffScreen  bool `json:"gaze_off_screen"`

	// Detections is the raw detector output, kept for the event log.
	Detections []Detection `json:"detections"`
}

const (
	personLabel = "person"

	// Confidence floor for device detection.
	deviceConfidenceFloor = 0.3

	// Normalized screen-center box; an eye center outside it classifies
	// as gaze-off-screen.
	gazeBoxMin = 0.35
	gazeBoxMax = 0.65
)

var deviceLabels = map[string]struct{}{
	"cell phone": {},
	"mobile":     {},
}

// Landmark index sets for the eye centers, matching the extractor's face
// mesh topology.
var (
	leftEyeIdx  = []int{33, 133, 159, 145}
	rightEyeIdx = []int{263, 362, 386, 374}
)

// FrameClassifier wraps the two external models and turns one raw image
// into a DetectionResult. Model handles are injected at construction;
// there are no lazily built globals.
type FrameClassifier struct {
	detector  ObjectDetector
	extractor LandmarkExtractor
	logger    *slog.Logger
}

func NewFrameClassifier(detector ObjectDetector, extractor LandmarkExtractor, logger *slog.Logger) *FrameClassifier {
	return &FrameClassifier{
		detector:  detector,
		extractor: extractor,
		logger:    logger,
	}
}

// Classify analyzes one frame. A corrupt frame returns ErrDecodeFailed;
// a detector transport failure returns a transient error. An extractor
// that resolves no landmarks is NOT an error: an undetectable face is
// itself a signal and yields FacePresent=false.
func (c *FrameClassifier) Classify(ctx context.Context, frame []byte) (DetectionResult, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(frame)); err != nil {
		return DetectionResult{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	detections, err := c.detector.Detect(ctx, frame)
	if err != nil {
		return DetectionResult{}, fmt.Errorf("object detection: %w", err)
	}

	result := DetectionResult{Detections: detections}
	persons := 0
	for _, d := range detections {
		label := strings.ToLower(d.Label)
		if label == personLabel {
			persons++
		}
		if _, ok := deviceLabels[label]; ok && d.Confidence > deviceConfidenceFloor {
			result.MobileDetected = true
		}
	}
	result.FacePresent = persons > 0
	result.MultipleFaces = persons > 1

	points, found, err := c.extractor.Landmarks(ctx, frame)
	if err != nil {
		// Degrade, don't fail: the detector verdict still stands and a
		// broken extractor must not silence monitoring.
		c.logger.Warn("landmark extraction failed", "error", err)
		return result, nil
	}
	if !found {
		result.FacePresent = false
		return result, nil
	}

	if center, ok := eyeCenter(points); ok {
		result.GazeOffScreen = center.X <= gazeBoxMin || center.X >= gazeBoxMax ||
			center.Y <= gazeBoxMin || center.Y >= gazeBoxMax
	}

	return result, nil
}

// eyeCenter averages the fixed left and right eye landmark sets and
// returns their midpoint. ok is false when the mesh is too short to
// contain the eye indices.
func eyeCenter(points []Point) (Point, bool) {
	left, ok := meanOf(points, leftEyeIdx)
	if !ok {
		return Point{}, false
	}
	right, ok := meanOf(points, rightEyeIdx)
	if !ok {
		return Point{}, false
	}
	return Point{X: (left.X + right.X) / 2, Y: (left.Y + right.Y) / 2}, true
}

func meanOf(points []Point, idx []int) (Point, bool) {
	var sum Point
	for _, i := range idx {
		if i >= len(points) {
			return Point{}, false
		}
		sum.X += points[i].X
		sum.Y += points[i].Y
	}
	n := float64(len(idx))
	return Point{X: sum.X / n, Y: sum.Y / n}, true
}
