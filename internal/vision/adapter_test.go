package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	detections []Detection
	err        error
	calls      int
}

func (d *stubDetector) Detect(_ context.Context, _ []byte) ([]Detection, error) {
	d.calls++
	return d.detections, d.err
}

type stubExtractor struct {
	points []Point
	found  bool
	err    error
}

func (e *stubExtractor) Landmarks(_ context.Context, _ []byte) ([]Point, bool, error) {
	return e.points, e.found, e.err
}

func testFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// meshWithEyesAt builds a landmark set long enough for both eye index
// groups, with every point at the given coordinate.
func meshWithEyesAt(x, y float64) []Point {
	points := make([]Point, 400)
	for i := range points {
		points[i] = Point{X: x, Y: y}
	}
	return points
}

func newTestClassifier(detector ObjectDetector, extractor LandmarkExtractor) *FrameClassifier {
	return NewFrameClassifier(detector, extractor, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClassify_CorruptFrame(t *testing.T) {
	detector := &stubDetector{}
	c := newTestClassifier(detector, &stubExtractor{})

	_, err := c.Classify(context.Background(), []byte("not an image"))
	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Zero(t, detector.calls, "a corrupt frame must abort before any model call")
}

func TestClassify_DetectorFailureIsTransient(t *testing.T) {
	c := newTestClassifier(&stubDetector{err: errors.New("connection refused")}, &stubExtractor{})

	_, err := c.Classify(context.Background(), testFrame(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDecodeFailed)
}

func TestClassify_PersonAndDeviceCounting(t *testing.T) {
	detector := &stubDetector{detections: []Detection{
		{Label: "person", Confidence: 0.9},
		{Label: "Person", Confidence: 0.8},
		{Label: "cell phone", Confidence: 0.5},
	}}
	extractor := &stubExtractor{points: meshWithEyesAt(0.5, 0.5), found: true}
	c := newTestClassifier(detector, extractor)

	result, err := c.Classify(context.Background(), testFrame(t))
	require.NoError(t, err)
	assert.True(t, result.FacePresent)
	assert.True(t, result.MultipleFaces)
	assert.True(t, result.MobileDetected)
	assert.False(t, result.GazeOffScreen)
	assert.Len(t, result.Detections, 3)
}

func TestClassify_DeviceConfidenceFloor(t *testing.T) {
	detector := &stubDetector{detections: []Detection{
		{Label: "person", Confidence: 0.9},
		{Label: "cell phone", Confidence: 0.25},
	}}
	extractor := &stubExtractor{points: meshWithEyesAt(0.5, 0.5), found: true}
	c := newTestClassifier(detector, extractor)

	result, err := c.Classify(context.Background(), testFrame(t))
	require.NoError(t, err)
	assert.False(t, result.MobileDetected, "low-confidence device must be ignored")
}

func TestClassify_LandmarkMissMeansNoFace(t *testing.T) {
	detector := &stubDetector{detections: []Detection{{Label: "person", Confidence: 0.9}}}
	c := newTestClassifier(detector, &stubExtractor{found: false})

	result, err := c.Classify(context.Background(), testFrame(t))
	require.NoError(t, err)
	assert.False(t, result.FacePresent, "an unresolvable face overrides the detector verdict")
}

func TestClassify_ExtractorErrorDegrades(t *testing.T) {
	detector := &stubDetector{detections: []Detection{{Label: "person", Confidence: 0.9}}}
	c := newTestClassifier(detector, &stubExtractor{err: errors.New("mesh service down")})

	result, err := c.Classify(context.Background(), testFrame(t))
	require.NoError(t, err, "a broken extractor must not fail the cycle")
	assert.True(t, result.FacePresent)
	assert.False(t, result.GazeOffScreen)
}

func TestClassify_GazeBox(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantOff bool
	}{
		{"center", 0.5, 0.5, false},
		{"far left", 0.2, 0.5, true},
		{"far down", 0.5, 0.8, true},
		{"left boundary", 0.35, 0.5, true},
		{"right boundary", 0.65, 0.5, true},
		{"just inside", 0.36, 0.64, false},
	}

	detector := &stubDetector{detections: []Detection{{Label: "person", Confidence: 0.9}}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &stubExtractor{points: meshWithEyesAt(tt.x, tt.y), found: true}
			c := newTestClassifier(detector, extractor)

			result, err := c.Classify(context.Background(), testFrame(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOff, result.GazeOffScreen)
		})
	}
}

func TestClassify_ShortMeshSkipsGaze(t *testing.T) {
	detector := &stubDetector{detections: []Detection{{Label: "person", Confidence: 0.9}}}
	extractor := &stubExtractor{points: make([]Point, 10), found: true}
	c := newTestClassifier(detector, extractor)

	result, err := c.Classify(context.Background(), testFrame(t))
	require.NoError(t, err)
	assert.False(t, result.GazeOffScreen)
}
