package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultInferenceTimeout = 10 * time.Second

// HTTPObjectDetector calls an external detection service that accepts a
// raw JPEG/PNG body and answers labeled boxes with confidences.
type HTTPObjectDetector struct {
	url    string
	client *http.Client
}

func NewHTTPObjectDetector(url string) *HTTPObjectDetector {
	return &HTTPObjectDetector{
		url:    url,
		client: &http.Client{Timeout: defaultInferenceTimeout},
	}
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
}

func (d *HTTPObjectDetector) Detect(ctx context.Context, frame []byte) ([]Detection, error) {
	body, err := d.post(ctx, frame)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}
	return resp.Detections, nil
}

func (d *HTTPObjectDetector) post(ctx context.Context, frame []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// HTTPLandmarkExtractor calls an external face-mesh service that answers
// normalized landmark coordinates, or an empty set when no face
// resolves.
type HTTPLandmarkExtractor struct {
	url    string
	client *http.Client
}

func NewHTTPLandmarkExtractor(url string) *HTTPLandmarkExtractor {
	return &HTTPLandmarkExtractor{
		url:    url,
		client: &http.Client{Timeout: defaultInferenceTimeout},
	}
}

type landmarkResponse struct {
	Found     bool    `json:"found"`
	Landmarks []Point `json:"landmarks"`
}

func (e *HTTPLandmarkExtractor) Landmarks(ctx context.Context, frame []byte) ([]Point, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(frame))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("landmark request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("landmark extractor returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	var parsed landmarkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("decode landmark response: %w", err)
	}
	if !parsed.Found || len(parsed.Landmarks) == 0 {
		return nil, false, nil
	}
	return parsed.Landmarks, true, nil
}
