// Package engine provides the HTTP client for the external face
// detection and embedding service. The service accepts an image and
// returns zero or more detected faces, each with a bounding box and a
// fixed-length embedding vector.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const (
	defaultEngineURL = "http://localhost:8000"

	// EmbeddingDim is the expected embedding length. Detections with a
	// different dimensionality are rejected at this boundary.
	EmbeddingDim = 512
)

// Detection is a single detected face.
type Detection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	DetScore  float64   `json:"det_score"`
}

// faceResponse is the wire format of the detection endpoint.
type faceResponse struct {
	FacesCount int         `json:"faces_count"`
	Faces      []Detection `json:"faces"`
	Model      string      `json:"model"`
}

// Client talks to the embedding engine. Construct one at process start
// and share it; it holds no per-request state.
type Client struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewClient creates an embedding engine client. dim 0 defaults to EmbeddingDim.
func NewClient(baseURL string, dim int) *Client {
	if baseURL == "" {
		baseURL = defaultEngineURL
	}
	if dim <= 0 {
		dim = EmbeddingDim
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{},
	}
}

// Dim returns the configured embedding dimensionality.
func (c *Client) Dim() int {
	return c.dim
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// DetectFaces runs face detection on a JPEG frame. A frame with no faces
// returns an empty slice and no error; that is the expected miss case
// during live sampling. Detections whose embedding is not exactly the
// configured dimensionality are dropped.
func (c *Client) DetectFaces(ctx context.Context, imageData []byte) ([]Detection, error) {
	body, err := c.postMultipartImage(ctx, "/embed/faces", imageData)
	if err != nil {
		return nil, err
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	valid := make([]Detection, 0, len(faceResp.Faces))
	for _, face := range faceResp.Faces {
		if len(face.Embedding) != c.dim {
			continue
		}
		valid = append(valid, face)
	}

	return valid, nil
}

// BestDetection selects the detection to use when multiple faces are
// present: the one with the largest bounding box area. Returns nil for
// an empty slice.
func BestDetection(detections []Detection) *Detection {
	var best *Detection
	bestArea := -1.0
	for i := range detections {
		area := bboxArea(detections[i].BBox)
		if area > bestArea {
			bestArea = area
			best = &detections[i]
		}
	}
	return best
}

// QualityScore estimates capture quality from the face area relative to
// the frame area. The empirical good range [0.02, 0.32] is rescaled
// linearly to [0, 1] and clamped.
func QualityScore(bbox []float64, frameWidth, frameHeight int) float64 {
	if frameWidth <= 0 || frameHeight <= 0 {
		return 0
	}
	ratio := bboxArea(bbox) / (float64(frameWidth) * float64(frameHeight))
	quality := (ratio - 0.02) / 0.3
	if quality < 0 {
		return 0
	}
	if quality > 1 {
		return 1
	}
	return quality
}

func bboxArea(bbox []float64) float64 {
	if len(bbox) != 4 {
		return 0
	}
	w := bbox[2] - bbox[0]
	h := bbox[3] - bbox[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// detectMIMEType detects the MIME type from image data.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	return "application/octet-stream"
}
