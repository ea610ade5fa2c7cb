package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrDisabled is returned by Recognize when the client runs in skip mode.
var ErrDisabled = errors.New("face service disabled")

// RemoteStudent is the student record as the recognition service knows it.
type RemoteStudent struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Program   string `json:"program"`
	Year      string `json:"year"`
	Status    string `json:"status"`
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
}

// RecognizeResult is the service's answer for one image. Matched is false
// when the service saw the image but found nobody.
type RecognizeResult struct {
	Matched    bool
	Student    *RemoteStudent
	Confidence float64
	Message    string
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with configurable timeout.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Recognize posts a base64 image (data URL or bare) to /api/recognize.
func (c *Client) Recognize(ctx context.Context, image string) (*RecognizeResult, error) {
	if c.Skip {
		return nil, ErrDisabled
	}
	if image == "" {
		return nil, fmt.Errorf("image required")
	}

	body, _ := json.Marshal(map[string]string{"image": image})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/recognize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Success    bool           `json:"success"`
		Student    *RemoteStudent `json:"student"`
		Confidence float64        `json:"confidence"`
		Message    string         `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Success && out.Student == nil {
		return nil, fmt.Errorf("face service reported a match without a student")
	}

	return &RecognizeResult{
		Matched:    out.Success,
		Student:    out.Student,
		Confidence: out.Confidence,
		Message:    out.Message,
	}, nil
}

// Health checks that the face service answers. The service exposes only
// POST /api/recognize, so a GET there is expected to be refused; any reply
// below 500 means the service is up.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/recognize", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}

	return nil
}
