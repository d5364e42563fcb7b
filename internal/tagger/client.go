// Package tagger wraps an image-tagging inference HTTP API. The model runs
// elsewhere; this client uploads image bytes and filters the returned labels
// by confidence.
package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"sio-go/internal/organize"
)

type Client struct {
	baseURL   string
	apiKey    string
	threshold float64
	client    *http.Client
}

// NewClient creates a tagging client. threshold is the minimum confidence
// a label needs to be kept; values outside (0,1] fall back to 0.5.
func NewClient(baseURL, apiKey string, threshold float64) *Client {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		threshold: threshold,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type tagResponse struct {
	Tags []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"tags"`
}

// TagImage uploads the image and returns labels above the confidence
// threshold, in the order the service ranked them.
func (c *Client) TagImage(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	endpoint := fmt.Sprintf("%s/v1/tags", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, f)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tagging failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var tags []string
	for _, tag := range response.Tags {
		if tag.Confidence >= c.threshold {
			tags = append(tags, tag.Label)
		}
	}
	return tags, nil
}

var _ organize.Tagger = (*Client)(nil)
