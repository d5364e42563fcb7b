// Package geocode wraps a Nominatim-style reverse-geocoding HTTP API.
// The engine only ever sees the organize.Geocoder interface; authentication
// and rate limiting are the deployment's concern, not this client's.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sio-go/internal/organize"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// reverseResponse is the subset of the reverse-geocoding payload we use.
type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to a place name.
// "No place found" is reported as an error; callers degrade it to an
// unresolved location.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*organize.Location, error) {
	endpoint := fmt.Sprintf("%s/reverse?%s", c.baseURL, url.Values{
		"format": {"jsonv2"},
		"lat":    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', 6, 64)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reverse geocoding failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	city := response.Address.City
	if city == "" {
		city = response.Address.Town
	}
	if city == "" {
		city = response.Address.Village
	}
	if city == "" && response.Address.Country == "" {
		return nil, fmt.Errorf("no place found for %f,%f", lat, lon)
	}

	return &organize.Location{
		City:      city,
		Country:   response.Address.Country,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

var _ organize.Geocoder = (*Client)(nil)
