package chatclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Health is the document served by <base>/health.
type Health struct {
	Status            string `json:"status" yaml:"status"`
	DatabaseConnected bool   `json:"database_connected" yaml:"database_connected"`
	Timestamp         string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// Stats is the document served by <base>/stats.
type Stats struct {
	Status string         `json:"status" yaml:"status"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
	Stats  map[string]any `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// Health fetches <base>/health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	h := &Health{}
	if err := c.getJSON(ctx, "/health", h); err != nil {
		return nil, err
	}
	return h, nil
}

// Stats fails when the backend reports status "error", for example when it
// has no knowledge base loaded.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	if err := c.getJSON(ctx, "/stats", s); err != nil {
		if s.Error != "" {
			return nil, errors.Wrap(err, s.Error)
		}
		return nil, err
	}
	if s.Status == "error" {
		return nil, errors.Errorf("backend stats error: %s", s.Error)
	}
	return s, nil
}

func (c *Client) getJSON(ctx context.Context, path string, into any) error {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "build request for %s", endpoint)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	decodeErr := json.NewDecoder(resp.Body).Decode(into)
	if resp.StatusCode >= 400 {
		return errors.Errorf("GET %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	if decodeErr != nil {
		return errors.Wrapf(decodeErr, "decode %s", endpoint)
	}
	return nil
}
