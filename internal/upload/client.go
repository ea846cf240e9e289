package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// IngestResult mirrors the server's ingest response without importing
// the server-side packages (which would pull in pgx and friends).
type IngestResult struct {
	SessionsParsed   int     `json:"sessions_parsed"`
	SessionsImported int     `json:"sessions_imported"`
	SessionsSkipped  int     `json:"sessions_skipped"`
	SetsImported     int     `json:"sets_imported"`
	PRsDetected      int     `json:"prs_detected"`
	XPEarned         float64 `json:"xp_earned"`
}

// Client sends Alpha Progression CSV exports to the RepForge server
// over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the RepForge server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SendCSV POSTs a raw CSV export to the server's ingest endpoint.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) SendCSV(csv []byte) (*IngestResult, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost,
			c.serverURL+"/api/v1/ingest/alpha", bytes.NewReader(csv))
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", "text/csv")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var result IngestResult
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding ingest response: %w", err)
			}
			return &result, nil
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
