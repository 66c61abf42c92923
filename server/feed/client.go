package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mattermost/mattermost/server/public/pluginapi"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

const (
	// snapshotLimit is the number of most-recent incidents requested per poll
	snapshotLimit = 100

	// requestTimeout bounds every feed HTTP call
	requestTimeout = 30 * time.Second
)

// Client fetches incident snapshots from the remote crisis feed API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     pluginapi.LogService
}

// NewClient creates a new feed API client.
func NewClient(baseURL, apiKey string, logger pluginapi.LogService) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// FetchSnapshot requests the most recent incidents ordered by event time
// descending. The response is a complete replacement snapshot.
func (c *Client) FetchSnapshot() (*SnapshotResponse, error) {
	snapshotURL := fmt.Sprintf("%s/v1/incidents?limit=%d&order=desc", c.baseURL, snapshotLimit)

	req, err := http.NewRequest(http.MethodGet, snapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success - parse response below
	case http.StatusUnauthorized:
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			return nil, fmt.Errorf("authentication error (HTTP 401): %s", apiErr.Error())
		}
		return nil, fmt.Errorf("authentication error (HTTP 401): API key invalid or expired")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limit exceeded (HTTP 429): too many requests")
	case http.StatusInternalServerError:
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			return nil, fmt.Errorf("server error (HTTP 500): %s", apiErr.Error())
		}
		return nil, fmt.Errorf("server error (HTTP 500): feed internal error")
	case http.StatusBadRequest:
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			return nil, fmt.Errorf("bad request (HTTP 400): %s", apiErr.Error())
		}
		return nil, fmt.Errorf("bad request (HTTP 400): invalid request parameters")
	default:
		return nil, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	var snapshot SnapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot response: %w", err)
	}

	c.logger.Debug("Fetched incident snapshot", "incidentCount", len(snapshot.Incidents))

	return &snapshot, nil
}

// SeedIfEmpty writes the seed set to the remote feed, but only after
// confirming the remote collection is actually empty. The extra read keeps
// concurrent clients from double-seeding.
func (c *Client) SeedIfEmpty(seed []incident.Incident) error {
	snapshot, err := c.FetchSnapshot()
	if err != nil {
		return fmt.Errorf("failed to confirm feed is empty: %w", err)
	}
	if len(snapshot.Incidents) > 0 {
		return nil
	}

	body, err := json.Marshal(map[string]any{"incidents": seed})
	if err != nil {
		return fmt.Errorf("failed to marshal seed incidents: %w", err)
	}

	seedURL := fmt.Sprintf("%s/v1/incidents", c.baseURL)
	req, err := http.NewRequest(http.MethodPost, seedURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create seed request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("seed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("seed request returned HTTP status %d", resp.StatusCode)
	}

	c.logger.Info("Seeded empty feed with fallback incidents", "count", len(seed))

	return nil
}
