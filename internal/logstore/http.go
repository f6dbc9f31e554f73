package logstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// HTTPStore fetches logs from a remote log host. The host is expected to
// serve GET /tournaments/{id}/logs (a JSON array of filenames) and
// GET/PUT /tournaments/{id}/logs/{filename} for individual files.
type HTTPStore struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPStore returns a client for the log host at baseURL, authenticated
// with the given API key when non-empty.
func NewHTTPStore(baseURL, apiKey string) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// List returns the filenames the host reports for a tournament.
func (s *HTTPStore) List(ctx context.Context, tournamentID int64) ([]string, error) {
	path := fmt.Sprintf("/tournaments/%d/logs", tournamentID)
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return nil, err
	}
	return names, nil
}

// Fetch downloads one log from the host.
func (s *HTTPStore) Fetch(ctx context.Context, tournamentID int64, filename string) ([]byte, error) {
	path := fmt.Sprintf("/tournaments/%d/logs/%s", tournamentID, filename)
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, &NotFoundError{TournamentID: tournamentID, Filename: filename}
	default:
		return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
}

// Put uploads a log to the host.
func (s *HTTPStore) Put(ctx context.Context, tournamentID int64, filename string, data []byte) error {
	path := fmt.Sprintf("/tournaments/%d/logs/%s", tournamentID, filename)
	resp, err := s.do(ctx, http.MethodPut, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("PUT %s: HTTP %d", path, resp.StatusCode)
	}
	return nil
}
