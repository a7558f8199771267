// Package cli implements the client-side modes: submitting an index to a
// running server and reading its views back, with terminal feedback while
// waiting for asynchronous results.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/fibserve/internal/errors"
)

// Client is a thin HTTP client for the fibserve API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the server at baseURL.
//
// Parameters:
//   - baseURL: The server base URL, e.g. "http://localhost:8080".
//
// Returns:
//   - *Client: The configured client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Submit posts an index to the server.
//
// Parameters:
//   - ctx: The request context.
//   - index: The Fibonacci index to request.
//
// Returns:
//   - error: nil when the server acknowledged with 202.
func (c *Client) Submit(ctx context.Context, index int64) error {
	body, err := json.Marshal(map[string]int64{"index": index})
	if err != nil {
		return apperrors.WrapError(err, "encoding submission")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/values", bytes.NewReader(body))
	if err != nil {
		return apperrors.WrapError(err, "building submission request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapError(err, "submitting index %d", index)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("server rejected submission of %d: %s", index, readErrorBody(resp.Body, resp.StatusCode))
	}
	return nil
}

// Current fetches the result view: stringified index to decimal value, nil
// while pending.
//
// Returns:
//   - map[string]*string: The current cache view.
//   - error: A transport or decoding error.
func (c *Client) Current(ctx context.Context) (map[string]*string, error) {
	var view map[string]*string
	if err := c.getJSON(ctx, "/values/current", &view); err != nil {
		return nil, err
	}
	return view, nil
}

// History fetches every requested index in submission order.
//
// Returns:
//   - []uint64: The requested indices, duplicates included.
//   - error: A transport or decoding error.
func (c *Client) History(ctx context.Context) ([]uint64, error) {
	var records []struct {
		Number uint64 `json:"number"`
	}
	if err := c.getJSON(ctx, "/values/all", &records); err != nil {
		return nil, err
	}
	indices := make([]uint64, len(records))
	for i, r := range records {
		indices[i] = r.Number
	}
	return indices, nil
}

// Value fetches the state of a single index from the current view.
//
// Returns:
//   - string: The decimal value, empty while pending or unknown.
//   - bool: Whether the value is computed.
//   - error: A transport or decoding error.
func (c *Client) Value(ctx context.Context, index int64) (string, bool, error) {
	view, err := c.Current(ctx)
	if err != nil {
		return "", false, err
	}
	value, ok := view[strconv.FormatInt(index, 10)]
	if !ok || value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// getJSON fetches path and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return apperrors.WrapError(err, "building request for %s", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapError(err, "fetching %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: %s", path, readErrorBody(resp.Body, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapError(err, "decoding %s response", path)
	}
	return nil
}

// readErrorBody extracts the error message from a JSON error response,
// falling back to the status code.
func readErrorBody(r io.Reader, statusCode int) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err == nil && body.Error != "" {
		return fmt.Sprintf("%s (HTTP %d)", body.Error, statusCode)
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
