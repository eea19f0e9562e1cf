package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxErrorBody = 4 << 10

// ErrNotFound is returned when the server responds with 404.
var ErrNotFound = errors.New("URL not found")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code   int
	Status string
	URL    string
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unexpected status %d from %s: %s", e.Code, e.URL, e.Reason)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Unwrap maps 404 to ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// apiError is the error body returned by the Open-Meteo APIs.
type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// GetJSON retrieves the content at url and decodes it into target.
func GetJSON[T any](ctx context.Context, c *Client, url string, target *T) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		se := &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: RedactURL(req.URL)}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Reason != "" {
			se.Reason = ae.Reason
		}
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding content: %w", err)
	}
	return nil
}
