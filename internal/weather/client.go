// Package weather looks up current conditions from a wttr.in-style
// plain-text weather service.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// condTempFormat asks the service for a compact "<condition> <temperature>"
// line instead of the full forecast page.
const condTempFormat = "%C+%t"

// DefaultBaseURL is the public weather text service queried by default.
const DefaultBaseURL = "https://wttr.in"

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Sanitize collapses every run of non-alphanumeric characters in a location
// string to a single space and trims the result. "New York!!" becomes
// "New York"; "  São_Paulo  " becomes "S o Paulo".
func Sanitize(location string) string {
	return strings.TrimSpace(nonAlphanumeric.ReplaceAllString(location, " "))
}

// StatusError reports that the weather service answered with a non-200
// status. Transport-level failures (DNS, refused connection, timeout) are
// returned as wrapped errors instead, so callers can tell the two apart.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather service returned status %d", e.StatusCode)
}

// Client fetches current weather conditions as opaque text.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a weather client. The timeout bounds each lookup;
// there is deliberately no retry policy, failures propagate to the caller.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Current returns the service's one-line condition+temperature text for the
// given (already sanitized) location. The response body is returned verbatim
// with no further parsing or validation.
func (c *Client) Current(ctx context.Context, location string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s?format=%s", c.baseURL, url.PathEscape(location), condTempFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read weather response: %w", err)
	}

	return strings.TrimSpace(string(body)), nil
}
