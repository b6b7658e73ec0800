// Package sourceclient holds the HTTP clients for the collaborator
// services the payroll engine aggregates from: employee, attendance,
// vacation, benefits and performance. Each client implements the matching
// source interface consumed by the payroll aggregator.
package sourceclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrNotFound marks a 404 from a collaborator. Some sources treat it as a
// normal absence (no vacation this month) rather than a failure.
type notFoundError struct {
	endpoint string
}

func (e *notFoundError) Error() string {
	return "resource not found: " + e.endpoint
}

type serviceClient struct {
	baseURL string
	http    *http.Client
}

func newServiceClient(envVar, defaultURL string, timeout time.Duration) *serviceClient {
	baseURL := strings.TrimSpace(os.Getenv(envVar))
	if baseURL == "" {
		baseURL = defaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &serviceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *serviceClient) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return &notFoundError{endpoint: endpoint}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("source api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.Unmarshal(body, out)
}

func isNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}
