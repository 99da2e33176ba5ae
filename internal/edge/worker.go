// Package edge holds the typed clients for the worker facade that fronts the
// TLS-terminating edge platform and its KV routing table. The facade speaks a
// uniform contract: bearer-token auth, JSON bodies, non-2xx as the only
// failure signal.
package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// UpstreamError is a non-2xx answer from the worker facade. Message carries
// the facade's reported reason when one was present in the body.
type UpstreamError struct {
	Op      string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("edge %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("edge %s: status %d", e.Op, e.Status)
}

type workerClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func (c *workerClient) do(ctx context.Context, op, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("edge %s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("edge %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("edge %s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, payload, &UpstreamError{Op: op, Status: resp.StatusCode, Message: failureMessage(payload)}
	}
	return resp.StatusCode, payload, nil
}

// failureMessage extracts the facade's reason from an error body. The facade
// answers either `{"message": "..."}` or plain text.
func failureMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 256 {
		text = text[:256]
	}
	return text
}
