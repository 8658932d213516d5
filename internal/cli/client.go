package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/detbench/internal/adapters/repository"
	"github.com/okian/detbench/internal/domain/model"
)

// jobRequest mirrors the evaluator's POST /jobs body.
type jobRequest struct {
	Path           string            `json:"path"`
	SequenceLength int               `json:"sequence_length,omitempty"`
	Pattern        model.PatternSpec `json:"pattern,omitempty"`
	StartOffset    int               `json:"start_offset,omitempty"`
	MaxOffset      int               `json:"max_offset,omitempty"`
	Tolerance      *int              `json:"tolerance,omitempty"`
}

type jobAccepted struct {
	ID string `json:"id"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusError is a non-success answer from the evaluator.
type StatusError struct {
	Status int
	Code   string
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s: %s", e.Status, e.Code, e.Msg)
}

// apiClient talks to a running evaluator.
type apiClient struct {
	baseURL string
	client  *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// do sends body as JSON (when non-nil) and decodes a 2xx answer into out.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		_ = json.Unmarshal(data, &ae)
		return &StatusError{Status: resp.StatusCode, Code: ae.Code, Msg: ae.Message}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *apiClient) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *apiClient) submit(ctx context.Context, req jobRequest) (string, error) {
	var ack jobAccepted
	if err := c.do(ctx, http.MethodPost, "/jobs", req, &ack); err != nil {
		return "", err
	}
	return ack.ID, nil
}

func (c *apiClient) job(ctx context.Context, id string) (repository.Record, error) {
	var rec repository.Record
	err := c.do(ctx, http.MethodGet, "/jobs/"+id, nil, &rec)
	return rec, err
}

func (c *apiClient) jobs(ctx context.Context, limit int) ([]repository.Record, error) {
	var recs []repository.Record
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/jobs?limit=%d", limit), nil, &recs)
	return recs, err
}
