// Package maestro is a client for AI21 Maestro agent runs. A run is
// submitted once and then polled until it reaches a terminal status.
package maestro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"prooftree/internal/domain"
	"prooftree/internal/metrics"
	"prooftree/internal/telemetry"
)

const runsPath = "/studio/v1/maestro/runs"

// Run statuses reported by the API.
const (
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusInProgress = "in_progress"
	StatusQueued     = "queued"
)

// Tool names a run may use.
const ToolFileSearch = "file_search"

var errRunPending = errors.New("run still in progress")

// Tool enables a built-in tool for a run.
type Tool struct {
	Type string `json:"type"`
}

// RunRequest is the body of a run submission.
type RunRequest struct {
	Input string `json:"input"`
	Tools []Tool `json:"tools,omitempty"`
}

// Run is the API view of an agent run.
type Run struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Terminal reports whether the run will not change status again.
func (r *Run) Terminal() bool {
	switch r.Status {
	case StatusInProgress, StatusQueued, "":
		return false
	}
	return true
}

// Text returns the run result as text. String results are unquoted;
// anything else is returned as raw JSON.
func (r *Run) Text() string {
	if len(r.Result) == 0 || string(r.Result) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Result, &s); err == nil {
		return s
	}
	return string(r.Result)
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("maestro API returned %d: %s", e.Code, e.Body)
}

// retryable reports whether polling should continue after this error.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client submits and polls agent runs.
type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	pollTimeout     time.Duration
	pollInterval    time.Duration
	maxPollInterval time.Duration
	logger          *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPollTimeout bounds how long a run is polled before giving up.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Client) { c.pollTimeout = d }
}

// WithPollInterval sets the first and the maximum interval between polls.
func WithPollInterval(initial, max time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = initial
		c.maxPollInterval = max
	}
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		apiKey:          apiKey,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		pollTimeout:     10 * time.Minute,
		pollInterval:    time.Second,
		maxPollInterval: 15 * time.Second,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run submits input with the named tools, waits for the run to finish and
// returns its result text. It implements services.AgentRunner.
func (c *Client) Run(ctx context.Context, input string, tools []string) (string, error) {
	req := RunRequest{Input: input}
	for _, t := range tools {
		req.Tools = append(req.Tools, Tool{Type: t})
	}

	run, err := c.CreateAndPoll(ctx, &req)
	if err != nil {
		return "", err
	}
	return run.Text(), nil
}

// CreateAndPoll submits a run and polls it until a terminal status.
// A terminal status other than completed is returned as an error.
func (c *Client) CreateAndPoll(ctx context.Context, req *RunRequest) (*Run, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: AI21_API_KEY environment variable not set", domain.ErrConfiguration)
	}

	ctx, span := telemetry.Tracer("maestro").Start(ctx, "maestro.run")
	defer span.End()

	start := time.Now()
	run, err := c.createAndPoll(ctx, req)
	elapsed := time.Since(start)

	status := "error"
	if run != nil {
		status = run.Status
		span.SetAttributes(
			attribute.String("maestro.run_id", run.ID),
			attribute.String("maestro.status", run.Status),
		)
	}
	metrics.AgentRunDuration.WithLabelValues(status).Observe(elapsed.Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("agent run failed",
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	c.logger.Debug("agent run completed",
		"run_id", run.ID,
		"duration_ms", elapsed.Milliseconds(),
	)
	return run, nil
}

func (c *Client) createAndPoll(ctx context.Context, req *RunRequest) (*Run, error) {
	run, err := c.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if !run.Terminal() {
		run, err = c.poll(ctx, run.ID)
		if err != nil {
			return run, err
		}
	}

	if run.Status != StatusCompleted {
		return run, fmt.Errorf("maestro run %s ended with status %q", run.ID, run.Status)
	}
	return run, nil
}

// poll waits for a run to reach a terminal status with exponential backoff
// between status requests.
func (c *Client) poll(ctx context.Context, id string) (*Run, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.pollInterval
	bo.MaxInterval = c.maxPollInterval
	bo.MaxElapsedTime = c.pollTimeout

	var last *Run
	err := backoff.Retry(func() error {
		metrics.AgentRunPolls.Inc()

		run, err := c.Get(ctx, id)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && !se.retryable() {
				return backoff.Permanent(err)
			}
			return err
		}

		last = run
		if !run.Terminal() {
			return errRunPending
		}
		return nil
	}, backoff.WithContext(bo, ctx))

	if errors.Is(err, errRunPending) {
		return last, fmt.Errorf("maestro run %s did not finish within %s", id, c.pollTimeout)
	}
	return last, err
}

// Create submits a run without waiting for it.
func (c *Client) Create(ctx context.Context, req *RunRequest) (*Run, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal run request: %w", err)
	}

	var run Run
	if err := c.do(ctx, http.MethodPost, runsPath, bytes.NewReader(body), &run); err != nil {
		return nil, fmt.Errorf("create maestro run: %w", err)
	}
	return &run, nil
}

// Get fetches the current state of a run.
func (c *Client) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	if err := c.do(ctx, http.MethodGet, runsPath+"/"+id, nil, &run); err != nil {
		return nil, fmt.Errorf("get maestro run %s: %w", id, err)
	}
	return &run, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
