package maestro

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prooftree/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string) *Client {
	return NewClient(url, "test-key", testLogger(),
		WithPollInterval(time.Millisecond, 5*time.Millisecond),
		WithPollTimeout(2*time.Second),
	)
}

// fakeAPI serves one run that stays in progress for pendingPolls polls
// and then reports finalStatus.
type fakeAPI struct {
	t            *testing.T
	pendingPolls int32
	finalStatus  string
	result       any
	polls        atomic.Int32
	created      RunRequest
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "Bearer test-key", r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == runsPath:
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.created))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "run-1", "status": StatusInProgress})
	case r.Method == http.MethodGet && r.URL.Path == runsPath+"/run-1":
		n := f.polls.Add(1)
		if n <= f.pendingPolls {
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "run-1", "status": StatusInProgress})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "run-1", "status": f.finalStatus, "result": f.result})
	default:
		http.NotFound(w, r)
	}
}

func TestRunPollsUntilCompleted(t *testing.T) {
	api := &fakeAPI{t: t, pendingPolls: 2, finalStatus: StatusCompleted, result: "the proof holds"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	got, err := newTestClient(srv.URL).Run(context.Background(), "Prove this: x", []string{ToolFileSearch})
	require.NoError(t, err)

	assert.Equal(t, "the proof holds", got)
	assert.Equal(t, int32(3), api.polls.Load())
	assert.Equal(t, "Prove this: x", api.created.Input)
	assert.Equal(t, []Tool{{Type: ToolFileSearch}}, api.created.Tools)
}

func TestRunFailedStatusIsError(t *testing.T) {
	api := &fakeAPI{t: t, finalStatus: StatusFailed}
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, err := newTestClient(srv.URL).Run(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `status "failed"`)
}

func TestRunNonStringResult(t *testing.T) {
	api := &fakeAPI{t: t, finalStatus: StatusCompleted, result: map[string]any{"answer": 42}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	got, err := newTestClient(srv.URL).Run(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":42}`, got)
}

func TestRunMissingAPIKey(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", testLogger())

	_, err := c.Run(context.Background(), "x", nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRunCreateRejected(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			polls.Add(1)
		}
		http.Error(w, `{"detail":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Run(context.Background(), "x", nil)
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Zero(t, polls.Load())
}

func TestPollStopsOnClientError(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "run-1", "status": StatusQueued})
			return
		}
		polls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Run(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), polls.Load())
}

func TestPollTimeout(t *testing.T) {
	api := &fakeAPI{t: t, pendingPolls: 1 << 30, finalStatus: StatusCompleted}
	srv := httptest.NewServer(api)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", testLogger(),
		WithPollInterval(time.Millisecond, 2*time.Millisecond),
		WithPollTimeout(30*time.Millisecond),
	)

	_, err := c.Run(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not finish")
}

func TestPollHonoursContext(t *testing.T) {
	api := &fakeAPI{t: t, pendingPolls: 1 << 30, finalStatus: StatusCompleted}
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Run(ctx, "x", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusQueued, false},
		{StatusInProgress, false},
		{"", false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{"expired", true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, (&Run{Status: tt.status}).Terminal())
		})
	}
}
