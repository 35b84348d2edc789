package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/pipeline"
)

const pathGraph = "1 2\n2 3\n3 4\n4 5\n5 6\n"

func newTestService(t *testing.T, mutate func(*Config)) *Service {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	cfg := Config{DataDir: t.TempDir(), Options: pipeline.DefaultOptions()}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewService(cfg, pipeline.NewRunner(nil, nil, logger), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func submit(t *testing.T, srv *httptest.Server, content string) (*http.Response, Job) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"content": content})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/v1/jobs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var job Job
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	}
	return resp, job
}

func waitDone(t *testing.T, srv *httptest.Server, id string) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/v1/jobs/" + id)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
			return false
		}
		return job.Status.Done()
	}, 10*time.Second, 10*time.Millisecond)
	return job
}

func TestSubmitAndDownload(t *testing.T) {
	s := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, job := submit(t, srv, pathGraph)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, StatusCreated, job.Status)
	assert.NotEmpty(t, job.ID)

	done := waitDone(t, srv, job.ID)
	require.Equal(t, StatusCompleted, done.Status, done.Err)
	require.NotNil(t, done.Stats)
	assert.Equal(t, 6, done.Stats.Vertices)
	assert.Equal(t, 5, done.Stats.Drawn)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.FinishedAt)

	img, err := http.Get(srv.URL + "/v1/jobs/" + job.ID + "/image")
	require.NoError(t, err)
	defer img.Body.Close()
	assert.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get("Content-Type"))
	decoded, err := png.Decode(img.Body)
	require.NoError(t, err)
	assert.Equal(t, done.Stats.Width, decoded.Bounds().Dx())

	emb, err := http.Get(srv.URL + "/v1/jobs/" + job.ID + "/embedding")
	require.NoError(t, err)
	defer emb.Body.Close()
	raw, err := io.ReadAll(emb.Body)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(raw), "\n"))

	for _, name := range []string{pipeline.GraphFile, pipeline.EmbeddingFile, pipeline.ImageFile} {
		assert.FileExists(t, filepath.Join(s.JobDir(job.ID), name))
	}
}

func TestFailedJobWritesErrorFile(t *testing.T) {
	s := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	_, job := submit(t, srv, "1 2 3\n")
	done := waitDone(t, srv, job.ID)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Equal(t, "PARSE_ERROR", done.Code)
	assert.Contains(t, done.Err, "line 1")

	raw, err := os.ReadFile(filepath.Join(s.JobDir(job.ID), ErrFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "line 1")

	resp, err := http.Get(srv.URL + "/v1/jobs/" + job.ID + "/image")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStatusCodes(t *testing.T) {
	s := newTestService(t, nil)
	s.Store().Put(Job{ID: "pending-job", Status: StatusCreated, CreatedAt: time.Now()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"list", http.MethodGet, "/v1/jobs", "", http.StatusOK},
		{"unknown job", http.MethodGet, "/v1/jobs/nope", "", http.StatusNotFound},
		{"invalid id", http.MethodGet, "/v1/jobs/a.b", "", http.StatusBadRequest},
		{"image not done", http.MethodGet, "/v1/jobs/pending-job/image", "", http.StatusConflict},
		{"embedding unknown", http.MethodGet, "/v1/jobs/nope/embedding", "", http.StatusNotFound},
		{"empty content", http.MethodPost, "/v1/jobs", `{"content":""}`, http.StatusBadRequest},
		{"missing content", http.MethodPost, "/v1/jobs", `{}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/v1/jobs", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want >= 400 {
				var e errorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
				assert.NotEmpty(t, e.Error)
			}
		})
	}
}

func TestQueueFull(t *testing.T) {
	s := newTestService(t, func(c *Config) { c.MaxQueued = 1 })
	// Hold the only slot so the first job stays pending.
	require.NoError(t, s.slots.Acquire(context.Background(), 1))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, first := submit(t, srv, pathGraph)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = submit(t, srv, pathGraph)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	s.slots.Release(1)
	assert.Equal(t, StatusCompleted, waitDone(t, srv, first.ID).Status)
}

func TestShutdownRefusesJobs(t *testing.T) {
	s := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	_, job := submit(t, srv, pathGraph)
	require.NoError(t, s.Shutdown(context.Background()))

	got, ok := s.Store().Get(job.ID)
	require.True(t, ok)
	assert.True(t, got.Status.Done(), "shutdown waits for queued jobs")

	resp, _ := submit(t, srv, pathGraph)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, health.StatusCode)
}

func TestShutdownWaitsForConcurrentSubmits(t *testing.T) {
	s := newTestService(t, func(c *Config) { c.MaxJobs = 4 })

	var (
		mu       sync.Mutex
		accepted []string
		wg       sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				job, err := s.Submit(context.Background(), pathGraph)
				if err != nil {
					assert.True(t, errors.Is(err, errors.ErrCodeUnavailable), "unexpected error %v", err)
					return
				}
				mu.Lock()
				accepted = append(accepted, job.ID)
				mu.Unlock()
			}
		}()
	}

	require.NoError(t, s.Shutdown(context.Background()))
	wg.Wait()

	for _, id := range accepted {
		got, ok := s.Store().Get(id)
		require.True(t, ok)
		assert.Equal(t, StatusCompleted, got.Status, "job %s accepted before shutdown must finish", id)
	}
}

func TestShutdownTimeoutCancelsWaitingJobs(t *testing.T) {
	s := newTestService(t, nil)
	require.NoError(t, s.slots.Acquire(context.Background(), 1))

	job, err := s.Submit(context.Background(), pathGraph)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)

	got, _ := s.Store().Get(job.ID)
	assert.Equal(t, StatusFailed, got.Status)
	s.slots.Release(1)
}

func TestStore(t *testing.T) {
	st := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st.Put(Job{ID: "a", Status: StatusCreated, CreatedAt: base})
	st.Put(Job{ID: "b", Status: StatusCompleted, CreatedAt: base.Add(time.Minute)})

	list := st.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)

	got, _ := st.Get("a")
	got.Status = StatusFailed
	again, _ := st.Get("a")
	assert.Equal(t, StatusCreated, again.Status, "Get returns a copy")

	assert.True(t, st.Update("a", func(j *Job) { j.Status = StatusProcessing }))
	assert.False(t, st.Update("missing", func(*Job) {}))
	assert.Equal(t, map[Status]int{StatusProcessing: 1, StatusCompleted: 1}, st.Count())
}

func TestNewServiceRequiresDataDir(t *testing.T) {
	_, err := NewService(Config{Options: pipeline.DefaultOptions()}, nil, nil)
	assert.Error(t, err)
}
