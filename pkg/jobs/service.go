// Package jobs runs layout jobs submitted over HTTP.
//
// A client posts an edge list, receives a job id and polls the job until it
// completes, then downloads the PNG. Every job gets its own directory below
// the service's data directory holding the same files the CLI writes into a
// working directory, plus error.txt when the run failed.
//
// At most MaxJobs pipelines run at once; further jobs wait in the created
// state. Once [Service.Shutdown] starts, new submissions are refused and
// running jobs get a grace period to finish.
package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/observability"
	"github.com/matzehuels/specgraph/pkg/pipeline"
)

// Defaults for Config.
const (
	DefaultMaxJobs   = 1
	DefaultMaxQueued = 64
	// DefaultMaxBody bounds an uploaded edge list.
	DefaultMaxBody = 64 << 20
)

// ErrFile holds the failure message of a failed job.
const ErrFile = "error.txt"

// ErrQueueFull is returned by Submit when too many jobs are pending.
var ErrQueueFull = stderrors.New("too many pending jobs")

// Config configures a Service.
type Config struct {
	// DataDir receives one subdirectory per job.
	DataDir string
	// MaxJobs bounds concurrently running pipelines.
	MaxJobs int
	// MaxQueued bounds jobs that are created but not finished.
	MaxQueued int
	// MaxBody bounds the request body in bytes.
	MaxBody int64
	// Options applies to every job.
	Options pipeline.Options
}

func (c *Config) setDefaults() {
	if c.MaxJobs <= 0 {
		c.MaxJobs = DefaultMaxJobs
	}
	if c.MaxQueued <= 0 {
		c.MaxQueued = DefaultMaxQueued
	}
	if c.MaxBody <= 0 {
		c.MaxBody = DefaultMaxBody
	}
}

// Service owns the job store and the running pipelines.
type Service struct {
	cfg    Config
	runner *pipeline.Runner
	store  *Store
	logger *log.Logger

	slots   *semaphore.Weighted
	pending atomic.Int64

	// mu orders wg.Add in Submit before the wg.Wait in Shutdown.
	mu     sync.Mutex
	closed atomic.Bool
	wg     sync.WaitGroup

	// ctx is canceled when shutdown gives up waiting.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a service. The data directory is created if missing.
func NewService(cfg Config, runner *pipeline.Runner, logger *log.Logger) (*Service, error) {
	cfg.setDefaults()
	if cfg.DataDir == "" {
		return nil, errors.New(errors.ErrCodeConfig, "data directory is required")
	}
	if err := cfg.Options.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create data directory %s", cfg.DataDir)
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:    cfg,
		runner: runner,
		store:  NewStore(),
		logger: logger,
		slots:  semaphore.NewWeighted(int64(cfg.MaxJobs)),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Store exposes the job store.
func (s *Service) Store() *Store { return s.store }

// JobDir returns the directory holding a job's files.
func (s *Service) JobDir(id string) string { return filepath.Join(s.cfg.DataDir, id) }

// Closed reports whether shutdown has started.
func (s *Service) Closed() bool { return s.closed.Load() }

// Submit stores content as a new job's edge list and schedules the run.
func (s *Service) Submit(ctx context.Context, content string) (Job, error) {
	if !s.reserve() {
		return Job{}, errors.New(errors.ErrCodeUnavailable, "service is shutting down")
	}
	if s.pending.Add(1) > int64(s.cfg.MaxQueued) {
		s.release()
		return Job{}, ErrQueueFull
	}

	job := Job{ID: uuid.NewString(), Status: StatusCreated, CreatedAt: time.Now().UTC()}
	dir := s.JobDir(job.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.release()
		return Job{}, errors.Wrap(errors.ErrCodeInternal, err, "create job directory")
	}
	if err := os.WriteFile(filepath.Join(dir, pipeline.GraphFile), []byte(content), 0644); err != nil {
		s.release()
		return Job{}, errors.Wrap(errors.ErrCodeInternal, err, "write edge list")
	}

	s.store.Put(job)
	observability.Jobs().OnJobQueued(ctx, job.ID)
	s.logger.Info("job queued", "id", job.ID, "bytes", len(content))

	go s.run(job.ID)
	return job, nil
}

// reserve counts a job towards Shutdown's wait unless shutdown has started.
func (s *Service) reserve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.wg.Add(1)
	return true
}

// release undoes reserve and the pending count for a job that never ran.
func (s *Service) release() {
	s.pending.Add(-1)
	s.wg.Done()
}

func (s *Service) run(id string) {
	defer s.wg.Done()
	defer s.pending.Add(-1)

	if err := s.slots.Acquire(s.ctx, 1); err != nil {
		s.finish(id, time.Now(), nil, err)
		return
	}
	defer s.slots.Release(1)

	start := time.Now()
	s.store.Update(id, func(j *Job) {
		t := start.UTC()
		j.Status = StatusProcessing
		j.StartedAt = &t
	})
	s.logger.Info("job started", "id", id)

	res, err := s.execute(s.ctx, id)
	s.finish(id, start, res, err)
}

func (s *Service) execute(ctx context.Context, id string) (*pipeline.Result, error) {
	dir := s.JobDir(id)
	g, err := s.runner.ParseFile(ctx, filepath.Join(dir, pipeline.GraphFile))
	if err != nil {
		return nil, err
	}
	opts := s.cfg.Options
	opts.Logger = s.logger.With("job", id)
	res, err := s.runner.Execute(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	if err := pipeline.WriteOutputs(dir, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) finish(id string, start time.Time, res *pipeline.Result, err error) {
	end := time.Now()
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		msg := errors.UserMessage(err)
		if werr := os.WriteFile(filepath.Join(s.JobDir(id), ErrFile), []byte(msg+"\n"), 0644); werr != nil {
			s.logger.Error("write error file", "id", id, "err", werr)
		}
		s.logger.Warn("job failed", "id", id, "err", msg)
	} else {
		s.logger.Info("job completed", "id", id, "duration", end.Sub(start))
	}

	s.store.Update(id, func(j *Job) {
		t := end.UTC()
		j.Status = status
		j.FinishedAt = &t
		if err != nil {
			j.Err = errors.UserMessage(err)
			j.Code = string(errors.GetCode(err))
		}
		if res != nil {
			j.Stats = &JobStats{
				Vertices:    res.Stats.Graph.Vertices,
				Edges:       res.Stats.Graph.Edges,
				Components:  res.Stats.Graph.Components,
				Eigenvalues: res.Stats.Eigenvalues,
				Drawn:       res.Stats.Drawn,
				Skipped:     res.Stats.Skipped,
				Width:       res.Stats.Width,
				Height:      res.Stats.Height,
				Warnings:    res.Warnings,
				CacheHit:    res.CacheInfo.EmbeddingHit,
			}
		}
	})
	observability.Jobs().OnJobFinished(context.Background(), id, string(status), end.Sub(start))
}

// Image returns the PNG of a completed job.
func (s *Service) Image(id string) ([]byte, error) {
	return s.artifact(id, pipeline.ImageFile)
}

// Embedding returns the coordinate file of a completed job.
func (s *Service) Embedding(id string) ([]byte, error) {
	return s.artifact(id, pipeline.EmbeddingFile)
}

// ErrNotDone is returned when an artifact is requested before the job
// completed.
var ErrNotDone = stderrors.New("job not completed")

func (s *Service) artifact(id, name string) ([]byte, error) {
	if err := errors.ValidateJobID(id); err != nil {
		return nil, err
	}
	job, ok := s.store.Get(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "job %s not found", id)
	}
	if job.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: status %s", ErrNotDone, job.Status)
	}
	data, err := os.ReadFile(filepath.Join(s.JobDir(id), name))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", name)
	}
	return data, nil
}

// Shutdown refuses new jobs and waits for pending ones until ctx is done.
// Jobs still running after that are canceled.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("all jobs finished")
		s.cancel()
		return nil
	case <-ctx.Done():
		s.logger.Warn("timed out waiting for jobs; canceling", "pending", s.pending.Load())
		s.cancel()
		<-done
		return ctx.Err()
	}
}
