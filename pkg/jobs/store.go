package jobs

import (
	"sort"
	"sync"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

// Job statuses. A job moves created → processing → completed|failed.
const (
	StatusCreated    Status = "created"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Done reports whether the status is terminal.
func (s Status) Done() bool { return s == StatusCompleted || s == StatusFailed }

// Job is the externally visible state of one rendering request.
type Job struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	Err        string     `json:"err,omitempty"`
	Code       string     `json:"code,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Stats      *JobStats  `json:"stats,omitempty"`
}

// JobStats summarizes a completed run.
type JobStats struct {
	Vertices    int       `json:"vertices"`
	Edges       int       `json:"edges"`
	Components  int       `json:"components"`
	Eigenvalues []float64 `json:"eigenvalues"`
	Drawn       int       `json:"drawn"`
	Skipped     int       `json:"skipped"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Warnings    []string  `json:"warnings,omitempty"`
	CacheHit    bool      `json:"cache_hit"`
}

// Store keeps job state in memory. It is safe for concurrent use and hands
// out copies so callers never share state with the store.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Put inserts or replaces a job.
func (s *Store) Put(j Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = &j
}

// Get returns a copy of the job with id.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Update applies fn to the stored job under the write lock.
// It reports whether the job exists.
func (s *Store) Update(id string, fn func(*Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	fn(j)
	return true
}

// List returns copies of all jobs, newest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

// Count returns the number of jobs in each status.
func (s *Store) Count() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Status]int)
	for _, j := range s.jobs {
		counts[j.Status]++
	}
	return counts
}
