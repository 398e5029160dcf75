// ABOUTME: Conversion job records and their storage
// ABOUTME: Defines the Store interface and the in-memory implementation
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrNotFound is returned when no job has the requested ID
var ErrNotFound = errors.New("job not found")

// Job is the record kept for every conversion
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	VideoID     string    `json:"video_id,omitempty"`
	Status      Status    `json:"status"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	Size        int       `json:"size,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Done reports whether the job reached a final state
func (j *Job) Done() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Store persists job records
type Store interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Close() error
}

// New returns a Redis-backed store when addr is reachable and an in-memory
// store otherwise
func New(ctx context.Context, addr string, ttl time.Duration) Store {
	if addr == "" {
		return NewMemoryStore(ttl)
	}

	rs, err := DialRedis(ctx, addr, ttl)
	if err != nil {
		log.Printf("Redis not available, using in-memory storage: %v", err)
		return NewMemoryStore(ttl)
	}

	log.Printf("Redis connected at %s", addr)
	return rs
}

// MemoryStore keeps jobs in a map. Jobs older than the TTL are dropped by Cleanup.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
}

// NewMemoryStore creates an empty store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

// Save stores a copy of job
func (s *MemoryStore) Save(ctx context.Context, job *Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job must have an ID")
	}

	copied := *job
	s.mu.Lock()
	s.jobs[job.ID] = &copied
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the job with the given ID
func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

// Cleanup removes jobs created before now minus the TTL and returns how many were removed
func (s *MemoryStore) Cleanup(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	cutoff := now.Add(-s.ttl)
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is done
func (s *MemoryStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Cleanup(now); n > 0 {
				log.Printf("Removed %d expired jobs", n)
			}
		}
	}
}

// Len returns the number of stored jobs
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
