// Package inmemory provides the in-memory job registry.
package inmemory

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/domain/repository"
)

// JobRegistry is a repository.JobRegistry backed by a map.
type JobRegistry struct {
	jobs map[uuid.UUID]*model.PrintJob
	mu   sync.RWMutex
}

// NewJobRegistry creates an empty JobRegistry.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[uuid.UUID]*model.PrintJob)}
}

func (r *JobRegistry) PutIfAbsent(job *model.PrintJob) *model.PrintJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.jobs[job.ID()]; ok {
		return existing
	}
	r.jobs[job.ID()] = job
	return nil
}

func (r *JobRegistry) Get(id uuid.UUID) (*model.PrintJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}

func (r *JobRegistry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	return true
}

// List returns the jobs ordered by start time.
func (r *JobRegistry) List() []*model.PrintJob {
	r.mu.RLock()
	jobs := make([]*model.PrintJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	r.mu.RUnlock()
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime().Before(jobs[j].StartTime())
	})
	return jobs
}

var _ repository.JobRegistry = (*JobRegistry)(nil)
