package storage

import (
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/models"
)

// JobStore keeps match jobs in memory. Jobs are copied in and out so callers
// never share a job with the goroutine running it.
type JobStore struct {
	jobs map[string]*models.MatchJob
	mu   sync.RWMutex
}

func New() *JobStore {
	return &JobStore{
		jobs: make(map[string]*models.MatchJob),
	}
}

func (s *JobStore) Get(jobID string) (models.MatchJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return models.MatchJob{}, false
	}
	return *job, true
}

func (s *JobStore) Set(job models.MatchJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = &job
}

// Update applies fn to the stored job under the write lock. It reports
// whether the job exists.
func (s *JobStore) Update(jobID string, fn func(job *models.MatchJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return false
	}
	fn(job)
	return true
}

// GetAll returns every job, oldest first.
func (s *JobStore) GetAll() []models.MatchJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.MatchJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		result = append(result, *job)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *JobStore) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}
