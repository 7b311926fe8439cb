package models

import (
	"time"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/results"
)

// JobStatus is the lifecycle state of a MatchJob.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Done reports whether the job has stopped running.
func (s JobStatus) Done() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// MatchJob represents a matching run started from the web form
type MatchJob struct {
	ID            string           `json:"id"`
	Status        JobStatus        `json:"status"`
	Mode          string           `json:"mode"`
	Scorer        string           `json:"scorer"`
	QueryFile     string           `json:"query_file"`
	ReferenceFile string           `json:"reference_file"`
	OutputFile    string           `json:"output_file,omitempty"`
	OutputPath    string           `json:"-"`
	Dir           string           `json:"-"`
	Processed     int              `json:"processed"`
	Total         int              `json:"total"`
	Summary       *results.Summary `json:"summary,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	FinishedAt    *time.Time       `json:"finished_at,omitempty"`
}
