package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/config"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/models"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/results"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/runner"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/storage"
)

// DefaultUploadsDir holds one subdirectory per job.
const DefaultUploadsDir = "uploads"

type Handler struct {
	jobStore   *storage.JobStore
	uploadsDir string

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	counters map[string]*runner.Counter
	running  sync.WaitGroup

	// run executes a job; tests replace it.
	run func(ctx context.Context, cfg *config.Run, progress runner.Progress) (*results.Summary, error)
}

func New(uploadsDir string) *Handler {
	if uploadsDir == "" {
		uploadsDir = DefaultUploadsDir
	}
	return &Handler{
		jobStore:   storage.New(),
		uploadsDir: uploadsDir,
		cancels:    make(map[string]context.CancelFunc),
		counters:   make(map[string]*runner.Counter),
		run:        runner.Run,
	}
}

// Shutdown cancels running jobs and waits for them to stop or ctx to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for _, cancel := range h.cancels {
		cancel()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "code", code)
	}
	http.Error(w, message, code)
}

// Job helpers
func (h *Handler) getJobOrError(w http.ResponseWriter, jobID string) (models.MatchJob, bool) {
	job, exists := h.jobStore.Get(jobID)
	if !exists {
		h.writeError(w, "Job not found", http.StatusNotFound)
		return job, false
	}
	return h.withProgress(job), true
}

// withProgress fills in the live row counts of a running job.
func (h *Handler) withProgress(job models.MatchJob) models.MatchJob {
	h.mu.Lock()
	counter, ok := h.counters[job.ID]
	h.mu.Unlock()

	if ok {
		job.Processed, job.Total = counter.Snapshot()
	}
	return job
}

// File operation helpers
func (h *Handler) ensureUploadsDir() error {
	return os.MkdirAll(h.uploadsDir, 0755)
}
