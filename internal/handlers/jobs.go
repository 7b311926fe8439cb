package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/config"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/models"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/results"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/runner"
)

func (h *Handler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jobs := h.jobStore.GetAll()
		for i := range jobs {
			jobs[i] = h.withProgress(jobs[i])
		}
		h.writeJSON(w, http.StatusOK, jobs)
	case http.MethodPost:
		h.handleCreateJob(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleJobDetail serves /api/jobs/{id} and /api/jobs/{id}/download.
func (h *Handler) HandleJobDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	jobID, action, _ := strings.Cut(rest, "/")

	job, ok := h.getJobOrError(w, jobID)
	if !ok {
		return
	}

	switch {
	case action == "download" && r.Method == http.MethodGet:
		h.handleDownload(w, r, job)
	case action != "":
		h.writeError(w, "Not found", http.StatusNotFound)
	case r.Method == http.MethodGet:
		h.writeJSON(w, http.StatusOK, job)
	case r.Method == http.MethodDelete:
		h.handleDeleteJob(w, job)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, job models.MatchJob) {
	if job.Status != models.JobCompleted {
		h.writeError(w, "Job has no output yet", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+job.OutputFile+`"`)
	http.ServeFile(w, r, job.OutputPath)
}

// handleDeleteJob stops a running job. A finished job is removed together
// with its uploaded and generated files.
func (h *Handler) handleDeleteJob(w http.ResponseWriter, job models.MatchJob) {
	if !job.Status.Done() {
		h.mu.Lock()
		cancel, ok := h.cancels[job.ID]
		h.mu.Unlock()
		if ok {
			cancel()
		}
		slog.Info("Job cancellation requested", "job_id", job.ID)
		h.writeJSON(w, http.StatusAccepted, job)
		return
	}

	h.jobStore.Delete(job.ID)
	if err := os.RemoveAll(job.Dir); err != nil {
		slog.Warn("Unable to remove job files", "job_id", job.ID, "err", err)
	}
	slog.Info("Job deleted", "job_id", job.ID)
	w.WriteHeader(http.StatusNoContent)
}

// startJob runs cfg in the background until it finishes or the job is cancelled.
func (h *Handler) startJob(jobID string, cfg *config.Run) {
	ctx, cancel := context.WithCancel(context.Background())
	counter := &runner.Counter{}

	h.mu.Lock()
	h.cancels[jobID] = cancel
	h.counters[jobID] = counter
	h.mu.Unlock()

	h.running.Add(1)
	go func() {
		defer h.running.Done()
		defer cancel()

		started := time.Now()
		h.jobStore.Update(jobID, func(job *models.MatchJob) {
			job.Status = models.JobRunning
			job.StartedAt = &started
		})
		slog.Info("Job started", "job_id", jobID)

		summary, err := h.runSafely(ctx, cfg, counter)

		finished := time.Now()
		processed, total := counter.Snapshot()
		h.jobStore.Update(jobID, func(job *models.MatchJob) {
			job.FinishedAt = &finished
			job.Summary = summary
			job.Processed, job.Total = processed, total

			switch {
			case err == nil:
				job.Status = models.JobCompleted
				job.OutputFile = filepath.Base(cfg.Output.Path)
			case errors.Is(err, context.Canceled):
				job.Status = models.JobCancelled
			default:
				job.Status = models.JobFailed
				job.Error = err.Error()
			}
		})

		h.mu.Lock()
		delete(h.cancels, jobID)
		delete(h.counters, jobID)
		h.mu.Unlock()

		if err != nil {
			slog.Warn("Job stopped", "job_id", jobID, "err", err)
			return
		}
		slog.Info("Job completed", "job_id", jobID, "matched", summary.Matched, "rows", summary.QueryRows)
	}()
}

// runSafely turns a panic inside a job into a job error.
func (h *Handler) runSafely(ctx context.Context, cfg *config.Run, progress runner.Progress) (summary *results.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Job panicked", "panic", r, "stack", string(debug.Stack()))
			summary, err = nil, fmt.Errorf("job failed unexpectedly: %v", r)
		}
	}()
	return h.run(ctx, cfg, progress)
}
