package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/config"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/dataset"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/match"
	"github.com/lehigh-university-libraries/fuzzymatch/internal/models"
)

// MaxUploadSize limits each uploaded dataset.
const MaxUploadSize = 32 << 20

var errFileTooLarge = fmt.Errorf("file too large (max %dMB)", MaxUploadSize>>20)

// handleCreateJob accepts the multipart form: "query" and "reference" files
// plus the column fields (query_name, reference_id, ...) and run options.
func (h *Handler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if err := h.ensureUploadsDir(); err != nil {
		h.writeError(w, "Failed to create uploads directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jobID := uuid.NewString()
	dir := filepath.Join(h.uploadsDir, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.writeError(w, "Failed to create job directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	cfg, err := h.buildConfig(r, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		code := http.StatusBadRequest
		if !errors.Is(err, errFileTooLarge) && !isClientError(err) {
			code = http.StatusInternalServerError
		}
		h.writeError(w, err.Error(), code)
		return
	}

	job := models.MatchJob{
		ID:            jobID,
		Status:        models.JobQueued,
		Mode:          cfg.ModeValue().String(),
		Scorer:        cfg.Scorer,
		QueryFile:     filepath.Base(cfg.Query.Path),
		ReferenceFile: filepath.Base(cfg.Reference.Path),
		OutputPath:    cfg.Output.Path,
		Dir:           dir,
		CreatedAt:     time.Now(),
	}
	h.jobStore.Set(job)
	slog.Info("Job created", "job_id", jobID, "query", job.QueryFile, "reference", job.ReferenceFile, "mode", job.Mode)

	h.startJob(jobID, cfg)

	h.writeJSON(w, http.StatusAccepted, job)
}

type clientError struct{ error }

func isClientError(err error) bool {
	var ce clientError
	return errors.As(err, &ce)
}

func (h *Handler) buildConfig(r *http.Request, dir string) (*config.Run, error) {
	cfg := config.Default()

	if v := r.FormValue("mode"); v != "" {
		cfg.Mode = v
	}
	if v := r.FormValue("scorer"); v != "" {
		cfg.Scorer = v
	}
	if v := r.FormValue("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, clientError{fmt.Errorf("invalid min_score %q", v)}
		}
		cfg.MinScore = score
	}

	for _, side := range []struct {
		field string
		dest  *config.Side
	}{
		{"query", &cfg.Query},
		{"reference", &cfg.Reference},
	} {
		path, err := saveUpload(r, side.field, dir)
		if err != nil {
			return nil, err
		}
		*side.dest = config.Side{
			Path:      path,
			Table:     r.FormValue(side.field + "_table"),
			Delimiter: r.FormValue(side.field + "_delimiter"),
			Columns: match.Columns{
				ID:      r.FormValue(side.field + "_id"),
				Name:    r.FormValue(side.field + "_name"),
				Year:    r.FormValue(side.field + "_year"),
				Quarter: r.FormValue(side.field + "_quarter"),
			},
		}
	}

	var format dataset.Format
	var err error
	if v := r.FormValue("output_format"); v != "" {
		format, err = dataset.ParseFormat(v)
	} else {
		format, err = dataset.DetectFormat(cfg.Query.Path)
	}
	if err != nil {
		return nil, clientError{err}
	}
	cfg.Output = config.Output{
		Format: string(format),
		Path:   filepath.Join(dir, "merge"+format.Extension()),
	}

	if err := cfg.Validate(); err != nil {
		return nil, clientError{err}
	}

	return cfg, nil
}

// saveUpload stores the form file field under dir and returns its path.
func saveUpload(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", clientError{fmt.Errorf("failed to read %s file: %w", field, err)}
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "upload" + filepath.Ext(header.Filename)
	}
	path := filepath.Join(dir, field+"-"+name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to save %s file: %w", field, err)
	}
	if n > MaxUploadSize {
		return "", errFileTooLarge
	}

	return path, out.Close()
}
