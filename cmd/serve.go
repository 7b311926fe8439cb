package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var uploadsDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server with the matching upload form",
		Long: `Starts the fuzzymatch web interface on the specified port.

The web interface lets you upload a query and a reference dataset, name
their columns and start a match run. Runs execute in the background; their
progress can be followed, a running job can be stopped, and the merged
file can be downloaded when the run completes.

API:
  POST   /api/jobs                 start a job (multipart form)
  GET    /api/jobs                 list jobs
  GET    /api/jobs/{id}            job status and summary
  DELETE /api/jobs/{id}            stop a running job or delete a finished one
  GET    /api/jobs/{id}/download   merged output`,
		Example: `  # Start server on default port 8888
  fuzzymatch serve

  # Start server on custom port with uploads kept in /var/lib/fuzzymatch
  fuzzymatch serve --port 3000 --uploads /var/lib/fuzzymatch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := handlers.New(uploadsDir)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/jobs", handler.HandleJobs)
			mux.HandleFunc("/api/jobs/", handler.HandleJobDetail)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("fuzzymatch interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server and running jobs 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				if err := handler.Shutdown(shutdownCtx); err != nil {
					slog.Error("Jobs did not stop in time", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&uploadsDir, "uploads", handlers.DefaultUploadsDir, "Directory for uploaded and generated files")

	return cmd
}
