package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static
var staticFiles embed.FS

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filepath := strings.TrimPrefix(r.URL.Path, "/")
	if filepath == "" {
		filepath = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(filepath, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		h.writeError(w, "Static files unavailable", http.StatusInternalServerError)
		return
	}
	if _, err := fs.Stat(sub, filepath); err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeFileFS(w, r, sub, filepath)
}
