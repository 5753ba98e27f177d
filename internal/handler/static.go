package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves a prebuilt single-page frontend. Unknown paths
// without a file extension fall back to index.html so client-side
// routes survive a reload.
type StaticHandler struct {
	root  string
	files http.Handler
}

// NewStaticHandler serves files under dir.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{
		root:  dir,
		files: http.FileServer(http.Dir(dir)),
	}
}

// ServeHTTP implements http.Handler.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if strings.HasPrefix(clean, "/api/") || clean == "/api" {
		writeError(w, http.StatusNotFound, "Route not found")
		return
	}

	_, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) && path.Ext(clean) == "" {
		http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
		return
	}

	h.files.ServeHTTP(w, r)
}
