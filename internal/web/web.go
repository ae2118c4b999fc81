// Package web serves the browser chat view. The page keeps the transcript,
// input, loading flag and session id in memory and talks only to the
// /api/chat and /api/reset proxy routes.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed static
var assets embed.FS

// Handler serves the embedded page and its assets.
type Handler struct {
	static fs.FS
}

// New returns a Handler backed by the embedded assets.
func New() *Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// The directory is compiled in; failure here means a broken build.
		panic(err)
	}
	return &Handler{static: sub}
}

// RegisterRoutes mounts the page at / and its assets under /static/.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.static))))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(h.static, "index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(page)
}
