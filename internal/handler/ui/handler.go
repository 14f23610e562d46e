// Package ui serves the chat page and the image assets from the binary's
// working directory, so the whole app runs from one process.
package ui

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed index.html
var indexHTML []byte

// Handler serves the embedded chat page and static assets.
type Handler struct {
	assetsRoot string
}

// New creates the UI handler. assetsRoot is the on-disk directory served
// under /assets/.
func New(assetsRoot string) *Handler {
	return &Handler{assetsRoot: assetsRoot}
}

// RegisterRoutes mounts the page and asset routes on the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(h.assetsRoot))))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}
