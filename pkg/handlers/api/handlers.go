// Package api provides the HTTP handlers for the retrieval service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ytgrab-go/pkg/interfaces"
	"ytgrab-go/pkg/logging"
	"ytgrab-go/pkg/types"
)

// Handlers contains all API handlers.
type Handlers struct {
	retriever interfaces.Retriever
	log       *logging.Logger
}

// NewHandlers creates a Handlers instance over the retrieval pipeline.
func NewHandlers(retriever interfaces.Retriever, log *logging.Logger) *Handlers {
	return &Handlers{
		retriever: retriever,
		log:       log.WithComponent("api"),
	}
}

// RegisterRoutes registers all API routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", h.handleIndex)
	mux.HandleFunc("GET /favicon.ico", h.handleFavicon)

	mux.HandleFunc("GET /api/info", h.handleInfo)
	mux.HandleFunc("GET /api/download", h.handleDownload)
	mux.HandleFunc("GET /api/download/audio", h.handleDownloadAudio)
	mux.HandleFunc("GET /api/download/mirror", h.handleDownloadMirror)
}

// handleIndex lists the endpoints.
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>ytgrab</title></head>
<body>
    <h1>ytgrab</h1>
    <p>Resolve a video URL into metadata and downloadable media.</p>
    <ul>
        <li><code>GET /api/info?url=...</code> &mdash; video metadata (JSON)</li>
        <li><code>GET /api/download?url=...&amp;itag=...</code> &mdash; video file</li>
        <li><code>GET /api/download/audio?url=...</code> &mdash; audio file (mp3)</li>
        <li><code>GET /api/download/mirror?url=...</code> &mdash; download via mirror</li>
    </ul>
</body>
</html>`)
}

func (h *Handlers) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleInfo returns resolved video metadata as JSON.
func (h *Handlers) handleInfo(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	meta, err := h.retriever.Info(r.Context(), rawURL)
	if err != nil {
		h.writeKindError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, meta)
}

// handleDownload serves a video retrieval.
func (h *Handlers) handleDownload(w http.ResponseWriter, r *http.Request) {
	h.serveRetrieval(w, r, types.KindVideo, h.retriever.Retrieve)
}

// handleDownloadAudio serves an audio retrieval.
func (h *Handlers) handleDownloadAudio(w http.ResponseWriter, r *http.Request) {
	h.serveRetrieval(w, r, types.KindAudio, h.retriever.Retrieve)
}

// handleDownloadMirror serves a retrieval through the mirror path.
func (h *Handlers) handleDownloadMirror(w http.ResponseWriter, r *http.Request) {
	h.serveRetrieval(w, r, types.KindVideo, h.retriever.RetrieveFromMirror)
}

func (h *Handlers) serveRetrieval(
	w http.ResponseWriter,
	r *http.Request,
	kind types.MediaKind,
	retrieve func(ctx context.Context, req types.MediaRequest) (*types.Outcome, error),
) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	req := types.MediaRequest{
		SourceURL: rawURL,
		Kind:      kind,
		FormatID:  r.URL.Query().Get("itag"),
	}

	outcome, err := retrieve(r.Context(), req)
	if err != nil {
		h.writeKindError(w, r, err)
		return
	}

	h.serveFile(w, outcome)
}

// serveFile streams the artifact as an attachment and removes it afterwards;
// the file never outlives the response that carries it.
func (h *Handlers) serveFile(w http.ResponseWriter, outcome *types.Outcome) {
	f, err := os.Open(outcome.FilePath)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "output file unavailable")
		return
	}
	defer func() {
		f.Close()
		if err := os.Remove(outcome.FilePath); err != nil {
			h.log.Warn("failed to remove served artifact", "path", outcome.FilePath, "error", err)
		}
	}()

	w.Header().Set("Content-Type", contentTypeFor(filepath.Ext(outcome.FilePath)))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", outcome.DisplayName))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	}

	if _, err := io.Copy(w, f); err != nil {
		h.log.Warn("response stream interrupted", "file", outcome.DisplayName, "error", err)
	}
}

// writeKindError maps an error kind onto the HTTP status taxonomy.
func (h *Handlers) writeKindError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForKind(types.KindOf(err))
	h.log.Error("request failed",
		"path", r.URL.Path,
		"kind", string(types.KindOf(err)),
		"error", err.Error(),
	)
	h.writeError(w, status, err.Error())
}

func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.ErrInvalidURL:
		return http.StatusBadRequest
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func contentTypeFor(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "opus", "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
