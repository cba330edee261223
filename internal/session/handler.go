package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// DefaultResolution is used when the request does not name one.
const DefaultResolution = 1080

// Handler exposes the gateway HTTP endpoints using go-chi.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler returns a Handler backed by the given Service.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Health handles GET /.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Stream handles GET /stream/?url=...&resolution=1080. On success the client
// is redirected to the session's playlist under /hls/.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	resolution := DefaultResolution
	if v := r.URL.Query().Get("resolution"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "resolution must be an integer")
			return
		}
		resolution = n
	}

	location, err := h.svc.Stream(r.Context(), rawURL, resolution)
	if err != nil {
		var noStream *NoStreamError
		switch {
		case errors.As(err, &noStream):
			writeError(w, http.StatusNotFound, noStream.Error())
		case errors.Is(err, ErrReadinessTimeout):
			writeError(w, http.StatusInternalServerError, ErrReadinessTimeout.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	http.Redirect(w, r, location, http.StatusFound)
}

// Segments returns the static file handler for /hls/{sessionId}/{fileName}.
// Session directories stay on disk after the redirect so segments remain
// servable for the lifetime of the playback.
func (h *Handler) Segments() http.Handler {
	return http.StripPrefix("/hls/", http.FileServer(http.Dir(h.svc.workspace.Root)))
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
