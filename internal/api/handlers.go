// Package api serves the upload form and streams batch progress back to the
// caller while a sync runs. Each upload request owns an independent client
// and outcome accumulator; nothing is shared between concurrent batches.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hyperengineering/pressync/internal/config"
	"github.com/hyperengineering/pressync/internal/csvfile"
	"github.com/hyperengineering/pressync/internal/history"
	"github.com/hyperengineering/pressync/internal/sync"
)

// maxUploadBytes bounds the multipart CSV upload size.
const maxUploadBytes = 32 << 20

// BatchRunner executes one batch for an upload request. Injected so handlers
// can be tested without a live site.
type BatchRunner func(ctx context.Context, siteName string, site config.SiteConfig,
	mode sync.Mode, rows []sync.Row, progress sync.ProgressFunc) (*sync.Summary, error)

// Pinger probes one site's connectivity. Injected for testing.
type Pinger func(ctx context.Context, site config.SiteConfig) error

// Handler implements the API handlers.
type Handler struct {
	cfg     *config.Config
	hist    *history.Store
	runner  BatchRunner
	pinger  Pinger
	apiKey  string
	version string
}

// NewHandler creates a Handler. hist may be nil when run history is disabled.
func NewHandler(cfg *config.Config, hist *history.Store, runner BatchRunner, pinger Pinger, version string) *Handler {
	return &Handler{
		cfg:     cfg,
		hist:    hist,
		runner:  runner,
		pinger:  pinger,
		apiKey:  cfg.Server.APIKey,
		version: version,
	}
}

// Health returns service status and, when a default site resolves, whether
// that site's REST API is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "healthy",
		"version": h.version,
	}

	if _, site, err := h.cfg.Site(""); err == nil && h.pinger != nil {
		if err := h.pinger(r.Context(), site); err != nil {
			resp["site"] = "unreachable"
		} else {
			resp["site"] = "reachable"
		}
	} else {
		resp["site"] = "unconfigured"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Sync handles POST /api/v1/sync: a multipart CSV upload that runs a batch
// and streams progress events back as server-sent events, ending with a
// summary event.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	// MaxBytesReader bounds the whole request; ParseMultipartForm's argument
	// only caps what is held in memory before spooling to disk.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid multipart form: %s", err))
		return
	}

	mode := sync.ModeCreate
	if r.FormValue("mode") == string(sync.ModeUpdate) {
		mode = sync.ModeUpdate
	}

	siteName, site, err := h.cfg.Site(r.FormValue("site"))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Missing CSV file upload")
		return
	}
	defer file.Close()

	rows, err := csvfile.Read(file)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Cannot parse CSV: %s", err))
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		WriteProblem(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	summary, err := h.runner(r.Context(), siteName, site, mode, rows, stream.sendProgress)
	if err != nil {
		// Headers are already sent; the failure travels as a final event.
		stream.send("fatal", map[string]string{"error": err.Error()})
		return
	}

	stream.send("summary", summary)
}

// Runs lists recent batch runs from the history store.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.hist == nil {
		WriteProblem(w, r, http.StatusNotFound, "Run history is disabled")
		return
	}
	records, err := h.hist.ListRuns(r.Context(), 50)
	if err != nil {
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if records == nil {
		records = []history.RunRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"runs":  records,
		"total": len(records),
	})
}
