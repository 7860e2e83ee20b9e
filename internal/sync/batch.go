package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/pressync/internal/wp"
)

// Recorder persists finished batch runs. Implemented by the history store;
// may be nil when history is disabled.
type Recorder interface {
	RecordRun(ctx context.Context, summary *Summary) error
}

// Driver runs one batch: rows strictly in input order, one Outcome per row,
// a connectivity probe up front, and a Summary at the end. Each Driver owns
// its accumulator and clock; concurrent batches must use separate Drivers.
type Driver struct {
	api      wp.API
	rec      *Reconciler
	mode     Mode
	site     string
	progress ProgressFunc
	logDir   string
	recorder Recorder
	runID    string
}

// DriverConfig wires a Driver for one batch invocation.
type DriverConfig struct {
	API           wp.API
	Mode          Mode
	Site          string
	DefaultStatus string
	WriteDelay    time.Duration
	Progress      ProgressFunc
	// LogDir receives the JSON outcome artifact; empty disables it.
	LogDir string
	// Recorder receives the finished Summary; nil disables history.
	Recorder Recorder
}

// NewDriver creates a batch driver.
func NewDriver(cfg DriverConfig) *Driver {
	pacer := NewPacer(cfg.WriteDelay)
	return &Driver{
		api:      cfg.API,
		rec:      NewReconciler(cfg.API, pacer, cfg.DefaultStatus),
		mode:     cfg.Mode,
		site:     cfg.Site,
		progress: cfg.Progress,
		logDir:   cfg.LogDir,
		recorder: cfg.Recorder,
	}
}

// Run processes all rows and returns the Summary. The only batch-fatal
// condition is the connectivity probe failing before any row is attempted;
// per-row failures land in their Outcome and the loop continues.
func (d *Driver) Run(ctx context.Context, rows []Row) (*Summary, error) {
	if err := d.api.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connectivity check failed: %w", err)
	}

	d.runID = ulid.Make().String()
	summary := &Summary{
		RunID:     d.runID,
		Mode:      d.mode,
		Site:      d.site,
		Total:     len(rows),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]Outcome, 0, len(rows)),
	}
	start := time.Now()

	d.emit(ProgressEvent{
		Type:    EventInfo,
		Message: fmt.Sprintf("starting %s batch: %d rows", d.mode, len(rows)),
	})

	for _, row := range rows {
		d.emit(ProgressEvent{
			Type:      EventInfo,
			Message:   fmt.Sprintf("processing row %d", row.Number),
			RowNumber: row.Number,
			Title:     row.Get(colTitle),
		})

		outcome := d.rec.Process(ctx, row, d.mode)
		summary.Outcomes = append(summary.Outcomes, outcome)

		if outcome.Failed() {
			summary.Failed++
			slog.Warn("row failed", "row", outcome.RowNumber, "title", outcome.Title, "error", outcome.Err)
			d.emit(ProgressEvent{
				Type:      EventError,
				Message:   fmt.Sprintf("row %d failed: %s", outcome.RowNumber, outcome.Err),
				RowNumber: outcome.RowNumber,
				Title:     outcome.Title,
				Err:       outcome.Err,
			})
			continue
		}

		summary.Succeeded++
		slog.Info("row applied", "row", outcome.RowNumber, "action", outcome.Action,
			"id", outcome.RemoteID, "status", outcome.RemoteStatus)
		d.emit(ProgressEvent{
			Type:      EventSuccess,
			Message:   fmt.Sprintf("row %d %s post %d", outcome.RowNumber, outcome.Action, outcome.RemoteID),
			RowNumber: outcome.RowNumber,
			RemoteID:  outcome.RemoteID,
			Title:     outcome.Title,
		})
	}

	summary.Duration = time.Since(start)
	summary.Seconds = summary.Duration.Seconds()

	if d.logDir != "" {
		if path, err := writeLogArtifact(d.logDir, summary); err != nil {
			slog.Warn("could not write outcome log", "error", err)
		} else {
			slog.Info("outcome log written", "path", path)
		}
	}

	if d.recorder != nil {
		if err := d.recorder.RecordRun(ctx, summary); err != nil {
			slog.Warn("could not record run history", "run_id", summary.RunID, "error", err)
		}
	}

	d.emit(ProgressEvent{
		Type: EventInfo,
		Message: fmt.Sprintf("batch finished: %d succeeded, %d failed in %.1fs",
			summary.Succeeded, summary.Failed, summary.Seconds),
	})
	return summary, nil
}

// emit stamps the run ID on the event so callers relaying several concurrent
// batches can tell the streams apart.
func (d *Driver) emit(event ProgressEvent) {
	if d.progress != nil {
		event.RunID = d.runID
		d.progress(event)
	}
}

// writeLogArtifact persists the Summary as a timestamped JSON file.
func writeLogArtifact(dir string, summary *Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("sync-%s-%s.json", summary.StartedAt.Format("20060102-150405"), summary.RunID)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
