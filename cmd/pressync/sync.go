package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/pressync/internal/csvfile"
	"github.com/hyperengineering/pressync/internal/history"
	"github.com/hyperengineering/pressync/internal/sync"
	"github.com/hyperengineering/pressync/internal/wp"
)

var updateCmd = &cobra.Command{
	Use:   "update [csv-file]",
	Short: "Update existing posts from a CSV (sparse merge by post_id, slug, or title)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, sync.ModeUpdate)
	},
}

func runSync(cmd *cobra.Command, args []string) error {
	return runBatch(cmd, args, sync.ModeCreate)
}

// runBatch is the shared CLI batch entry point for both modes.
func runBatch(cmd *cobra.Command, args []string, mode sync.Mode) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	csvPath := ""
	if len(args) > 0 {
		csvPath = args[0]
	} else {
		csvPath = promptForPath(cmd, cfg.Sync.CSVPath)
	}

	rows, err := csvfile.Load(csvPath)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "CSV has no data rows, nothing to do.")
		return nil
	}

	siteName, site, err := cfg.Site(siteFlag)
	if err != nil {
		return err
	}

	client := wp.NewClient(site.BaseURL, site.Username, site.AppPassword,
		wp.WithTimeout(time.Duration(cfg.Sync.RequestTimeout)))

	var recorder sync.Recorder
	if cfg.History.Path != "" {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			slog.Warn("run history unavailable", "error", err)
		} else {
			defer store.Close()
			recorder = store
		}
	}

	driver := sync.NewDriver(sync.DriverConfig{
		API:           client,
		Mode:          mode,
		Site:          siteName,
		DefaultStatus: site.DefaultStatus,
		WriteDelay:    time.Duration(cfg.Sync.WriteDelay),
		LogDir:        cfg.Sync.LogDir,
		Recorder:      recorder,
	})

	summary, err := driver.Run(ctx, rows)
	if err != nil {
		return err
	}

	printSummary(cmd, summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d rows failed", summary.Failed, summary.Total)
	}
	return nil
}

// promptForPath asks for the CSV path, suggesting the configured default.
func promptForPath(cmd *cobra.Command, defaultPath string) string {
	fmt.Fprintf(cmd.OutOrStdout(), "CSV file path [%s]: ", defaultPath)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return defaultPath
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultPath
	}
	return line
}

func printSummary(cmd *cobra.Command, s *sync.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRun %s (%s, site %s)\n", s.RunID, s.Mode, s.Site)
	fmt.Fprintf(out, "  total:     %d\n", s.Total)
	fmt.Fprintf(out, "  succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(out, "  failed:    %d\n", s.Failed)
	fmt.Fprintf(out, "  duration:  %.1fs\n", s.Seconds)

	for _, o := range s.Outcomes {
		if o.Failed() {
			fmt.Fprintf(out, "  row %d (%s): %s\n", o.RowNumber, o.Title, o.Err)
		}
	}
}
