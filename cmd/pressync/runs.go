package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/pressync/internal/history"
)

var runsJSONOutput bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past batch runs from the history store",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().BoolVar(&runsJSONOutput, "json", false, "Output in JSON format")
}

func runRuns(cmd *cobra.Command, args []string) error {
	if cfg.History.Path == "" {
		return fmt.Errorf("run history is disabled: set history.path in the config")
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	records, err := store.ListRuns(context.Background(), 50)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if runsJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"runs":  records,
			"total": len(records),
		})
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tMODE\tSITE\tTOTAL\tOK\tFAILED\tDURATION\tSTARTED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.1fs\t%s\n",
			r.ID, r.Mode, r.Site, r.Total, r.Succeeded, r.Failed,
			r.Duration, r.StartedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()

	return nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
