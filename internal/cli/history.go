package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Scarage1/API-Watch/internal/infra/history"
)

var (
	histLimit  int
	histFailed bool
	histOlder  time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent request outcomes",
	Run:   runHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history records older than a cutoff",
	Run:   runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().IntVar(&histLimit, "limit", 20, "number of records to show")
	historyCmd.Flags().BoolVar(&histFailed, "failed", false, "show only failed requests")
	historyPruneCmd.Flags().DurationVar(&histOlder, "older-than", 0, "age cutoff (default is the configured retention)")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := setup()
	ctx := context.Background()

	store, err := history.OpenSQLite(ctx, cfg.History)
	if err != nil {
		slog.Error("Failed to open history store", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	recs, err := store.Recent(ctx, histLimit, histFailed)
	if err != nil {
		slog.Error("Failed to list history", "error", err)
		os.Exit(1)
	}

	if len(recs) == 0 {
		fmt.Println("No history records found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "WHEN\tSOURCE\tMETHOD\tURL\tSTATUS\tATTEMPTS\tELAPSED\tRESULT")
	for _, rec := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%dms\t%s\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			sourceLabel(rec),
			rec.Method,
			rec.URL,
			recordStatus(rec),
			rec.Attempts,
			rec.ElapsedMS,
			recordResult(rec),
		)
	}
	_ = w.Flush()

	if stats, err := store.Stats(ctx); err == nil {
		fmt.Printf("\n%d record(s) total, %d failed\n", stats.Total, stats.Failed)
	}
}

func runHistoryPrune(cmd *cobra.Command, args []string) {
	cfg := setup()
	ctx := context.Background()

	age := histOlder
	if age <= 0 {
		age = cfg.History.Retention
	}
	if age <= 0 {
		fmt.Println("Nothing to prune: no retention configured and no --older-than given.")
		return
	}

	store, err := history.OpenSQLite(ctx, cfg.History)
	if err != nil {
		slog.Error("Failed to open history store", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	n, err := store.Prune(ctx, time.Now().Add(-age))
	if err != nil {
		slog.Error("Failed to prune history", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Pruned %d record(s) older than %s\n", n, age)
}

func sourceLabel(rec history.Record) string {
	if rec.Source == history.SourceSuite && rec.CaseID != "" {
		return "suite:" + rec.CaseID
	}
	return rec.Source
}

func recordStatus(rec history.Record) string {
	if rec.StatusCode > 0 {
		return strconv.Itoa(rec.StatusCode)
	}
	if rec.ErrorKind != "" {
		return rec.ErrorKind
	}
	return "-"
}

func recordResult(rec history.Record) string {
	if rec.Success {
		return "ok"
	}
	if rec.Category != "" {
		return rec.Category
	}
	return "failed"
}
