package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Scarage1/API-Watch/internal/core/config"
	"github.com/Scarage1/API-Watch/internal/infra/history"
	"github.com/Scarage1/API-Watch/internal/infra/notify"
	"github.com/Scarage1/API-Watch/internal/infra/transport"
	"github.com/Scarage1/API-Watch/internal/report"
	"github.com/Scarage1/API-Watch/internal/runner"
	"github.com/Scarage1/API-Watch/internal/suite"
)

var (
	suiteParallel  int
	suiteBail      bool
	suiteReportDir string
	suiteNoReport  bool
	suiteWatch     bool
	suiteNotify    string
)

var suiteCmd = &cobra.Command{
	Use:   "suite [file]",
	Short: "Run a YAML suite of API checks",
	Args:  cobra.ExactArgs(1),
	Run:   runSuite,
}

func init() {
	rootCmd.AddCommand(suiteCmd)

	f := suiteCmd.Flags()
	f.IntVar(&suiteParallel, "parallel", 1, "number of cases to run at once")
	f.BoolVar(&suiteBail, "bail", false, "stop after the first failing case")
	f.StringVar(&suiteReportDir, "report-dir", "", "report output directory (overrides config)")
	f.BoolVar(&suiteNoReport, "no-report", false, "do not write report files")
	f.BoolVar(&suiteWatch, "watch", false, "re-run the suite whenever the file changes")
	f.StringVar(&suiteNotify, "notify", "", "POST the run summary to this URL (overrides config)")
}

func runSuite(cmd *cobra.Command, args []string) {
	cfg := setup()
	path := args[0]

	if suiteWatch {
		if err := watchSuite(path, cfg); err != nil {
			slog.Error("Suite watch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if !runSuiteOnce(context.Background(), path, cfg) {
		os.Exit(1)
	}
}

// runSuiteOnce loads and runs the suite file and reports whether every case
// passed. Load errors count as failure.
func runSuiteOnce(ctx context.Context, path string, cfg *config.AppConfig) bool {
	s, err := suite.Load(path)
	if err != nil {
		slog.Error("Failed to load suite", "file", path, "error", err)
		return false
	}

	authCfg := cfg.Auth
	if s.Auth != nil {
		authCfg = s.Auth
	}
	auth, err := runner.AuthFromConfig(authCfg)
	if err != nil {
		slog.Error("Failed to build suite auth", "error", err)
		return false
	}

	client := transport.NewClient(transport.Options{
		InsecureSkipVerify: cfg.Defaults.Insecure,
		DisableRedirects:   cfg.Defaults.DisableRedirects,
		UserAgent:          "apiwatch/" + Version,
	})
	exec := runner.New(client, cfg.Retry, runner.WithAuth(auth))

	results, err := suite.NewRunner(exec, slog.Default()).Run(ctx, s, suite.Options{
		Parallel: suiteParallel,
		Bail:     suiteBail,
	})
	if err != nil {
		slog.Error("Suite run interrupted", "error", err)
		return false
	}

	rep := report.FromSuite(Version, s, results)
	_ = report.WriteText(os.Stdout, rep)

	if !suiteNoReport {
		dir := cfg.Report.Dir
		if suiteReportDir != "" {
			dir = suiteReportDir
		}
		paths, err := report.Save(dir, cfg.Report.Formats, rep)
		if err != nil {
			slog.Error("Failed to write reports", "error", err)
		}
		for _, p := range paths {
			fmt.Printf("report written: %s\n", p)
		}
	}

	saveHistory(ctx, cfg, suiteRecords(s, results)...)
	sendNotification(ctx, cfg, s, results)

	return suite.Passed(results)
}

func suiteRecords(s *suite.Suite, results []suite.CaseResult) []history.Record {
	recs := make([]history.Record, 0, len(results))
	for _, cr := range results {
		if cr.Skipped {
			continue
		}
		rec := history.FromResult(cr.Result)
		rec.Source = history.SourceSuite
		rec.SuiteName = s.Name
		rec.CaseID = cr.Case.ID
		recs = append(recs, rec)
	}
	return recs
}

func sendNotification(ctx context.Context, cfg *config.AppConfig, s *suite.Suite, results []suite.CaseResult) {
	notifyCfg := cfg.Notify
	if suiteNotify != "" {
		notifyCfg.URL = suiteNotify
	}

	n := notify.New(notifyCfg, slog.Default())
	if !n.Enabled() {
		return
	}

	payload := notify.BuildPayload("suite", s.Name, suite.DomainResults(results))
	if err := n.Send(ctx, payload); err != nil {
		slog.Warn("Failed to send notification", "error", err)
	}
}

// watchSuite runs the suite, then re-runs it on every write to the file
// until SIGINT or SIGTERM. Editors that replace the file on save are handled
// by re-adding the path after rename events.
func watchSuite(path string, cfg *config.AppConfig) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch suite file: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runSuiteOnce(ctx, path, cfg)
	slog.Info("Watching suite file", "file", path)

	rerun := make(chan struct{}, 1)
	var debounce *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(300*time.Millisecond, func() {
					select {
					case rerun <- struct{}{}:
					default:
					}
				})
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// Give the editor a moment to recreate the file.
				time.Sleep(100 * time.Millisecond)
				if _, err := os.Stat(path); err == nil {
					_ = watcher.Add(path)
				}
			}

		case <-rerun:
			runSuiteOnce(ctx, path, cfg)
			slog.Info("Watching suite file", "file", path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Suite watch error", "error", err)

		case sig := <-sigChan:
			slog.Info("Received signal, stopping watch", "signal", sig)
			return nil
		}
	}
}
