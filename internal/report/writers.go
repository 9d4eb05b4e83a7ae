package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"
)

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteText renders the report as a terminal table with a failure detail
// section underneath.
func WriteText(w io.Writer, rep Report) error {
	title := "RUN"
	if rep.SuiteName != "" {
		title = fmt.Sprintf("SUITE %s", rep.SuiteName)
	}
	_, _ = fmt.Fprintf(w, "%s: %d passed, %d failed", title, rep.Passed, rep.Failed)
	if rep.Skipped > 0 {
		_, _ = fmt.Fprintf(w, ", %d skipped", rep.Skipped)
	}
	_, _ = fmt.Fprintf(w, " (avg %s)\n\n", rep.Summary.AvgElapsed.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(tw, "CASE\tMETHOD\tURL\tSTATUS\tATTEMPTS\tELAPSED\tRESULT")
	for _, e := range rep.Entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%dms\t%s\n",
			e.Label(), e.Method, e.URL, e.StatusText(), e.Attempts, e.ElapsedMS, e.Verdict())
	}
	_ = tw.Flush()

	groups := groupFailures(rep.Entries)
	for _, g := range groups {
		_, _ = fmt.Fprintf(w, "\n[%s]\n", g.Label)
		for _, e := range g.Entries {
			_, _ = fmt.Fprintf(w, "  %s %s %s\n", e.Label(), e.Method, e.URL)
			for _, f := range e.Failures {
				_, _ = fmt.Fprintf(w, "    - %s\n", f)
			}
			if d := e.Diagnosis; d != nil {
				_, _ = fmt.Fprintf(w, "    issue: %s\n", d.Issue)
				_, _ = fmt.Fprintf(w, "    cause: %s\n", d.Cause)
				_, _ = fmt.Fprintf(w, "    try:   %s\n", d.Suggestion)
			}
		}
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9-]+`)

func baseName(rep Report) string {
	name := unsafeName.ReplaceAllString(strings.ToLower(rep.SuiteName), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "report"
	}
	return fmt.Sprintf("%s_%s", name, rep.GeneratedAt.Format("20060102-150405"))
}

// Save writes the report in the requested formats ("json", "html") under dir
// and returns the paths written.
func Save(dir string, formats []string, rep Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}

	base := baseName(rep)
	var paths []string
	for _, format := range formats {
		var (
			ext    string
			render func(io.Writer, Report) error
		)
		switch format {
		case "json":
			ext, render = "json", WriteJSON
		case "html":
			ext, render = "html", WriteHTML
		default:
			return paths, fmt.Errorf("unknown report format %q", format)
		}

		path := filepath.Join(dir, base+"."+ext)
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("failed to create report file: %w", err)
		}
		if err := render(f, rep); err != nil {
			_ = f.Close()
			return paths, fmt.Errorf("failed to render %s report: %w", format, err)
		}
		if err := f.Close(); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
