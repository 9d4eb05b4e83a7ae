package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
)

//go:embed report.html.tmpl
var htmlFS embed.FS

var htmlTmpl = template.Must(template.ParseFS(htmlFS, "report.html.tmpl"))

type htmlView struct {
	Report
	Title      string
	SuccessPct string
	AvgElapsed string
	Groups     []severityGroup
}

// WriteHTML renders the report as a standalone HTML page, failures grouped by
// severity with the most urgent section first.
func WriteHTML(w io.Writer, rep Report) error {
	title := "request run"
	if rep.SuiteName != "" {
		title = rep.SuiteName
	}
	view := htmlView{
		Report:     rep,
		Title:      title,
		SuccessPct: fmt.Sprintf("%.1f%%", rep.Summary.SuccessRate*100),
		AvgElapsed: rep.Summary.AvgElapsed.Round(time.Millisecond).String(),
		Groups:     groupFailures(rep.Entries),
	}
	if err := htmlTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

// CSSClass maps the verdict onto the template's row classes.
func (e Entry) CSSClass() string {
	return strings.ToLower(e.Verdict())
}
