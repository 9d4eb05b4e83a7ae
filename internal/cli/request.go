package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/Scarage1/API-Watch/internal/core/config"
	"github.com/Scarage1/API-Watch/internal/core/domain"
	"github.com/Scarage1/API-Watch/internal/infra/history"
	"github.com/Scarage1/API-Watch/internal/infra/transport"
	"github.com/Scarage1/API-Watch/internal/report"
	"github.com/Scarage1/API-Watch/internal/runner"
)

var (
	reqMethod     string
	reqHeaders    []string
	reqParams     []string
	reqData       string
	reqDataFile   string
	reqSets       []string
	reqTimeout    time.Duration
	reqRetries    int
	reqBearer     string
	reqAPIKey     string
	reqKeyHeader  string
	reqBasic      string
	reqInsecure   bool
	reqNoRedirect bool
	reqJSON       bool
	reqSave       bool
)

var requestCmd = &cobra.Command{
	Use:   "request [url]",
	Short: "Send one HTTP request with retries and diagnosis",
	Args:  cobra.ExactArgs(1),
	Run:   runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)

	f := requestCmd.Flags()
	f.StringVarP(&reqMethod, "method", "X", "GET", "HTTP method")
	f.StringArrayVarP(&reqHeaders, "header", "H", nil, `request header as "Key: Value" (repeatable)`)
	f.StringArrayVarP(&reqParams, "query", "q", nil, "query parameter as key=value (repeatable)")
	f.StringVarP(&reqData, "data", "d", "", "request body")
	f.StringVar(&reqDataFile, "data-file", "", "read the request body from a file")
	f.StringArrayVar(&reqSets, "set", nil, "patch the JSON body at path=value (repeatable)")
	f.DurationVar(&reqTimeout, "timeout", 0, "per-attempt timeout (overrides config)")
	f.IntVar(&reqRetries, "retries", -1, "retry budget (overrides config)")
	f.StringVar(&reqBearer, "bearer", "", "bearer token")
	f.StringVar(&reqAPIKey, "api-key", "", "API key")
	f.StringVar(&reqKeyHeader, "api-key-header", "", "header used for --api-key (default X-API-Key)")
	f.StringVar(&reqBasic, "basic", "", "basic auth credentials as user:pass")
	f.BoolVar(&reqInsecure, "insecure", false, "skip TLS certificate verification")
	f.BoolVar(&reqNoRedirect, "no-redirect", false, "do not follow redirects")
	f.BoolVar(&reqJSON, "json", false, "print the result as JSON")
	f.BoolVar(&reqSave, "save", false, "write report files for this request")
}

func runRequest(cmd *cobra.Command, args []string) {
	cfg := setup()

	spec, err := buildSpec(args[0], cfg)
	if err != nil {
		fmt.Printf("Invalid request: %v\n", err)
		os.Exit(1)
	}

	auth, err := buildAuth(cfg)
	if err != nil {
		fmt.Printf("Invalid auth: %v\n", err)
		os.Exit(1)
	}

	client := transport.NewClient(transport.Options{
		InsecureSkipVerify: reqInsecure || cfg.Defaults.Insecure,
		DisableRedirects:   reqNoRedirect || cfg.Defaults.DisableRedirects,
		UserAgent:          "apiwatch/" + Version,
	})
	exec := runner.New(client, cfg.Retry, runner.WithAuth(auth))

	ctx := context.Background()
	res, err := exec.Execute(ctx, spec)

	var cfgErr *runner.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Printf("Invalid request: %v\n", err)
		os.Exit(1)
	}

	if reqJSON {
		printResultJSON(res)
	} else {
		printResult(res)
	}

	saveHistory(ctx, cfg, history.FromResult(res))

	if reqSave {
		rep := report.FromResults(Version, []domain.Result{res})
		paths, err := report.Save(cfg.Report.Dir, cfg.Report.Formats, rep)
		if err != nil {
			slog.Error("Failed to write report", "error", err)
			os.Exit(1)
		}
		for _, p := range paths {
			fmt.Printf("report written: %s\n", p)
		}
	}

	if !res.Success {
		os.Exit(1)
	}
}

func buildSpec(target string, cfg *config.AppConfig) (domain.RequestSpec, error) {
	spec := domain.RequestSpec{
		Method:  reqMethod,
		URL:     target,
		Timeout: cfg.Defaults.Timeout,
	}
	if reqTimeout > 0 {
		spec.Timeout = reqTimeout
	}
	if reqRetries >= 0 {
		n := reqRetries
		spec.MaxRetries = &n
	}

	if len(reqHeaders) > 0 {
		spec.Headers = make(map[string]string, len(reqHeaders))
		for _, h := range reqHeaders {
			k, v, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(k) == "" {
				return spec, fmt.Errorf(`header %q is not in "Key: Value" form`, h)
			}
			spec.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	if len(reqParams) > 0 {
		spec.Params = make(map[string]string, len(reqParams))
		for _, p := range reqParams {
			k, v, ok := strings.Cut(p, "=")
			if !ok || k == "" {
				return spec, fmt.Errorf("query param %q is not in key=value form", p)
			}
			spec.Params[k] = v
		}
	}

	body, err := buildBody()
	if err != nil {
		return spec, err
	}
	spec.Body = body

	if looksLikeJSON(body) && !hasHeader(spec.Headers, "Content-Type") {
		if spec.Headers == nil {
			spec.Headers = make(map[string]string, 1)
		}
		spec.Headers["Content-Type"] = "application/json"
	}
	return spec, nil
}

func buildBody() ([]byte, error) {
	var body []byte
	switch {
	case reqData != "" && reqDataFile != "":
		return nil, fmt.Errorf("--data and --data-file are mutually exclusive")
	case reqData != "":
		body = []byte(reqData)
	case reqDataFile != "":
		b, err := os.ReadFile(reqDataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		body = b
	}

	if len(reqSets) == 0 {
		return body, nil
	}

	if len(body) == 0 {
		body = []byte("{}")
	}
	for _, set := range reqSets {
		path, value, ok := strings.Cut(set, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("--set %q is not in path=value form", set)
		}
		var err error
		// A value that parses as JSON keeps its type; anything else
		// becomes a string.
		if json.Valid([]byte(value)) {
			body, err = sjson.SetRawBytes(body, path, []byte(value))
		} else {
			body, err = sjson.SetBytes(body, path, value)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to apply --set %s: %w", path, err)
		}
	}
	return body, nil
}

func buildAuth(cfg *config.AppConfig) (runner.Auth, error) {
	switch {
	case reqBearer != "":
		return runner.BearerAuth{Token: reqBearer}, nil
	case reqAPIKey != "":
		return runner.APIKeyAuth{Key: reqAPIKey, Header: reqKeyHeader}, nil
	case reqBasic != "":
		user, pass, ok := strings.Cut(reqBasic, ":")
		if !ok || user == "" {
			return nil, fmt.Errorf("--basic credentials are not in user:pass form")
		}
		return runner.BasicAuth{Username: user, Password: pass}, nil
	}
	return runner.AuthFromConfig(cfg.Auth)
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return false
	}
	return json.Valid(trimmed)
}

func printResultJSON(res domain.Result) {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		slog.Error("Failed to encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func printResult(res domain.Result) {
	fmt.Printf("%s %s\n", res.Method, res.URL)

	if res.StatusCode > 0 {
		fmt.Printf("status:   %d %s\n", res.StatusCode, http.StatusText(res.StatusCode))
	} else if res.Error != "" {
		fmt.Printf("error:    %s\n", res.Error)
	}
	fmt.Printf("attempts: %d\n", res.Attempts)
	fmt.Printf("elapsed:  %s\n", res.Elapsed.Round(time.Millisecond))
	if res.Size > 0 {
		fmt.Printf("size:     %s\n", humanize.Bytes(uint64(res.Size)))
	}

	if len(res.Trace) > 1 {
		fmt.Printf("trace:    %s\n", formatTrace(res.Trace))
	}

	if d := res.Diagnosis; d != nil {
		fmt.Println()
		fmt.Printf("issue: %s [%s/%s]\n", d.Issue, d.Category, d.Severity)
		fmt.Printf("cause: %s\n", d.Cause)
		fmt.Printf("try:   %s\n", d.Suggestion)
	}

	if body := formatBody(res.Body); body != "" {
		fmt.Println()
		fmt.Println(body)
	}
}

func formatTrace(trace []domain.Attempt) string {
	parts := make([]string, 0, len(trace))
	for _, a := range trace {
		if a.Responded() {
			parts = append(parts, fmt.Sprintf("#%d %d (%s)", a.Number, a.StatusCode, a.Elapsed.Round(time.Millisecond)))
		} else {
			parts = append(parts, fmt.Sprintf("#%d %s (%s)", a.Number, a.ErrorKind, a.Elapsed.Round(time.Millisecond)))
		}
	}
	return strings.Join(parts, ", ")
}

func formatBody(body []byte) string {
	if len(body) == 0 || !utf8.Valid(body) {
		return ""
	}
	if looksLikeJSON(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err == nil {
			return buf.String()
		}
	}
	return string(body)
}

// saveHistory persists records when history is enabled. Failures are logged
// and never affect the command's outcome.
func saveHistory(ctx context.Context, cfg *config.AppConfig, recs ...history.Record) {
	if !cfg.History.Enabled || len(recs) == 0 {
		return
	}

	store, err := history.OpenSQLite(ctx, cfg.History)
	if err != nil {
		slog.Warn("Failed to open history store", "error", err)
		return
	}
	defer func() {
		_ = store.Close()
	}()

	if err := store.SaveBatch(ctx, recs); err != nil {
		slog.Warn("Failed to save history", "error", err)
	}
}
