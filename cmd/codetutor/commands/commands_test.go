package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alecthomas/kong"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codetutor/internal/config"
	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/journal"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("codetutor"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatalf("unexpected exit") }),
	)
	require.NoError(t, err)
	return parser
}

func TestGenerateIsDefaultCommand(t *testing.T) {
	var cli CLI
	kctx, err := newParser(t, &cli).Parse([]string{"--dir", t.TempDir(), "-n", "Widget", "-i", "*.go", "-i", "*.md"})
	require.NoError(t, err)
	require.Equal(t, "generate", kctx.Command())
	require.Equal(t, "Widget", cli.Generate.Name)
	require.Equal(t, []string{"*.go", "*.md"}, cli.Generate.Include)
	require.Equal(t, -1, cli.Generate.MaxRetries)
}

func TestGenerateRequiresExactlyOneSource(t *testing.T) {
	tests := []struct {
		name string
		args []string
		ok   bool
	}{
		{"none", []string{"generate"}, false},
		{"dir", []string{"generate", "--dir", "."}, true},
		{"repo", []string{"generate", "--repo", "acme/widget"}, true},
		{"two", []string{"generate", "--dir", ".", "--url", "https://example.com"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cli CLI
			_, err := newParser(t, &cli).Parse(tc.args)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	g := &GenerateCmd{
		Output:          "out",
		Exclude:         []string{"vendor/*"},
		MaxSize:         42,
		Language:        "french",
		MaxAbstractions: 4,
		Model:           "m",
		MaxRetries:      0,
		NATSURL:         "nats://localhost:4222",
	}
	g.applyOverrides(cfg)

	require.Equal(t, "out", cfg.Output.Directory)
	require.Equal(t, []string{"vendor/*"}, cfg.Source.Exclude)
	require.Equal(t, config.DefaultIncludePatterns, cfg.Source.Include)
	require.Equal(t, int64(42), cfg.Source.MaxFileSize)
	require.Equal(t, "french", cfg.Tutorial.Language)
	require.Equal(t, 4, cfg.Tutorial.MaxAbstractions)
	require.Equal(t, "m", cfg.LLM.Model)
	require.Equal(t, 0, cfg.Retry.MaxRetries)
	require.Equal(t, config.DefaultNATSSubject, cfg.Observability.NATSSubject)

	unchanged := config.Default()
	(&GenerateCmd{MaxRetries: -1}).applyOverrides(unchanged)
	require.Equal(t, config.Default().Retry.MaxRetries, unchanged.Retry.MaxRetries)
}

// fakeModel serves chat completions, answering each pipeline prompt.
func fakeModel(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if status != http.StatusOK {
			http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, status)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": answer(req.Messages[0].Content)},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func answer(prompt string) string {
	switch {
	case strings.Contains(prompt, "Write a very beginner-friendly tutorial chapter"):
		for _, name := range []string{"Printer", "Parser"} {
			if strings.Contains(prompt, fmt.Sprintf("about the concept: %q", name)) {
				return fmt.Sprintf("# %s\n\nHow the %s works.\n", name, strings.ToLower(name))
			}
		}
		return "# Unknown\n"
	case strings.Contains(prompt, "best order to explain"):
		return "```yaml\n- 1\n- 0\n```\n"
	case strings.Contains(prompt, "high-level `summary`"):
		return "```yaml\nsummary: Prints what it parses.\nrelationships:\n" +
			"  - from_abstraction: 0 # Printer\n    to_abstraction: 1 # Parser\n    label: Reads\n```\n"
	case strings.Contains(prompt, "Identify the top"):
		return "```yaml\n" +
			"- name: Printer\n  description: Writes output.\n  file_indices: [0]\n" +
			"- name: Parser\n  description: Reads input.\n  file_indices: [\"1 # pkg/parse.go\"]\n```\n"
	}
	return ""
}

func writeSource(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "widget")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "parse.go"), []byte("package pkg\n"), 0o600))
	return dir
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codetutor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: test-model\n  api_key: k\n"), 0o600))
	return path
}

func TestGenerateEndToEnd(t *testing.T) {
	srv, calls := fakeModel(t, http.StatusOK)
	tmp := t.TempDir()
	g := &GenerateCmd{
		Dir:         writeSource(t),
		Name:        "Widget",
		Output:      filepath.Join(tmp, "out"),
		BaseURL:     srv.URL + "/v1",
		MaxRetries:  0,
		Report:      filepath.Join(tmp, "report.json"),
		MetricsFile: filepath.Join(tmp, "codetutor.prom"),
		Journal:     filepath.Join(tmp, "runs.db"),
	}
	require.NoError(t, g.Validate())
	require.NoError(t, g.Run(&Global{Context: t.Context()}, &CLI{Config: writeConfig(t)}))
	require.Equal(t, int32(5), calls.Load())

	outDir := filepath.Join(tmp, "out", "Widget")
	index, err := os.ReadFile(filepath.Join(outDir, "index.md"))
	require.NoError(t, err)
	require.Contains(t, string(index), "# Tutorial: Widget")
	require.Contains(t, string(index), "1. [Parser](01_parser.md)")
	require.FileExists(t, filepath.Join(outDir, "02_printer.md"))

	var report map[string]any
	data, err := os.ReadFile(g.Report)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &report))
	require.Equal(t, "success", report["outcome"])

	metrics, err := os.ReadFile(g.MetricsFile)
	require.NoError(t, err)
	require.Contains(t, string(metrics), "codetutor_")

	store, err := journal.OpenSQLite(g.Journal)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := journal.Runs(t.Context(), store, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "success", runs[0].Outcome)

	var buf bytes.Buffer
	cmd := &RunsCmd{Journal: g.Journal, out: &buf}
	require.NoError(t, cmd.Run(&Global{}, &CLI{}))
	require.Contains(t, buf.String(), runs[0].RunID)
	require.Contains(t, buf.String(), "success")

	buf.Reset()
	cmd = &RunsCmd{Journal: g.Journal, RunID: runs[0].RunID, out: &buf}
	require.NoError(t, cmd.Run(&Global{}, &CLI{}))
	require.Contains(t, buf.String(), journal.TypeRunStarted)
	require.Contains(t, buf.String(), journal.TypeRunCompleted)
}

func TestGenerateServiceUnavailableExitsWithTwo(t *testing.T) {
	srv, calls := fakeModel(t, http.StatusServiceUnavailable)
	tmp := t.TempDir()
	g := &GenerateCmd{
		Dir:        writeSource(t),
		Output:     filepath.Join(tmp, "out"),
		BaseURL:    srv.URL + "/v1",
		MaxRetries: 0,
		Report:     filepath.Join(tmp, "report.json"),
	}
	err := g.Run(&Global{Context: t.Context()}, &CLI{Config: writeConfig(t)})
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())

	var buf bytes.Buffer
	code := ferrors.NewCLIErrorAdapter(false, nil).Report(&buf, err)
	require.Equal(t, ferrors.ExitServiceUnavailable, code)
	require.Contains(t, buf.String(), "ERROR: service_transient")
	require.Contains(t, buf.String(), "temporarily unavailable")
	require.Contains(t, buf.String(), "Diagnostics:")
	require.FileExists(t, g.Report)
	require.NoDirExists(t, filepath.Join(tmp, "out", "widget"))
}

func TestSourceInfoNamesDownloadAfterURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("# Guide\n"))
	}))
	defer srv.Close()

	g := &GenerateCmd{URL: srv.URL + "/docs/guide.md"}
	info, err := g.sourceInfo(t.Context(), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "guide", info.Name)
	require.Equal(t, g.URL, info.URL)
	require.NotEmpty(t, info.File)

	g.Name = "Widget"
	info, err = g.sourceInfo(t.Context(), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "Widget", info.Name)
}

func TestRunsFlagSelectsRun(t *testing.T) {
	var cli CLI
	kctx, err := newParser(t, &cli).Parse([]string{"runs", "--journal", "runs.db", "--run", "abc"})
	require.NoError(t, err)
	require.Equal(t, "runs", kctx.Command())
	require.Equal(t, "abc", cli.Runs.RunID)
}

func TestRunsWithoutJournal(t *testing.T) {
	err := (&RunsCmd{Journal: filepath.Join(t.TempDir(), "missing.db")}).Run(&Global{}, &CLI{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, (&InitCmd{Output: dir}).Run(&Global{}, &CLI{}))
	cfg, err := config.Load(filepath.Join(dir, config.DefaultConfigPath), true)
	require.NoError(t, err)
	require.Equal(t, config.DefaultModel, cfg.LLM.Model)

	require.Error(t, (&InitCmd{Output: dir}).Run(&Global{}, &CLI{}))
	require.NoError(t, (&InitCmd{Output: dir, Force: true}).Run(&Global{}, &CLI{}))
}
