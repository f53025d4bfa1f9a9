package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codetutor/internal/config"
	"git.home.luguber.info/inful/codetutor/internal/llm/llmtest"
	"git.home.luguber.info/inful/codetutor/internal/retry"
	"git.home.luguber.info/inful/codetutor/internal/source"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// Substrings that identify each prompt template.
const (
	identifyPrompt      = "Identify the top"
	relationshipsPrompt = "high-level `summary`"
	orderPrompt         = "best order to explain"
	chapterPrompt       = "Write a very beginner-friendly tutorial chapter"
)

func chapterFor(name string) string {
	return fmt.Sprintf("about the concept: %q", name)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "widget")
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

type sleepRecorder struct{ delays []time.Duration }

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

type fixture struct {
	script *llmtest.Script
	sleeps *sleepRecorder
	stages *Stages
	state  *models.RunState
}

func newFixture(t *testing.T, dir string, script *llmtest.Script) *fixture {
	t.Helper()
	sleeps := &sleepRecorder{}
	st := models.NewRunState("run-test")
	st.Source = models.SourceInfo{LocalDir: dir}
	st.Selection = models.SelectionParams{
		Include:     config.DefaultIncludePatterns,
		Exclude:     config.DefaultExcludePatterns,
		MaxFileSize: 100_000,
	}
	st.Language = "english"
	st.OutputRoot = filepath.Join(t.TempDir(), "output")

	s := New(Deps{
		Selector:  source.NewSelector(nil),
		Generator: script,
		Policy:    retry.NewPolicy(config.RetryBackoffFixed, 10*time.Millisecond, 10*time.Millisecond, 2),
		Sleep:     sleeps.sleep,
	})
	return &fixture{script: script, sleeps: sleeps, stages: s, state: st}
}

func (f *fixture) run(ctx context.Context) error {
	return RunStages(ctx, f.state, f.stages.Pipeline(), nil, nil)
}

// abstractionsYAML renders an identification answer for names, each covering file 0.
func abstractionsYAML(names ...string) string {
	var sb strings.Builder
	sb.WriteString("```yaml\n")
	for _, n := range names {
		fmt.Fprintf(&sb, "- name: %s\n  description: The %s part.\n  file_indices:\n    - 0 # first\n", n, n)
	}
	sb.WriteString("```\n")
	return sb.String()
}

func relationshipsYAML(n int) string {
	var sb strings.Builder
	sb.WriteString("```yaml\nsummary: |\n  A small **widget** project.\nrelationships:\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "  - from_abstraction: %d\n    to_abstraction: %d\n    label: \"Uses\"\n", i, (i+1)%n)
	}
	sb.WriteString("```\n")
	return sb.String()
}

func orderYAML(order ...int) string {
	var sb strings.Builder
	sb.WriteString("```yaml\n")
	for _, i := range order {
		fmt.Fprintf(&sb, "- %d\n", i)
	}
	sb.WriteString("```\n")
	return sb.String()
}

func text(s string) llmtest.Reply { return llmtest.Reply{Text: s} }

func failure(err error) llmtest.Reply { return llmtest.Reply{Err: err} }
