package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

func sampleInput() Input {
	return Input{
		Project: "widget",
		Source:  "/src/widget",
		Summary: "A **tiny** tool.",
		Abstractions: []models.Abstraction{
			{Name: "Parser", Description: "Reads input."},
			{Name: "Output \"Printer\"", Description: "Writes output."},
		},
		Edges:    []models.Edge{{Source: 0, Target: 1, Label: "Feeds"}},
		Order:    []int{1, 0},
		Chapters: []string{"# Chapter 1: Printer\n\nPrints things.\n", "# Chapter 2: Parser\n\nParses things.\n"},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestChapterFilename(t *testing.T) {
	cases := map[string]struct {
		number int
		name   string
		want   string
	}{
		"simple":      {1, "Parser", "01_parser.md"},
		"spaces":      {2, "Query Engine", "02_query_engine.md"},
		"punctuation": {12, "I/O (Core)", "12_i_o__core_.md"},
		"unicode":     {3, "Über Flow", "03_über_flow.md"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ChapterFilename(tc.number, tc.name); got != tc.want {
				t.Fatalf("ChapterFilename(%d, %q) = %q, want %q", tc.number, tc.name, got, tc.want)
			}
		})
	}
}

func TestWriteLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "widget")
	require.NoError(t, New().Write(dir, sampleInput()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{"01_output__printer_.md", "02_parser.md", "index.md"}, names)

	index := readFile(t, filepath.Join(dir, IndexFile))
	require.Contains(t, index, "# Tutorial: widget\n\nA **tiny** tool.")
	require.Contains(t, index, "flowchart TD")
	require.Contains(t, index, `A1["Output #quot;Printer#quot;"]`)
	require.Contains(t, index, `A0 -- "Feeds" --> A1`)
	require.Contains(t, index, "1. [Output \"Printer\"](01_output__printer_.md)\n2. [Parser](02_parser.md)\n")
	require.True(t, strings.HasSuffix(index, "Generated by codetutor\n"))

	first := readFile(t, filepath.Join(dir, "01_output__printer_.md"))
	require.True(t, strings.HasPrefix(first, "---\n"))
	require.Contains(t, first, "weight: 1\n")
	require.Contains(t, first, "fingerprint: ")
	require.Contains(t, first, "uid: ")
	require.Contains(t, first, "Next: [Parser](02_parser.md) | [Index](index.md)")
	require.NotContains(t, first, "Previous:")

	second := readFile(t, filepath.Join(dir, "02_parser.md"))
	require.Contains(t, second, "Previous: [Output \"Printer\"](01_output__printer_.md) | [Index](index.md)")
	require.NotContains(t, second, "Next:")
}

func TestWriteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := sampleInput()
	require.NoError(t, New().Write(dir, in))

	before := map[string]string{}
	for _, name := range []string{IndexFile, "01_output__printer_.md", "02_parser.md"} {
		before[name] = readFile(t, filepath.Join(dir, name))
	}

	require.NoError(t, New().Write(dir, in))
	for name, content := range before {
		require.Equal(t, content, readFile(t, filepath.Join(dir, name)), name)
	}
}

func TestWriteReplacesOnlyGeneratedFiles(t *testing.T) {
	dir := t.TempDir()
	in := sampleInput()
	in.Abstractions = append(in.Abstractions, models.Abstraction{Name: "Extra"})
	in.Order = []int{1, 0, 2}
	in.Chapters = append(in.Chapters, "# Chapter 3: Extra\n")
	require.NoError(t, New().Write(dir, in))
	require.FileExists(t, filepath.Join(dir, "03_extra.md"))

	notes := filepath.Join(dir, "99_notes.md")
	require.NoError(t, os.WriteFile(notes, []byte("# my notes\n"), 0o600))

	require.NoError(t, New().Write(dir, sampleInput()))
	require.NoFileExists(t, filepath.Join(dir, "03_extra.md"))
	require.FileExists(t, notes)
}

func TestFingerprintTracksBody(t *testing.T) {
	dir := t.TempDir()
	in := sampleInput()
	require.NoError(t, New().Write(dir, in))
	a := readFile(t, filepath.Join(dir, "02_parser.md"))

	in.Chapters[1] = "# Chapter 2: Parser\n\nParses more things.\n"
	require.NoError(t, New().Write(dir, in))
	b := readFile(t, filepath.Join(dir, "02_parser.md"))

	fpA := frontmatterValue(t, a, "fingerprint")
	fpB := frontmatterValue(t, b, "fingerprint")
	require.NotEmpty(t, fpA)
	require.NotEqual(t, fpA, fpB)
	require.Equal(t, frontmatterValue(t, a, "uid"), frontmatterValue(t, b, "uid"))
}

func frontmatterValue(t *testing.T, doc, key string) string {
	t.Helper()
	fm, _, had, err := splitFrontmatter([]byte(doc))
	require.NoError(t, err)
	require.True(t, had)
	fields, err := parseFrontmatter(fm)
	require.NoError(t, err)
	v, _ := fields[key].(string)
	return v
}

func TestWriteRejectsInconsistentInput(t *testing.T) {
	in := sampleInput()
	in.Chapters = in.Chapters[:1]
	err := New().Write(t.TempDir(), in)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	in = sampleInput()
	in.Order = []int{0, 0}
	require.Error(t, New().Write(t.TempDir(), in))
}

func TestSplitFrontmatter(t *testing.T) {
	fm, body, had, err := splitFrontmatter([]byte("---\ntitle: x\n---\n# Body\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: x\n", string(fm))
	require.Equal(t, "# Body\n", string(body))

	_, body, had, err = splitFrontmatter([]byte("# No frontmatter\n"))
	require.NoError(t, err)
	require.False(t, had)
	require.Equal(t, "# No frontmatter\n", string(body))

	_, _, _, err = splitFrontmatter([]byte("---\ntitle: x\n"))
	require.ErrorIs(t, err, errMissingClosingDelimiter)
}
