package assemble

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/markdown"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// Generator marks files written by the assembler; only marked files are ever removed.
const Generator = "codetutor"

// IndexFile is the name of the tutorial's entry page.
const IndexFile = "index.md"

var chapterFilePattern = regexp.MustCompile(`^[0-9]{2,}_.*\.md$`)

// Input is everything the assembler needs. Chapters is aligned with Order.
type Input struct {
	Project      string
	Source       string
	Summary      string
	Abstractions []models.Abstraction
	Edges        []models.Edge
	Order        []int
	Chapters     []string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Project) == "" {
		return errors.New("project name is empty")
	}
	if len(in.Chapters) != len(in.Order) {
		return fmt.Errorf("%d chapters for %d positions in the chapter order", len(in.Chapters), len(in.Order))
	}
	if err := models.ValidatePermutation(in.Order, len(in.Abstractions)); err != nil {
		return err
	}
	return models.ValidateEdges(in.Edges, len(in.Abstractions))
}

// Assembler renders and writes tutorials.
type Assembler struct{}

// New creates an Assembler.
func New() *Assembler { return &Assembler{} }

// ChapterFilename returns the file name for the chapter at 1-based position number.
func ChapterFilename(number int, name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteByte('_')
		}
	}
	return fmt.Sprintf("%02d_%s.md", number, sb.String())
}

// Write renders the tutorial into dir. Files from an earlier run into the
// same directory are replaced; files the assembler did not write are kept.
func (a *Assembler) Write(dir string, in Input) error {
	if err := in.validate(); err != nil {
		return ferrors.ValidationError("tutorial input is inconsistent").WithCause(err).Build()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ferrors.FileSystemError("create output directory").WithCause(err).WithContext("path", dir).Build()
	}
	removed, err := removeGenerated(dir)
	if err != nil {
		return err
	}

	docs, err := render(in)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := writeAtomic(filepath.Join(dir, d.name), d.content); err != nil {
			return err
		}
	}
	slog.Info("Tutorial written", logfields.Path(dir), logfields.Count(len(in.Chapters)), slog.Int("replaced", removed))
	return nil
}

type document struct {
	name    string
	content []byte
}

func render(in Input) ([]document, error) {
	filenames := make([]string, len(in.Order))
	for k, idx := range in.Order {
		filenames[k] = ChapterFilename(k+1, in.Abstractions[idx].Name)
	}

	indexBody := renderIndex(in, filenames)
	if err := checkIndexLinks(indexBody, filenames); err != nil {
		return nil, ferrors.InternalError("rendered index is inconsistent").WithCause(err).Build()
	}
	index, err := renderDocument(map[string]any{
		keyGenerator: Generator,
		keyTitle:     "Tutorial: " + in.Project,
	}, indexBody)
	if err != nil {
		return nil, ferrors.InternalError("render index frontmatter").WithCause(err).Build()
	}
	docs := []document{{name: IndexFile, content: index}}

	for k, idx := range in.Order {
		name := in.Abstractions[idx].Name
		body := renderChapter(in, k, filenames)
		content, err := renderDocument(map[string]any{
			keyGenerator: Generator,
			keyTitle:     name,
			keyWeight:    k + 1,
			keyUID:       chapterUID(in.Project, name),
		}, body)
		if err != nil {
			return nil, ferrors.InternalError("render chapter frontmatter").WithCause(err).WithContext("chapter", k+1).Build()
		}
		docs = append(docs, document{name: filenames[k], content: content})
	}
	return docs, nil
}

func chapterUID(project, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("codetutor:"+project+"/"+name)).String()
}

func renderIndex(in Input, filenames []string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Tutorial: %s\n\n", in.Project)
	if s := strings.TrimSpace(in.Summary); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}
	if in.Source != "" {
		fmt.Fprintf(&sb, "**Source:** `%s`\n\n", in.Source)
	}

	sb.WriteString("```mermaid\nflowchart TD\n")
	for i, a := range in.Abstractions {
		fmt.Fprintf(&sb, "    A%d[\"%s\"]\n", i, mermaidText(a.Name))
	}
	for _, e := range in.Edges {
		fmt.Fprintf(&sb, "    A%d -- \"%s\" --> A%d\n", e.Source, mermaidText(e.Label), e.Target)
	}
	sb.WriteString("```\n\n## Chapters\n\n")
	for k, idx := range in.Order {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", k+1, linkText(in.Abstractions[idx].Name), filenames[k])
	}
	sb.WriteString(footer)
	return []byte(sb.String())
}

const footer = "\n---\n\nGenerated by codetutor\n"

func mermaidText(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	return strings.Join(strings.Fields(s), " ")
}

var linkTextEscaper = strings.NewReplacer("[", "\\[", "]", "\\]")

func linkText(s string) string { return linkTextEscaper.Replace(s) }

func renderChapter(in Input, k int, filenames []string) []byte {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(in.Chapters[k], "\n"))
	sb.WriteString("\n\n---\n\n")

	nav := make([]string, 0, 3)
	if k > 0 {
		nav = append(nav, fmt.Sprintf("Previous: [%s](%s)", linkText(in.Abstractions[in.Order[k-1]].Name), filenames[k-1]))
	}
	if k < len(in.Order)-1 {
		nav = append(nav, fmt.Sprintf("Next: [%s](%s)", linkText(in.Abstractions[in.Order[k+1]].Name), filenames[k+1]))
	}
	nav = append(nav, fmt.Sprintf("[Index](%s)", IndexFile))
	sb.WriteString(strings.Join(nav, " | "))
	sb.WriteString("\n")
	sb.WriteString(footer)
	return []byte(sb.String())
}

// checkIndexLinks verifies the table of contents links every chapter exactly once.
func checkIndexLinks(body []byte, filenames []string) error {
	links, err := markdown.ExtractLinks(body, markdown.Options{})
	if err != nil {
		return err
	}
	want := make(map[string]int, len(filenames))
	for _, f := range filenames {
		want[f] = 0
	}
	for _, l := range links {
		if _, ok := want[l.Destination]; ok {
			want[l.Destination]++
		}
	}
	for _, f := range filenames {
		if want[f] != 1 {
			return fmt.Errorf("index links %s %d times", f, want[f])
		}
	}
	return nil
}

// removeGenerated deletes the index and chapter files a previous run wrote.
func removeGenerated(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, ferrors.FileSystemError("read output directory").WithCause(err).WithContext("path", dir).Build()
	}
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if name != IndexFile && !chapterFilePattern.MatchString(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if !isGenerated(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, ferrors.FileSystemError("remove previous output").WithCause(err).WithContext("path", path).Build()
		}
		removed++
	}
	return removed, nil
}

func isGenerated(path string) bool {
	// #nosec G304 -- path comes from a directory listing of the output directory
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	fm, _, had, err := splitFrontmatter(data)
	if err != nil || !had {
		return false
	}
	fields, err := parseFrontmatter(fm)
	if err != nil {
		return false
	}
	gen, _ := fields[keyGenerator].(string)
	return gen == Generator
}

func writeAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".codetutor-*.tmp")
	if err != nil {
		return ferrors.FileSystemError("create temp file").WithCause(err).WithContext("path", path).Build()
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return ferrors.FileSystemError("write temp file").WithCause(err).WithContext("path", path).Build()
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return ferrors.FileSystemError("chmod temp file").WithCause(err).WithContext("path", path).Build()
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ferrors.FileSystemError("close temp file").WithCause(err).WithContext("path", path).Build()
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return ferrors.FileSystemError("rename output file").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
