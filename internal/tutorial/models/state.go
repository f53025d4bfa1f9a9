package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFieldFinalized is returned when a stage writes a field an earlier write already finalized.
var ErrFieldFinalized = errors.New("field already finalized")

// ErrPrerequisite is returned when a field is written before the fields it depends on.
var ErrPrerequisite = errors.New("prerequisite field not set")

// Field names a monotonic RunState field.
type Field string

const (
	FieldProjectName    Field = "project_name"
	FieldFiles          Field = "files"
	FieldAbstractions   Field = "abstractions"
	FieldRelationships  Field = "relationships"
	FieldChapterOrder   Field = "chapter_order"
	FieldChapters       Field = "chapters"
	FieldFinalOutputDir Field = "final_output_dir"
)

// SourceInfo describes where the run reads from.
type SourceInfo struct {
	RepoURL  string
	Token    string // never part of the diagnostic dump
	LocalDir string
	File     string
	URL      string // original --url argument when File was derived from it
	Name     string // requested project name, empty to derive one
}

// Location returns the user-facing description of the source.
func (s SourceInfo) Location() string {
	switch {
	case s.URL != "":
		return s.URL
	case s.RepoURL != "":
		return s.RepoURL
	case s.LocalDir != "":
		return s.LocalDir
	default:
		return s.File
	}
}

// SelectionParams are the file selection parameters.
type SelectionParams struct {
	Include     []string
	Exclude     []string
	MaxFileSize int64
}

// RunState is the context threaded through every stage of one run.
// It is owned by the orchestrator and written by one stage at a time.
// Fields fill monotonically: each setter refuses to overwrite a finalized field.
type RunState struct {
	RunID      string
	Source     SourceInfo
	Selection  SelectionParams
	Language   string
	OutputRoot string
	Report     *RunReport

	phase      Phase
	chapterPos int
	failedAt   string
	writer     StageName

	projectName    string
	files          []File
	abstractions   []Abstraction
	relationships  *Relationships
	chapterOrder   []int
	chapters       []string
	finalOutputDir string

	finalized map[Field]StageName
}

// NewRunState creates the state for a new run in phase SELECTING.
func NewRunState(runID string) *RunState {
	return &RunState{
		RunID:      runID,
		Report:     NewRunReport(runID),
		phase:      PhaseSelecting,
		chapterPos: 0,
		finalized:  make(map[Field]StageName),
	}
}

// BeginStage records which stage is writing; used to attribute finalized fields.
func (s *RunState) BeginStage(stage StageName) { s.writer = stage }

// FinalizedBy returns the stage that finalized f.
func (s *RunState) FinalizedBy(f Field) (StageName, bool) {
	st, ok := s.finalized[f]
	return st, ok
}

func (s *RunState) checkOpen(f Field) error {
	if by, ok := s.finalized[f]; ok {
		return fmt.Errorf("%w: %s (finalized by %s)", ErrFieldFinalized, f, by)
	}
	return nil
}

func (s *RunState) finalize(f Field) { s.finalized[f] = s.writer }

// SetProjectName sets the project name once. An empty name is ignored.
func (s *RunState) SetProjectName(name string) error {
	if err := s.checkOpen(FieldProjectName); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	s.projectName = name
	s.finalize(FieldProjectName)
	return nil
}

// SetFiles stores the selected files. The selection must not be empty.
func (s *RunState) SetFiles(files []File) error {
	if err := s.checkOpen(FieldFiles); err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("files: selection is empty")
	}
	s.files = append([]File(nil), files...)
	s.finalize(FieldFiles)
	return nil
}

// SetAbstractions stores the identified abstractions after validating file indices.
func (s *RunState) SetAbstractions(abs []Abstraction) error {
	if err := s.checkOpen(FieldAbstractions); err != nil {
		return err
	}
	if _, ok := s.finalized[FieldFiles]; !ok {
		return fmt.Errorf("%w: abstractions need files", ErrPrerequisite)
	}
	if err := ValidateAbstractions(abs, len(s.files)); err != nil {
		return err
	}
	out := make([]Abstraction, len(abs))
	for i, a := range abs {
		a.FileIndices = append([]int(nil), a.FileIndices...)
		out[i] = a
	}
	s.abstractions = out
	s.finalize(FieldAbstractions)
	return nil
}

// SetRelationships stores the summary and edges after validating endpoints.
func (s *RunState) SetRelationships(rel Relationships) error {
	if err := s.checkOpen(FieldRelationships); err != nil {
		return err
	}
	if _, ok := s.finalized[FieldAbstractions]; !ok {
		return fmt.Errorf("%w: relationships need abstractions", ErrPrerequisite)
	}
	if err := ValidateEdges(rel.Edges, len(s.abstractions)); err != nil {
		return err
	}
	rel.Edges = append([]Edge(nil), rel.Edges...)
	s.relationships = &rel
	s.finalize(FieldRelationships)
	return nil
}

// SetChapterOrder stores the chapter order; it must be a permutation of the abstraction indices.
func (s *RunState) SetChapterOrder(order []int) error {
	if err := s.checkOpen(FieldChapterOrder); err != nil {
		return err
	}
	if _, ok := s.finalized[FieldAbstractions]; !ok {
		return fmt.Errorf("%w: chapter order needs abstractions", ErrPrerequisite)
	}
	if err := ValidatePermutation(order, len(s.abstractions)); err != nil {
		return err
	}
	s.chapterOrder = append([]int(nil), order...)
	s.finalize(FieldChapterOrder)
	return nil
}

// AppendChapter appends the next chapter. Chapters are finalized once every
// position in the chapter order has one; earlier chapters are never rewritten.
func (s *RunState) AppendChapter(text string) error {
	if err := s.checkOpen(FieldChapters); err != nil {
		return err
	}
	if _, ok := s.finalized[FieldChapterOrder]; !ok {
		return fmt.Errorf("%w: chapters need a chapter order", ErrPrerequisite)
	}
	s.chapters = append(s.chapters, text)
	if len(s.chapters) == len(s.chapterOrder) {
		s.finalize(FieldChapters)
	}
	return nil
}

// SetFinalOutputDir records where the tutorial was written.
func (s *RunState) SetFinalOutputDir(dir string) error {
	if err := s.checkOpen(FieldFinalOutputDir); err != nil {
		return err
	}
	if _, ok := s.finalized[FieldChapters]; !ok {
		return fmt.Errorf("%w: output needs every chapter", ErrPrerequisite)
	}
	s.finalOutputDir = dir
	s.finalize(FieldFinalOutputDir)
	return nil
}

// ProjectName returns the project name, empty until set.
func (s *RunState) ProjectName() string { return s.projectName }

// Files returns the selected files. Callers must not modify the slice.
func (s *RunState) Files() []File { return s.files }

// Abstractions returns the identified abstractions. Callers must not modify the slice.
func (s *RunState) Abstractions() []Abstraction { return s.abstractions }

// Relationships returns the relationship graph, or nil before it is mapped.
func (s *RunState) Relationships() *Relationships { return s.relationships }

// ChapterOrder returns the chapter order. Callers must not modify the slice.
func (s *RunState) ChapterOrder() []int { return s.chapterOrder }

// Chapters returns the chapters written so far, aligned with ChapterOrder.
func (s *RunState) Chapters() []string { return s.chapters }

// ChaptersComplete reports whether every position in the chapter order has a chapter.
func (s *RunState) ChaptersComplete() bool {
	_, ok := s.finalized[FieldChapters]
	return ok
}

// FinalOutputDir returns the output directory, empty until the tutorial is written.
func (s *RunState) FinalOutputDir() string { return s.finalOutputDir }

// Scalar is one key/value pair of the diagnostic dump.
type Scalar struct {
	Key   string
	Value string
}

// Scalars returns the scalar fields of the state in a stable order.
func (s *RunState) Scalars() []Scalar {
	order := make([]string, len(s.chapterOrder))
	for i, idx := range s.chapterOrder {
		order[i] = strconv.Itoa(idx)
	}
	relEdges := 0
	if s.relationships != nil {
		relEdges = len(s.relationships.Edges)
	}
	out := []Scalar{
		{"run_id", s.RunID},
		{"phase", s.PhaseString()},
		{"failed_at", s.failedAt},
		{"repo_url", s.Source.RepoURL},
		{"local_dir", s.Source.LocalDir},
		{"single_file", s.Source.File},
		{"url", s.Source.URL},
		{"project_name", s.projectName},
		{"language", s.Language},
		{"output_root", s.OutputRoot},
		{"include_patterns", strings.Join(s.Selection.Include, ",")},
		{"exclude_patterns", strings.Join(s.Selection.Exclude, ",")},
		{"max_file_size", strconv.FormatInt(s.Selection.MaxFileSize, 10)},
		{"files", strconv.Itoa(len(s.files))},
		{"abstractions", strconv.Itoa(len(s.abstractions))},
		{"relationships", strconv.Itoa(relEdges)},
		{"chapter_order", "[" + strings.Join(order, ",") + "]"},
		{"chapters", fmt.Sprintf("%d/%d", len(s.chapters), len(s.chapterOrder))},
		{"final_output_dir", s.finalOutputDir},
	}
	return out
}
