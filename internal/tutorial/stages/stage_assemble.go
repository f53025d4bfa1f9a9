package stages

import (
	"context"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/codetutor/internal/assemble"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// fallbackProjectName names the output directory when no project name could be derived.
const fallbackProjectName = "tutorial"

// AssembleTutorial writes the index and chapter files under <output root>/<project>.
func (s *Stages) AssembleTutorial(_ context.Context, st *models.RunState) error {
	project := st.ProjectName()
	if project == "" {
		project = fallbackProjectName
	}
	dir := filepath.Join(st.OutputRoot, projectDirName(project))

	rel := st.Relationships()
	in := assemble.Input{
		Project:      project,
		Source:       st.Source.Location(),
		Abstractions: st.Abstractions(),
		Order:        st.ChapterOrder(),
		Chapters:     st.Chapters(),
	}
	if rel != nil {
		in.Summary = rel.Summary
		in.Edges = rel.Edges
	}
	if err := s.deps.Assembler.Write(dir, in); err != nil {
		return err
	}
	if err := st.SetFinalOutputDir(dir); err != nil {
		return err
	}
	st.Report.OutputDir = dir
	return nil
}

// projectDirName reduces a project name to one path segment below the output
// root. Names come from flags and remote page titles, so separators are
// replaced and dot-only names fall back to the default.
func projectDirName(name string) string {
	seg := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == 0:
			return '_'
		case r < 0x20:
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))
	if strings.Trim(seg, ". ") == "" {
		return fallbackProjectName
	}
	return seg
}
