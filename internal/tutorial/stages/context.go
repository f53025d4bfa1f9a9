package stages

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/codetutor/internal/prompt"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// promptFiles converts the files at indices into prompt files, keeping their
// run-wide index so the model refers to them consistently.
func promptFiles(files []models.File, indices []int) []prompt.File {
	out := make([]prompt.File, 0, len(indices))
	for _, i := range indices {
		out = append(out, prompt.File{Index: i, Path: files[i].Path, Content: files[i].Content})
	}
	return out
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// abstractionListing renders "- i # name" lines.
func abstractionListing(abs []models.Abstraction) string {
	var sb strings.Builder
	for i, a := range abs {
		fmt.Fprintf(&sb, "- %d # %s\n", i, a.Name)
	}
	return sb.String()
}

// abstractionContext renders the descriptions of abs followed by the files they reference.
func abstractionContext(files []models.File, abs []models.Abstraction, budget int) string {
	var sb strings.Builder
	seen := map[int]bool{}
	var referenced []int
	for i, a := range abs {
		fmt.Fprintf(&sb, "- Index %d: %s (Relevant file indices: %v)\n  Description: %s\n", i, a.Name, a.FileIndices, a.Description)
		for _, idx := range a.FileIndices {
			if !seen[idx] {
				seen[idx] = true
				referenced = append(referenced, idx)
			}
		}
	}
	fitted, _ := prompt.FitBudget(promptFiles(files, sortedCopy(referenced)), budget)
	if len(fitted) > 0 {
		sb.WriteString("\nRelevant File Snippets (Referenced by Index and Path):\n")
		sb.WriteString(prompt.FileContext(fitted))
	}
	return sb.String()
}

// relationshipListing renders one line per edge with both endpoint names.
func relationshipListing(abs []models.Abstraction, edges []models.Edge) string {
	var sb strings.Builder
	for _, e := range edges {
		fmt.Fprintf(&sb, "- From %d (%s) to %d (%s): %s\n", e.Source, abs[e.Source].Name, e.Target, abs[e.Target].Name, e.Label)
	}
	return sb.String()
}

func sortedCopy(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	return out
}
