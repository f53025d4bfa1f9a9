package parse

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/codetutor/internal/markdown"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// Step names used in error context and metrics labels.
const (
	StepIdentify      = "identify"
	StepRelationships = "relationships"
	StepOrder         = "order"
	StepChapter       = "chapter"
)

type rawAbstraction struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	FileIndices []Index `yaml:"file_indices"`
}

// Abstractions parses the identification response. Names and descriptions are
// trimmed and file indices are deduplicated and sorted.
func Abstractions(text string, fileCount, maxAbstractions int) ([]models.Abstraction, error) {
	var raw []rawAbstraction
	if err := decode(StepIdentify, text, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, malformed(StepIdentify, "no abstractions in response", nil)
	}
	if maxAbstractions > 0 && len(raw) > maxAbstractions {
		return nil, malformed(StepIdentify, "too many abstractions", fmt.Errorf("got %d, at most %d allowed", len(raw), maxAbstractions))
	}

	out := make([]models.Abstraction, 0, len(raw))
	for _, r := range raw {
		seen := make(map[int]bool, len(r.FileIndices))
		indices := make([]int, 0, len(r.FileIndices))
		for _, idx := range r.FileIndices {
			if seen[int(idx)] {
				continue
			}
			seen[int(idx)] = true
			indices = append(indices, int(idx))
		}
		sort.Ints(indices)
		out = append(out, models.Abstraction{
			Name:        strings.TrimSpace(r.Name),
			Description: strings.TrimSpace(r.Description),
			FileIndices: indices,
		})
	}
	if err := models.ValidateAbstractions(out, fileCount); err != nil {
		return nil, malformed(StepIdentify, "invalid abstractions", err)
	}
	return out, nil
}

type rawRelationships struct {
	Summary       string `yaml:"summary"`
	Relationships []struct {
		From  *Index `yaml:"from_abstraction"`
		To    *Index `yaml:"to_abstraction"`
		Label string `yaml:"label"`
	} `yaml:"relationships"`
}

// Relationships parses the relationship response against count abstractions.
func Relationships(text string, count int) (models.Relationships, error) {
	var raw rawRelationships
	if err := decode(StepRelationships, text, &raw); err != nil {
		return models.Relationships{}, err
	}
	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		return models.Relationships{}, malformed(StepRelationships, "summary is missing", nil)
	}
	edges := make([]models.Edge, 0, len(raw.Relationships))
	for _, r := range raw.Relationships {
		if r.From == nil || r.To == nil {
			return models.Relationships{}, malformed(StepRelationships, "relationship is missing from_abstraction or to_abstraction", nil)
		}
		edges = append(edges, models.Edge{Source: int(*r.From), Target: int(*r.To), Label: strings.TrimSpace(r.Label)})
	}
	if err := models.ValidateEdges(edges, count); err != nil {
		return models.Relationships{}, malformed(StepRelationships, "invalid relationship", err)
	}
	return models.Relationships{Summary: summary, Edges: edges}, nil
}

// Order parses the chapter order, which must be a permutation of [0, n).
func Order(text string, n int) ([]int, error) {
	var raw []Index
	if err := decode(StepOrder, text, &raw); err != nil {
		return nil, err
	}
	order := make([]int, len(raw))
	for i, idx := range raw {
		order[i] = int(idx)
	}
	if err := models.ValidatePermutation(order, n); err != nil {
		return nil, malformed(StepOrder, "order is not a permutation of the abstractions", err)
	}
	return order, nil
}

// Chapter normalizes a chapter response. A response wrapped in a single
// markdown fence is unwrapped, and a "# Chapter k: name" heading is added
// when the text does not open with a level-one heading.
func Chapter(text string, number int, name string) (string, error) {
	body := strings.TrimSpace(text)
	if inner, ok := unwrapMarkdownFence(body); ok {
		body = inner
	}
	if body == "" {
		return "", malformed(StepChapter, "chapter is empty", nil)
	}
	if !markdown.StartsWithH1([]byte(body)) {
		body = chapterHeading(number, name) + "\n\n" + body
	}
	return body + "\n", nil
}

func chapterHeading(number int, name string) string {
	return fmt.Sprintf("# Chapter %d: %s", number, name)
}

func unwrapMarkdownFence(body string) (string, bool) {
	for _, open := range []string{"```markdown", "```md"} {
		if strings.HasPrefix(body, open) && strings.HasSuffix(body, "```") {
			inner := strings.TrimPrefix(body, open)
			inner = strings.TrimSuffix(inner, "```")
			return strings.TrimSpace(inner), true
		}
	}
	return "", false
}
