package models

import (
	"fmt"
	"sort"
)

// File is a selected source file. Downstream stages refer to files by index.
type File struct {
	Path    string `json:"path"`
	Content string `json:"-"`
}

// Abstraction is a named concept identified in the source.
type Abstraction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FileIndices []int  `json:"file_indices"`
}

// Edge is a directed, labeled relationship between two abstractions.
type Edge struct {
	Source int    `json:"source"`
	Target int    `json:"target"`
	Label  string `json:"label"`
}

// Relationships is the project summary plus the relationship graph.
type Relationships struct {
	Summary string `json:"summary"`
	Edges   []Edge `json:"edges"`
}

// ValidateAbstractions checks names and that every file index addresses one of fileCount files.
func ValidateAbstractions(abs []Abstraction, fileCount int) error {
	if len(abs) == 0 {
		return fmt.Errorf("no abstractions")
	}
	for i, a := range abs {
		if a.Name == "" {
			return fmt.Errorf("abstraction %d has an empty name", i)
		}
		for _, idx := range a.FileIndices {
			if idx < 0 || idx >= fileCount {
				return fmt.Errorf("abstraction %d (%s) references file index %d, valid range is 0..%d", i, a.Name, idx, fileCount-1)
			}
		}
	}
	return nil
}

// ValidateEdges checks that every endpoint addresses one of count abstractions.
// Self edges and cycles are allowed.
func ValidateEdges(edges []Edge, count int) error {
	for i, e := range edges {
		if e.Source < 0 || e.Source >= count {
			return fmt.Errorf("relationship %d has source index %d, valid range is 0..%d", i, e.Source, count-1)
		}
		if e.Target < 0 || e.Target >= count {
			return fmt.Errorf("relationship %d has target index %d, valid range is 0..%d", i, e.Target, count-1)
		}
	}
	return nil
}

// ValidatePermutation checks that order contains every index in [0, n) exactly once.
func ValidatePermutation(order []int, n int) error {
	if len(order) != n {
		missing := missingIndices(order, n)
		if len(order) < n && len(missing) > 0 {
			return fmt.Errorf("order has %d entries, expected %d (missing %v)", len(order), n, missing)
		}
		return fmt.Errorf("order has %d entries, expected %d", len(order), n)
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("order contains index %d, valid range is 0..%d", idx, n-1)
		}
		if seen[idx] {
			return fmt.Errorf("order contains index %d more than once", idx)
		}
		seen[idx] = true
	}
	return nil
}

func missingIndices(order []int, n int) []int {
	seen := make(map[int]bool, len(order))
	for _, idx := range order {
		seen[idx] = true
	}
	var out []int
	for i := 0; i < n; i++ {
		if !seen[i] {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
