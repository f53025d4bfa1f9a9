package source

import "fmt"

// Kind identifies the type of source a Handle points at.
type Kind string

const (
	KindRepo Kind = "repo"
	KindDir  Kind = "dir"
	KindFile Kind = "file"
)

// Handle names exactly one source.
type Handle struct {
	Kind    Kind
	RepoURL string // KindRepo
	Token   string // optional access token for KindRepo
	Dir     string // KindDir
	File    string // KindFile
}

// Validate ensures the handle carries the location its kind needs.
func (h Handle) Validate() error {
	switch h.Kind {
	case KindRepo:
		if h.RepoURL == "" {
			return fmt.Errorf("repository handle without URL")
		}
	case KindDir:
		if h.Dir == "" {
			return fmt.Errorf("directory handle without path")
		}
	case KindFile:
		if h.File == "" {
			return fmt.Errorf("file handle without path")
		}
	default:
		return fmt.Errorf("unknown source kind %q", h.Kind)
	}
	return nil
}

// Location returns the user-facing description of the source.
func (h Handle) Location() string {
	switch h.Kind {
	case KindRepo:
		return h.RepoURL
	case KindDir:
		return h.Dir
	case KindFile:
		return h.File
	}
	return ""
}

// Options are the selection parameters.
type Options struct {
	Include     []string
	Exclude     []string
	MaxFileSize int64 // bytes; <= 0 disables the ceiling
}

// File is one selected file. Path is relative to the source root with / separators.
type File struct {
	Path    string
	Content string
}

// Stats counts what the walk saw.
type Stats struct {
	Visited         int
	Selected        int
	SkippedPattern  int // matched no include pattern
	SkippedExcluded int // matched an exclude pattern (pruned directories count once)
	SkippedSize     int
}

// Selection is the result of Select.
type Selection struct {
	Root        string // local directory the paths are relative to
	ProjectHint string // name derived from the source when none was given
	Files       []File
	Stats       Stats
}
