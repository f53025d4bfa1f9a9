package source

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher applies include/exclude globs to slash-separated relative paths.
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher validates every pattern up front.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return &Matcher{include: include, exclude: exclude}, nil
}

// Included reports whether rel matches at least one include pattern.
func (m *Matcher) Included(rel string) bool {
	return matchAny(m.include, rel)
}

// Excluded reports whether rel or any of its ancestor directories matches an exclude pattern.
func (m *Matcher) Excluded(rel string) bool {
	if matchAny(m.exclude, rel) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		if m.DirExcluded(dir) {
			return true
		}
	}
	return false
}

// DirExcluded reports whether everything below dir is excluded, so the walk can prune it.
func (m *Matcher) DirExcluded(dir string) bool {
	for _, p := range m.exclude {
		if matchOne(p, dir) {
			return true
		}
		// "venv/*" and "venv/**" cover the directory itself
		for _, suffix := range []string{"/**", "/*"} {
			if base, ok := strings.CutSuffix(p, suffix); ok {
				if hit, _ := doublestar.Match(base, dir); hit {
					return true
				}
			}
		}
	}
	return false
}

// Selected applies the full rule: included and not excluded.
func (m *Matcher) Selected(rel string) bool {
	return m.Included(rel) && !m.Excluded(rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if matchOne(p, rel) {
			return true
		}
	}
	return false
}

// matchOne matches the relative path; patterns without a separator also match the base name.
func matchOne(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, path.Base(rel))
		return ok
	}
	return false
}
