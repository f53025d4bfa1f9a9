package stages

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/codetutor/internal/markdown"
)

// synopsisEntryLimit caps the characters kept per chapter.
const synopsisEntryLimit = 400

// Synopsis is the running summary of the chapters written so far.
// It is a value: With returns a new Synopsis and leaves the receiver untouched.
type Synopsis struct {
	entries []string
}

// With returns the synopsis extended by chapter number.
func (s Synopsis) With(number int, name, chapter string) Synopsis {
	summary := markdown.FirstParagraph([]byte(chapter))
	if summary == "" {
		summary = "(no summary)"
	}
	entry := fmt.Sprintf("Chapter %d (%s): %s", number, name, clip(summary, synopsisEntryLimit))
	entries := make([]string, len(s.entries), len(s.entries)+1)
	copy(entries, s.entries)
	return Synopsis{entries: append(entries, entry)}
}

// Len returns the number of chapters summarized.
func (s Synopsis) Len() int { return len(s.entries) }

func (s Synopsis) String() string {
	if len(s.entries) == 0 {
		return ""
	}
	return strings.Join(s.entries, "\n") + "\n"
}

func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
