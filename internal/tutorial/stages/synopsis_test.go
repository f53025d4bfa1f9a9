package stages

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSynopsisIsAValue(t *testing.T) {
	empty := Synopsis{}
	one := empty.With(1, "Parser", "# Chapter 1: Parser\n\nParses input.\n\nMore detail.\n")
	two := one.With(2, "Printer", "```go\ncode\n```\n")

	if empty.Len() != 0 || empty.String() != "" {
		t.Fatalf("empty synopsis changed: %q", empty.String())
	}
	if one.Len() != 1 {
		t.Fatalf("With mutated the receiver: len=%d", one.Len())
	}
	want := "Chapter 1 (Parser): Parses input.\nChapter 2 (Printer): (no summary)\n"
	if two.String() != want {
		t.Fatalf("synopsis = %q, want %q", two.String(), want)
	}
}

func TestSynopsisClipsLongParagraphs(t *testing.T) {
	long := strings.Repeat("é", synopsisEntryLimit+50)
	s := Synopsis{}.With(1, "Long", long)
	entry := strings.TrimSuffix(s.String(), "\n")
	body := strings.TrimPrefix(entry, "Chapter 1 (Long): ")
	if got := utf8.RuneCountInString(body); got != synopsisEntryLimit+1 {
		t.Fatalf("clipped to %d runes, want %d", got, synopsisEntryLimit+1)
	}
}
