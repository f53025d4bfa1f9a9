package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstHeading(t *testing.T) {
	h, ok := FirstHeading([]byte("intro text\n\n## Setup *fast*\n\n# Later\n"))
	require.True(t, ok)
	require.Equal(t, 2, h.Level)
	require.Equal(t, "Setup fast", h.Text)

	_, ok = FirstHeading([]byte("no headings here"))
	require.False(t, ok)
}

func TestStartsWithH1(t *testing.T) {
	cases := map[string]bool{
		"# Chapter 1: Core\n\nBody":   true,
		"\n\n# Title":                 true,
		"Title\n=====\n":              true,
		"## Sub\n":                    false,
		"Some text\n\n# Title later":  false,
		"```\n# not a heading\n```\n": false,
	}
	for src, want := range cases {
		if got := StartsWithH1([]byte(src)); got != want {
			t.Fatalf("%q: got %v want %v", src, got, want)
		}
	}
}

func TestFirstParagraph(t *testing.T) {
	src := "# Chapter 1: Core\n\n```go\ncode()\n```\n\nThe **core** loop\nreads [events](x.md) and `dispatches` them.\n\nSecond paragraph.\n"
	require.Equal(t, "The core loop reads events and dispatches them.", FirstParagraph([]byte(src)))
	require.Empty(t, FirstParagraph([]byte("# Only a heading\n")))
}

func TestExtractLinksText(t *testing.T) {
	links, err := ExtractLinks([]byte("1. [Core Loop](01_core_loop.md)\n"), Options{})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, "Core Loop", links[0].Text)
}
