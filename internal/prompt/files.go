package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// TruncatedMarker is appended to file content shortened by FitBudget.
const TruncatedMarker = "\n[truncated]"

// File is a source file as it appears in a prompt.
type File struct {
	Index   int
	Path    string
	Content string
}

// FitBudget caps file contents so their total stays within budget bytes.
// The largest files are shortened first: every file keeps min(len, cap) bytes,
// with cap the largest value that fits. Files are never removed, so indices stay valid.
// A budget <= 0 disables the cap.
func FitBudget(files []File, budget int) (fitted []File, truncated int) {
	total := 0
	for _, f := range files {
		total += len(f.Content)
	}
	if budget <= 0 || total <= budget || len(files) == 0 {
		return files, 0
	}

	sizes := make([]int, len(files))
	for i, f := range files {
		sizes[i] = len(f.Content)
	}
	sort.Ints(sizes)

	remaining := budget
	limit := 0
	for i, size := range sizes {
		share := remaining / (len(sizes) - i)
		if size > share {
			limit = share
			break
		}
		remaining -= size
	}

	fitted = make([]File, len(files))
	for i, f := range files {
		fitted[i] = f
		if len(f.Content) > limit {
			fitted[i].Content = cutUTF8(f.Content, limit) + TruncatedMarker
			truncated++
		}
	}
	return fitted, truncated
}

// cutUTF8 shortens s to at most n bytes without splitting a rune.
func cutUTF8(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// FileContext renders files as numbered blocks.
func FileContext(files []File) string {
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "--- File Index %d: %s ---\n%s\n\n", f.Index, f.Path, f.Content)
	}
	return sb.String()
}

// FileListing renders "- i # path" lines, used to tell the model which indices exist.
func FileListing(files []File) string {
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "- %d # %s\n", f.Index, f.Path)
	}
	return sb.String()
}
