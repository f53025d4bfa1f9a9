package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
)

func TestFetchUsesURLExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# Notes\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f, err := Fetch(context.Background(), srv.Client(), srv.URL+"/guide/notes.md", dir)
	require.NoError(t, err)
	require.True(t, f.Downloaded)
	require.Equal(t, dir, filepath.Dir(f.Path))
	base := filepath.Base(f.Path)
	require.True(t, strings.HasPrefix(base, "downloaded_notes_md_"), base)
	require.True(t, strings.HasSuffix(base, ".md"), base)

	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	require.Equal(t, "# Notes\n", string(data))
}

func TestFetchHTMLContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>  Widget\n Handbook </title></head><body>x</body></html>"))
	}))
	defer srv.Close()

	f, err := Fetch(context.Background(), srv.Client(), srv.URL+"/handbook", t.TempDir())
	require.NoError(t, err)
	require.Equal(t, ".html", filepath.Ext(f.Path))
	require.Equal(t, "Widget Handbook", f.TitleHint)
}

func TestFetchFallsBackToMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("plain words"))
	}))
	defer srv.Close()

	f, err := Fetch(context.Background(), srv.Client(), srv.URL+"/raw", t.TempDir())
	require.NoError(t, err)
	require.Equal(t, ".md", filepath.Ext(f.Path))
}

func TestFetchFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	for _, p := range []string{"/missing.md", "/empty"} {
		_, err := Fetch(context.Background(), srv.Client(), srv.URL+p, t.TempDir())
		if !ferrors.HasCategory(err, ferrors.CategorySourceUnavailable) {
			t.Fatalf("%s: expected source_unavailable, got %v", p, err)
		}
		require.ErrorIs(t, err, ErrFetchFailed)
	}
}

func TestFetchNamesDownloadAfterURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Guide\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	first, err := Fetch(context.Background(), srv.Client(), srv.URL+"/docs/guide.md", dir)
	require.NoError(t, err)
	second, err := Fetch(context.Background(), srv.Client(), srv.URL+"/docs/guide.md", dir)
	require.NoError(t, err)

	require.NotEqual(t, first.Path, second.Path)
	require.Equal(t, "guide", first.NameHint)
	require.Equal(t, first.NameHint, second.NameHint)
	require.Empty(t, first.TitleHint)
}

func TestURLName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/docs/guide.md", "guide"},
		{"https://example.com/docs/guide", "guide"},
		{"https://example.com/docs/guide/", "guide"},
		{"https://example.com/archive.tar.gz", "archive.tar"},
		{"https://example.com/", "example.com"},
		{"https://example.com:8080", "example.com"},
		{"https://example.com/.profile", ".profile"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			require.Equal(t, tt.want, urlName(mustURL(t, tt.raw)))
		})
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	old := maxDownloadBytes
	maxDownloadBytes = 8
	t.Cleanup(func() { maxDownloadBytes = old })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fits.md" {
			_, _ = w.Write([]byte("12345678"))
			return
		}
		_, _ = w.Write([]byte("123456789"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f, err := Fetch(context.Background(), srv.Client(), srv.URL+"/fits.md", dir)
	require.NoError(t, err)
	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	require.Equal(t, "12345678", string(data))

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/big.md", dir)
	require.ErrorIs(t, err, ErrFetchFailed)
	require.True(t, ferrors.HasCategory(err, ferrors.CategorySourceUnavailable))
	require.Contains(t, err.Error(), "download limit")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestResolveURLLocalPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	f, err := ResolveURL(context.Background(), nil, p, dir)
	require.NoError(t, err)
	require.Equal(t, p, f.Path)
	require.False(t, f.Downloaded)

	_, err = ResolveURL(context.Background(), nil, filepath.Join(dir, "missing.txt"), dir)
	require.True(t, ferrors.HasCategory(err, ferrors.CategorySourceUnavailable))
}

func TestExtensionFor(t *testing.T) {
	srvURL := mustURL(t, "https://example.com/a/b")
	require.Equal(t, ".md", extensionFor(srvURL, ""))
	require.Equal(t, ".json", extensionFor(srvURL, "application/json"))
	require.Equal(t, ".py", extensionFor(mustURL(t, "https://example.com/x.py"), "text/html"))
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
