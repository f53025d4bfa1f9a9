package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
)

// maxDownloadBytes bounds a single URL download.
var maxDownloadBytes int64 = 32 << 20

// preferredExtensions picks a stable extension when a content type maps to several.
var preferredExtensions = []string{".md", ".html", ".txt", ".json", ".xml", ".pdf"}

// Fetched describes a resolved URL argument.
type Fetched struct {
	Path        string // local file to select
	Downloaded  bool   // Path is a temporary download the caller should remove
	TitleHint   string // <title> of an HTML document, empty otherwise
	NameHint    string // last URL path segment without extension, stable across runs
	ContentType string
}

// IsRemote reports whether arg is an http(s) URL.
func IsRemote(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// ResolveURL turns a --url argument into a local file. Remote URLs are downloaded into dir;
// anything else is a local path that must exist.
func ResolveURL(ctx context.Context, client *http.Client, arg, dir string) (*Fetched, error) {
	if IsRemote(arg) {
		return Fetch(ctx, client, arg, dir)
	}
	info, err := os.Stat(arg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, unavailable("file not found", arg, fmt.Errorf("%w: %s", ErrSourceNotFound, arg))
		}
		return nil, unavailable("cannot access file", arg, err)
	}
	if info.IsDir() {
		return nil, unavailable("url argument is a directory", arg, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, arg))
	}
	slog.Info("Using local file", logfields.File(arg))
	return &Fetched{Path: arg}, nil
}

// Fetch downloads rawURL into a uniquely named file in dir (os.TempDir when empty).
func Fetch(ctx context.Context, client *http.Client, rawURL, dir string) (*Fetched, error) {
	if client == nil {
		client = http.DefaultClient
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("not an http(s) URL")
		}
		return nil, unavailable("invalid URL", rawURL, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, unavailable("failed to build request", rawURL, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, unavailable("failed to fetch URL", rawURL, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(fmt.Sprintf("fetch returned HTTP %d", resp.StatusCode), rawURL,
			fmt.Errorf("%w: status %s", ErrFetchFailed, resp.Status))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, unavailable("failed to read response body", rawURL, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}
	if int64(len(body)) > maxDownloadBytes {
		return nil, unavailable("document exceeds download limit", rawURL,
			fmt.Errorf("%w: body larger than %d bytes", ErrFetchFailed, maxDownloadBytes))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, unavailable("fetched document is empty", rawURL, fmt.Errorf("%w: empty body", ErrFetchFailed))
	}

	contentType := resp.Header.Get("Content-Type")
	ext := extensionFor(u, contentType)
	if dir == "" {
		dir = os.TempDir()
	}
	pattern := fmt.Sprintf("downloaded_%s_%d_*%s", downloadBase(u), os.Getpid(), ext)
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, unavailable("failed to create download file", rawURL, err)
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, unavailable("failed to write download file", rawURL, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, unavailable("failed to write download file", rawURL, err)
	}

	fetched := &Fetched{Path: f.Name(), Downloaded: true, ContentType: contentType, NameHint: urlName(u)}
	if ext == ".html" || ext == ".htm" {
		fetched.TitleHint = htmlTitle(body)
	}
	slog.Info("Downloaded URL content", logfields.URL(rawURL), logfields.File(fetched.Path), slog.Int("bytes", len(body)))
	return fetched, nil
}

// extensionFor prefers the URL path, then the declared content type, then Markdown.
func extensionFor(u *url.URL, contentType string) string {
	if ext := path.Ext(u.Path); ext != "" && !strings.ContainsAny(ext, "/\\") {
		return ext
	}
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
				for _, p := range preferredExtensions {
					if slices.Contains(exts, p) {
						return p
					}
				}
				return exts[0]
			}
		}
	}
	return ".md"
}

// downloadBase is the URL's last path segment (or host) with dots and unsafe runes replaced.
func downloadBase(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		base = u.Host
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}

// urlName names a download after its URL rather than its temporary file.
func urlName(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return u.Hostname()
	}
	if name := strings.TrimSuffix(base, path.Ext(base)); name != "" {
		return name
	}
	return base
}

// htmlTitle returns the trimmed text of the first <title> element.
func htmlTitle(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var find func(n *html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			return strings.Join(strings.Fields(sb.String()), " ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc)
}
