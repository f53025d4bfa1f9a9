package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// Template names.
const (
	Identify      = "identify"
	Relationships = "relationships"
	Order         = "order"
	Chapter       = "chapter"
)

// Loader loads and renders prompt templates.
type Loader struct {
	mu      sync.Mutex
	cache   map[string]*template.Template
	funcMap template.FuncMap
}

// NewLoader returns a loader over the embedded templates.
func NewLoader() *Loader {
	return &Loader{
		cache:   make(map[string]*template.Template),
		funcMap: defaultPromptFuncMap(),
	}
}

// Render executes the named template with data.
func (l *Loader) Render(name string, data any) (string, error) {
	tmpl, err := l.getTemplate(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

func (l *Loader) getTemplate(name string) (*template.Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}
	data, err := embeddedPrompts.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}
	tmpl, err := template.New(name).Funcs(l.funcMap).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	l.cache[name] = tmpl
	return tmpl, nil
}

func defaultPromptFuncMap() template.FuncMap {
	return template.FuncMap{
		"title":   cases.Title(language.English).String,
		"join":    strings.Join,
		"trim":    strings.TrimSpace,
		"english": isEnglish,
	}
}

// isEnglish reports whether lang names English; empty means English.
func isEnglish(lang string) bool {
	l := strings.ToLower(strings.TrimSpace(lang))
	return l == "" || l == "english" || l == "en"
}

// Corrective appends the reason the previous answer was rejected, so the model can fix it
// instead of repeating the same mistake.
func Corrective(original, reason string) string {
	var sb strings.Builder
	sb.WriteString(original)
	sb.WriteString("\n\nIMPORTANT: Your previous answer was rejected because: ")
	sb.WriteString(strings.TrimSpace(reason))
	sb.WriteString("\nAnswer again, following the required format exactly.\n")
	return sb.String()
}
