// Package view renders the embedded HTML templates.
package view

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-dealership/internal/i18n"
)

//go:embed templates
var embedded embed.FS

// Renderer parses each page together with layout.html once and caches the
// result. Dev mode re-parses on every call.
type Renderer struct {
	fsys fs.FS
	dev  bool

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// New returns a Renderer over the embedded templates.
func New(dev bool) *Renderer {
	sub, _ := fs.Sub(embedded, "templates")
	return NewFS(sub, dev)
}

// NewFS renders templates from fsys; used by tests.
func NewFS(fsys fs.FS, dev bool) *Renderer {
	return &Renderer{fsys: fsys, dev: dev, cache: map[string]*template.Template{}}
}

// Funcs returns the template helpers bound to one language.
func Funcs(lang string) template.FuncMap {
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"year": func() int { return time.Now().Year() },
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

func (v *Renderer) parse(name string) (*template.Template, error) {
	if !v.dev {
		v.mu.RLock()
		t, ok := v.cache[name]
		v.mu.RUnlock()
		if ok {
			return t, nil
		}
	}
	t, err := template.New("layout.html").Funcs(Funcs(i18n.DefaultLang)).ParseFS(v.fsys, "layout.html", name)
	if err != nil {
		return nil, err
	}
	if !v.dev {
		v.mu.Lock()
		v.cache[name] = t
		v.mu.Unlock()
	}
	return t, nil
}

// Render executes page name inside the layout. The request language is read
// from the context; Lang and Year are added to data when absent.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return v.RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func (v *Renderer) RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	base, err := v.parse(name)
	if err != nil {
		return err
	}
	lang := i18n.LangFrom(r.Context())
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(lang))

	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Lang"]; !ok {
		data["Lang"] = lang
	}
	if _, ok := data["Year"]; !ok {
		data["Year"] = time.Now().Year()
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write([]byte(sb.String()))
	return err
}
