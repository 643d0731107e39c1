// Package web renders the portal's HTML pages and JSON responses.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"edu-portal/internal/auth"
	"edu-portal/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// PageData is what every page template receives. Page-specific values live
// in Data.
type PageData struct {
	Title    string
	Identity *auth.Identity
	Flashes  []string
	Data     interface{}
}

type Renderer struct {
	pages    map[string]*template.Template
	sessions *auth.Sessions
	log      *logger.Logger
}

func NewRenderer(sessions *auth.Sessions, log *logger.Logger) (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		t, err := template.New("layout.html").Funcs(Funcs()).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, sessions: sessions, log: logger.OrNop(log)}, nil
}

// HTML renders page inside the shared layout. Pending flashes are consumed.
func (rd *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, page, title string, data interface{}) {
	t, ok := rd.pages[page]
	if !ok {
		rd.log.Error("unknown template", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pd := PageData{
		Title:    title,
		Identity: auth.IdentityFrom(r.Context()),
		Data:     data,
	}
	if rd.sessions != nil {
		pd.Flashes = rd.sessions.Flashes(w, r)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", pd); err != nil {
		rd.log.Error("template execution failed", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Redirect queues a flash message and redirects.
func (rd *Renderer) Redirect(w http.ResponseWriter, r *http.Request, to, flash string) {
	if flash != "" && rd.sessions != nil {
		if err := rd.sessions.Flash(w, r, flash); err != nil {
			rd.log.Warn("flash not saved", "error", err)
		}
	}
	http.Redirect(w, r, to, http.StatusFound)
}

// Text writes a plain-text response, used for not-found and provider errors.
func Text(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// Page serves a template that needs no data of its own.
func (rd *Renderer) Page(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rd.HTML(w, r, http.StatusOK, page, title, nil)
	}
}
