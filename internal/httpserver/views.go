package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/postboard/postboard/internal/posts"
	"github.com/postboard/postboard/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index", "login", "register", "dashboard", "new-post", "edit-post"}

type views struct {
	pages map[string]*template.Template
}

type viewData struct {
	User  *session.Session
	Error string
	Posts []posts.Post
	Post  posts.Post
}

func mustLoadViews() *views {
	v, err := loadViews()
	if err != nil {
		panic(err)
	}
	return v
}

func loadViews() (*views, error) {
	funcs := template.FuncMap{
		"date": func(p posts.Post) string { return p.CreatedAt.Format("Jan 2, 2006 15:04") },
	}
	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, name string, data viewData) {
	if sess, ok := sessionFromContext(r.Context()); ok && data.User == nil {
		data.User = &sess
	}

	t, ok := h.views.pages[name]
	if !ok {
		h.logger.Error("unknown template", "name", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("render template failed", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
