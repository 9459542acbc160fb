// Package views renders the server-side HTML screens.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/AnshRaj112/gather-web/internal/forms"
	"github.com/AnshRaj112/gather-web/internal/models"
	"github.com/AnshRaj112/gather-web/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Screen names.
const (
	Home      = "home"
	Create    = "create"
	Manage    = "manage"
	Delete    = "delete"
	Loading   = "loading"
	Gathering = "gathering"
	NotFound  = "not_found"
)

var screens = []string{Home, Create, Manage, Delete, Loading, Gathering, NotFound}

// Page is everything a screen may show.
type Page struct {
	Title         string
	Notices       []session.Notice
	Authenticated bool
	User          *models.User

	Draft          forms.ProfileDraft
	PictureEnabled bool

	GatheringID uint64
	Gathering   *models.Gathering

	// RefreshSeconds, when set, makes the page poll itself.
	RefreshSeconds int
}

// Renderer holds one parsed template set per screen.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Mon 2 Jan 2006, 15:04 MST")
	},
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(screens))}
	for _, name := range screens {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes screen with status. Output is buffered so a template
// failure never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, screen string, page Page) {
	t, ok := r.pages[screen]
	if !ok {
		http.Error(w, "unknown screen", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", page); err != nil {
		log.Printf("render %s: %v", screen, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.Copy(w, &buf)
}
