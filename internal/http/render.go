package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"aguin/internal/auth"
	"aguin/internal/core"
	"aguin/internal/dashboard"
	"aguin/internal/log"
)

const (
	layoutSite  = "layout"
	layoutPrint = "print"
)

// pageData is what every page template receives.
type pageData struct {
	Title    string
	Section  string
	Session  auth.Session
	SignedIn bool
	Flash    *flash
	Error    string
	Data     any
}

// parsePages builds one template set per *.page.html file on top of the
// shared layout and partials.
func parsePages(fsys fs.FS, funcs template.FuncMap) (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "templates/*.page.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if _, err := t.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".page.html")] = t
	}
	pages["partials"] = base
	return pages, nil
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"quetzales": core.FormatQuetzales,
		"requested": func(raw string) string { return dashboard.FormatDate(raw, s.opts.Location) },
		"day": func(d core.Date) string {
			if d.IsZero() {
				return "—"
			}
			return dashboard.FormatDate(d.String(), s.opts.Location)
		},
		"status":   func(v any) string { return dashboard.FormatStatus(fmt.Sprint(v)) },
		"month":    dashboard.MonthLabel,
		"datetime": func(t time.Time) string { return t.In(s.opts.Location).Format("02/01/2006 15:04") },
		"statuses": func() []core.ReservationStatus { return core.Statuses },
		"stars": func(score int) string {
			score = max(0, min(score, core.MaxReviewScore))
			return strings.Repeat("★", score) + strings.Repeat("☆", core.MaxReviewScore-score)
		},
		"scores": func() []int {
			out := make([]int, 0, core.MaxReviewScore)
			for n := core.MaxReviewScore; n >= core.MinReviewScore; n-- {
				out = append(out, n)
			}
			return out
		},
		"average": func(d decimal.Decimal) string { return d.StringFixed(1) },
		"contains": func(ids []int64, id int64) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}
}

// page assembles the common page data for r.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title, section string, data any) pageData {
	sess, ok := auth.SessionFrom(r.Context())
	return pageData{
		Title:    title,
		Section:  section,
		Session:  sess,
		SignedIn: ok,
		Flash:    takeFlash(w, r),
		Data:     data,
	}
}

// render executes the named page inside layout. Output is buffered so a
// template failure still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, layout string, data pageData) {
	t, ok := s.pages[name]
	if !ok {
		s.fail(w, r, http.StatusInternalServerError, "Página no disponible", fmt.Errorf("unknown page %q", name))
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layout, data); err != nil {
		s.fail(w, r, http.StatusInternalServerError, "No se pudo mostrar la página", fmt.Errorf("render %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderPartial executes a single partial template, for htmx swaps.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages["partials"].ExecuteTemplate(&buf, name, data); err != nil {
		s.fail(w, r, http.StatusInternalServerError, "No se pudo mostrar la página", fmt.Errorf("render partial %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// fail logs err and writes a plain error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	log.FromContext(r.Context()).Fail(r.Context(), message, log.OpRender, err, log.FieldPath, r.URL.Path)
	if isHTMX(r) {
		ErrorResponse(status, message).Write(w)
		return
	}
	http.Error(w, message, status)
}
