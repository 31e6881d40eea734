// Package web provides the embedded web UI for browsing and adding
// evaluations.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/arith/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	maxLen  int
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler. Submitted expressions longer than maxLen
// bytes are rejected; 0 means unlimited.
func New(s *store.Store, maxLen int) *Handler {
	return &Handler{
		store:  s,
		maxLen: maxLen,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"truncate":   truncate,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Each page is parsed together with the layout only, so page-level
	// define blocks never collide.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.history)
	app.Get("/ui/evaluations/:id", h.evaluationDetail)
	app.Post("/ui/evaluate", h.evaluate)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type historyContent struct {
	Error          string
	Evaluations    []*store.Evaluation
	TotalCount     int
	SucceededCount int
	FailedCount    int
}

type evaluationDetailContent struct {
	Evaluation *store.Evaluation
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) history(c *fiber.Ctx) error {
	return h.renderHistory(c, "")
}

func (h *Handler) renderHistory(c *fiber.Ctx, errMsg string) error {
	stats := h.store.Stats()
	return h.render(c, "history.html", "history", historyContent{
		Error:          errMsg,
		Evaluations:    h.store.List(),
		TotalCount:     stats.Total,
		SucceededCount: stats.Succeeded,
		FailedCount:    stats.Failed,
	})
}

func (h *Handler) evaluationDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	ev, err := h.store.Get(id)
	if err != nil {
		c.Status(404)
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Evaluation '%s' not found", id),
		})
	}

	return h.render(c, "evaluation.html", "history", evaluationDetailContent{
		Evaluation: ev,
	})
}

// evaluate records the submitted expression and redirects to its detail
// page. Failed evaluations are recorded too; over-long input is not.
func (h *Handler) evaluate(c *fiber.Ctx) error {
	expression := c.FormValue("expression")
	if h.maxLen > 0 && len(expression) > h.maxLen {
		c.Status(fiber.StatusBadRequest)
		return h.renderHistory(c, fmt.Sprintf("Expression exceeds maximum length of %d characters", h.maxLen))
	}

	ev, _ := h.store.Evaluate(expression, store.SourceUI)
	return c.Redirect("/ui/evaluations/"+ev.ID, fiber.StatusSeeOther)
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func stateClass(state store.EvaluationState) string {
	switch state {
	case store.EvaluationSucceeded:
		return "state-succeeded"
	case store.EvaluationFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.EvaluationState) template.HTML {
	switch state {
	case store.EvaluationSucceeded:
		return "&#10003;"
	case store.EvaluationFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
