// Package render turns chat message text into transcript bubbles.
//
// Every message, whoever wrote it, goes through markdown conversion followed
// by HTML sanitization. Model replies are untrusted input.
package render

import (
	"bytes"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Category selects how a bubble is styled.
type Category string

const (
	CategoryUser         Category = "user"
	CategorySupport      Category = "support"
	CategorySupportError Category = "support-error"
)

// timeLayout matches a two-digit hour:minute clock label.
const timeLayout = "03:04 PM"

// Class returns the CSS class list used by the widget for the category.
func (c Category) Class() string {
	switch c {
	case CategoryUser:
		return "message user"
	case CategorySupportError:
		return "message support error"
	default:
		return "message support"
	}
}

// Bubble is a rendered transcript entry.
type Bubble struct {
	Category Category      `json:"category"`
	Class    string        `json:"class"`
	HTML     template.HTML `json:"html"`
	Time     string        `json:"time"`
}

// Renderer converts markdown to sanitized HTML bubbles.
type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
	location *time.Location
	now      func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLocation sets the time zone used for bubble time labels.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClock overrides the clock used for bubble time labels.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRenderer creates a Renderer. Raw HTML in the markdown source is never
// passed through; the converted output is additionally run through a
// user-generated-content sanitization policy.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		policy:   bluemonday.UGCPolicy(),
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts content to a sanitized bubble stamped with the current time.
func (r *Renderer) Render(content string, category Category) Bubble {
	return Bubble{
		Category: category,
		Class:    category.Class(),
		HTML:     template.HTML(r.Sanitize(content)),
		Time:     r.now().In(r.location).Format(timeLayout),
	}
}

// Sanitize converts markdown to HTML and strips anything executable.
// If conversion fails the escaped source text is sanitized instead.
func (r *Renderer) Sanitize(content string) string {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(content), &buf); err != nil {
		buf.Reset()
		template.HTMLEscape(&buf, []byte(content))
	}
	return r.policy.SanitizeReader(&buf).String()
}
