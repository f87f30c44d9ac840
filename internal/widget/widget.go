// Package widget resolves the editor control for each declared parameter and
// turns raw user input on that control into a parameter edit.
package widget

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/paramstore"
)

// Kind is the presentation a rendering host uses for a widget.
type Kind string

const (
	KindText        Kind = "text"
	KindNumber      Kind = "number"
	KindTextarea    Kind = "textarea"
	KindKeywordList Kind = "keyword_list"
	KindKeyword     Kind = "keyword"
	KindSelect      Kind = "select"
)

// Option is one choice of a select widget.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// SurfaceState describes the expanded editing surface of a text widget.
type SurfaceState struct {
	Open bool `json:"open"`
}

// Widget is the concrete control rendered for one parameter.
type Widget struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Label       string        `json:"label"`
	Kind        Kind          `json:"kind"`
	Value       models.Value  `json:"value"`
	Options     []Option      `json:"options,omitempty"`
	Placeholder *Option       `json:"placeholder,omitempty"`
	Step        string        `json:"step,omitempty"`
	Index       int           `json:"index,omitempty"`
	Slots       []*Widget     `json:"slots,omitempty"`
	Surface     *SurfaceState `json:"surface,omitempty"`

	change func(raw string) paramstore.Edit
}

// Change converts raw input on the widget into an edit of the node's
// parameters. A widget built without a change handler (a keyword list
// container) yields an edit that leaves parameters untouched.
func (w *Widget) Change(raw string) paramstore.Edit {
	if w.change == nil {
		return func(p models.Params) models.Params { return p.Clone() }
	}
	return w.change(raw)
}

// Slot returns keyword slot i of a keyword list widget.
func (w *Widget) Slot(i int) (*Widget, bool) {
	if i < 0 || i >= len(w.Slots) {
		return nil, false
	}
	return w.Slots[i], true
}

// Expandable reports whether the widget offers an expanded editing surface.
func (w *Widget) Expandable() bool {
	return w.Kind == KindTextarea
}

// HumanName turns a parameter name into its display label:
// "llm_provider_id" becomes "Llm Provider Id".
func HumanName(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
