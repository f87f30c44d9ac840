// Package nodeview assembles the render contract of a placed node: its
// header, toolbar, widgets in declared order, and connection handles.
package nodeview

import (
	"fmt"
	"log/slog"

	"github.com/starford/nodeforge/internal/catalog"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/outputs"
	"github.com/starford/nodeforge/internal/paramtype"
	"github.com/starford/nodeforge/internal/widget"
)

// InputHandle is the id of every node's single input connection point.
const InputHandle = "input"

// Toolbar lists the actions offered above a node.
type Toolbar struct {
	Delete bool `json:"delete"`
	Edit   bool `json:"edit"`
}

// View is everything a host needs to draw one node.
type View struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Label       string           `json:"label"`
	Position    models.Position  `json:"position"`
	Toolbar     Toolbar          `json:"toolbar"`
	Advanced    bool             `json:"advanced"`
	Widgets     []*widget.Widget `json:"widgets"`
	InputHandle string           `json:"input_handle"`
	Outputs     []outputs.Handle `json:"outputs"`
	Diagnostics []string         `json:"diagnostics,omitempty"`
}

// UnknownTypeHook is called when a node's type is missing from the catalog.
type UnknownTypeHook func(nodeType string)

// Renderer turns stored nodes into views.
type Renderer struct {
	catalog    *catalog.Catalog
	registry   *paramtype.Registry
	dispatcher *widget.Dispatcher
	factory    *outputs.Factory
	surfaces   *widget.Surfaces
	logger     *slog.Logger
	onUnknown  UnknownTypeHook
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithUnknownTypeHook sets the hook for nodes of unknown type.
func WithUnknownTypeHook(fn UnknownTypeHook) RendererOption {
	return func(r *Renderer) {
		r.onUnknown = fn
	}
}

// NewRenderer creates a Renderer over cat. surfaces may be nil, in which case
// every expanded surface renders closed.
func NewRenderer(cat *catalog.Catalog, d *widget.Dispatcher, f *outputs.Factory, surfaces *widget.Surfaces, logger *slog.Logger, opts ...RendererOption) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		catalog:    cat,
		registry:   paramtype.NewRegistry(cat.Types()),
		dispatcher: d,
		factory:    f,
		surfaces:   surfaces,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render builds the view of n against the option snapshot opts. A node of
// unknown type renders its header and toolbar only, with a diagnostic. A
// failure while building widgets or handles is contained the same way, so
// one broken node never takes down the rest of the canvas.
func (r *Renderer) Render(n models.Node, opts *models.ParameterValueOptions) (v View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("nodeview: render failed",
				slog.String("node_id", n.ID),
				slog.String("node_type", n.Type),
				slog.String("panic", fmt.Sprint(rec)))
			v = r.header(n)
			v.Diagnostics = append(v.Diagnostics, fmt.Sprintf("render failed: %v", rec))
		}
	}()
	return r.render(n, opts)
}

// RenderAll renders nodes in order.
func (r *Renderer) RenderAll(nodes []models.Node, opts *models.ParameterValueOptions) []View {
	views := make([]View, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, r.Render(n, opts))
	}
	return views
}

func (r *Renderer) header(n models.Node) View {
	return View{
		ID:          n.ID,
		Type:        n.Type,
		Label:       n.Label,
		Position:    n.Position,
		Toolbar:     Toolbar{Delete: true, Edit: true},
		Advanced:    r.registry.ShowAdvanced(n.Type),
		Widgets:     []*widget.Widget{},
		InputHandle: InputHandle,
		Outputs:     []outputs.Handle{},
	}
}

func (r *Renderer) render(n models.Node, opts *models.ParameterValueOptions) View {
	v := r.header(n)

	nt, err := r.catalog.Get(n.Type)
	if err != nil {
		r.unknown(&v, err)
		return v
	}
	if v.Label == "" {
		v.Label = nt.HumanName
	}

	v.Widgets = r.dispatcher.Render(widget.Context{NodeType: nt, Params: n.Params, Options: opts})
	if r.surfaces != nil {
		r.surfaces.Mark(n.ID, v.Widgets)
	}

	handles, err := r.factory.Derive(n.Type, n.Params)
	if err != nil {
		r.unknown(&v, err)
		return v
	}
	v.Outputs = handles
	return v
}

func (r *Renderer) unknown(v *View, err error) {
	r.logger.Warn("nodeview: unknown node type",
		slog.String("node_id", v.ID),
		slog.String("node_type", v.Type),
		slog.String("error", err.Error()))
	v.Diagnostics = append(v.Diagnostics, err.Error())
	if r.onUnknown != nil {
		r.onUnknown(v.Type)
	}
}
