// Package pipelineservice coordinates the catalog, graph store, option source
// and change notifications behind every editor operation.
package pipelineservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/catalog"
	"github.com/starford/nodeforge/internal/dot"
	"github.com/starford/nodeforge/internal/graphstore"
	"github.com/starford/nodeforge/internal/metrics"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/nodeview"
	"github.com/starford/nodeforge/internal/optionsrc"
	"github.com/starford/nodeforge/internal/outputs"
	"github.com/starford/nodeforge/internal/paramstore"
	"github.com/starford/nodeforge/internal/paramtype"
	"github.com/starford/nodeforge/internal/widget"
)

// Events receives every committed change. The SSE broker implements it.
type Events interface {
	NodeCreated(n models.Node)
	NodeUpdated(n models.Node)
	NodeDeleted(id string)
	EdgeCreated(e models.Edge)
	LaunchEditor(n models.Node)
}

// PlaceRequest describes a node to add to the pipeline.
type PlaceRequest struct {
	ID       string          `json:"id" mapstructure:"id"`
	Type     string          `json:"type" mapstructure:"type"`
	Label    string          `json:"label" mapstructure:"label"`
	Position models.Position `json:"position" mapstructure:"position"`
	Params   models.Params   `json:"params" mapstructure:"-"`
}

// Service implements the editor operations.
type Service struct {
	graph    graphstore.Store
	catalog  *catalog.Catalog
	options  *optionsrc.Source
	events   Events
	metrics  *metrics.Metrics
	logger   *slog.Logger
	surfaces *widget.Surfaces

	dispatcher *widget.Dispatcher
	factory    *outputs.Factory
	renderer   *nodeview.Renderer
	actions    *nodeview.Actions
}

// Option configures a Service.
type Option func(*Service)

// WithEvents sets the change-notification sink.
func WithEvents(e Events) Option {
	return func(s *Service) { s.events = e }
}

// WithMetrics sets the collectors the service reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger for render diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. It fails when the catalog declares a node type with
// no output deriver.
func New(graph graphstore.Store, cat *catalog.Catalog, options *optionsrc.Source, opts ...Option) (*Service, error) {
	s := &Service{
		graph:    graph,
		catalog:  cat,
		options:  options,
		logger:   slog.Default(),
		surfaces: widget.NewSurfaces(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.options == nil {
		s.options = optionsrc.Static(nil)
	}

	factory, err := outputs.NewFactory(cat.Types())
	if err != nil {
		return nil, fmt.Errorf("pipelineservice: %w", err)
	}
	s.factory = factory

	var dispatchOpts []widget.DispatcherOption
	var renderOpts []nodeview.RendererOption
	if s.metrics != nil {
		dispatchOpts = append(dispatchOpts, widget.WithSkipHook(s.metrics.WidgetSkipped))
		renderOpts = append(renderOpts, nodeview.WithUnknownTypeHook(func(nodeType string) {
			s.metrics.UnknownTypes.WithLabelValues(nodeType).Inc()
		}))
	}
	s.dispatcher = widget.NewDispatcher(s.logger, dispatchOpts...)
	s.renderer = nodeview.NewRenderer(cat, s.dispatcher, factory, s.surfaces, s.logger, renderOpts...)

	var launcher nodeview.EditorLauncher
	var deleted nodeview.DeleteNotifier
	if s.events != nil {
		launcher, deleted = s.events, s.events
	}
	s.actions = nodeview.NewActions(graph, s.surfaces, launcher, deleted)
	return s, nil
}

// NodeTypes returns the catalog in declaration order.
func (s *Service) NodeTypes() []models.NodeType {
	return s.catalog.Types()
}

// Options returns the current option snapshot.
func (s *Service) Options() *models.ParameterValueOptions {
	return s.options.Options()
}

// PlaceNode adds a node of a catalog type with seeded parameters.
func (s *Service) PlaceNode(ctx context.Context, req PlaceRequest) (nodeview.View, error) {
	nt, err := s.catalog.Get(req.Type)
	if err != nil {
		return nodeview.View{}, err
	}
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	n := models.Node{
		ID:        id,
		Type:      nt.Name,
		Label:     req.Label,
		Position:  req.Position,
		Params:    paramstore.Seed(nt, req.Params, s.Options()),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.graph.Create(ctx, n); err != nil {
		return nodeview.View{}, err
	}
	if s.metrics != nil {
		s.metrics.NodesPlaced.WithLabelValues(n.Type).Inc()
	}
	if s.events != nil {
		s.events.NodeCreated(n.Clone())
	}
	return s.render(n), nil
}

// View renders node id.
func (s *Service) View(ctx context.Context, id string) (nodeview.View, error) {
	n, err := s.graph.Get(ctx, id)
	if err != nil {
		return nodeview.View{}, err
	}
	return s.render(n), nil
}

// ListViews renders every node in id order.
func (s *Service) ListViews(ctx context.Context) ([]nodeview.View, error) {
	nodes, err := s.graph.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderAll(nodes, s.Options()), nil
}

// ListNodes returns the stored nodes in id order.
func (s *Service) ListNodes(ctx context.Context) ([]models.Node, error) {
	return s.graph.List(ctx)
}

// ChangeParam applies raw input on the widget of parameter name, as a host
// reports it from a change event. slot selects a keyword slot and must be
// set exactly when the parameter is a keyword list. Only rendered slots, and
// the one slot just past them, can be written.
func (s *Service) ChangeParam(ctx context.Context, id, name string, slot *int, raw string) (nodeview.View, error) {
	store, err := paramstore.Load(ctx, s.graph, id, s.events)
	if err != nil {
		return nodeview.View{}, err
	}
	current := store.Node()

	w, err := s.widgetFor(current, name)
	if err != nil {
		return nodeview.View{}, err
	}

	var edit paramstore.Edit
	switch {
	case w.Kind == widget.KindKeywordList && slot == nil:
		return nodeview.View{}, fmt.Errorf("pipelineservice: %s is a keyword list, slot required: %w", name, apperr.ErrInvalidInput)
	case w.Kind == widget.KindKeywordList:
		if *slot < 0 {
			return nodeview.View{}, fmt.Errorf("pipelineservice: slot %d: %w", *slot, apperr.ErrInvalidInput)
		}
		sw, ok := w.Slot(*slot)
		switch {
		case ok:
			edit = sw.Change(raw)
		case *slot == len(w.Slots) && *slot < paramtype.MaxSlots:
			edit = widget.SetKeyword(name, *slot, raw)
		default:
			return nodeview.View{}, fmt.Errorf("pipelineservice: %s has no slot %d: %w", name, *slot, apperr.ErrInvalidInput)
		}
	case slot != nil:
		return nodeview.View{}, fmt.Errorf("pipelineservice: %s has no slots: %w", name, apperr.ErrInvalidInput)
	default:
		edit = w.Change(raw)
	}

	next, err := store.Apply(ctx, edit)
	if err != nil {
		return nodeview.View{}, err
	}
	if s.metrics != nil {
		s.metrics.ParamUpdates.WithLabelValues(next.Type).Inc()
	}
	return s.render(next), nil
}

// OpenOverlay opens the expanded editing surface of parameter name.
func (s *Service) OpenOverlay(ctx context.Context, id, name string) (nodeview.View, error) {
	n, err := s.graph.Get(ctx, id)
	if err != nil {
		return nodeview.View{}, err
	}
	w, err := s.widgetFor(n, name)
	if err != nil {
		return nodeview.View{}, err
	}
	if !w.Expandable() {
		return nodeview.View{}, fmt.Errorf("pipelineservice: %s has no expanded surface: %w", name, apperr.ErrInvalidInput)
	}
	s.surfaces.Open(id, name)
	return s.render(n), nil
}

// CloseOverlay dismisses the expanded surface of parameter name. Closing
// never writes parameters.
func (s *Service) CloseOverlay(ctx context.Context, id, name string, reason widget.CloseReason) (nodeview.View, error) {
	switch reason {
	case widget.CloseButton, widget.CloseOutside:
	default:
		return nodeview.View{}, fmt.Errorf("pipelineservice: close reason %q: %w", reason, apperr.ErrInvalidInput)
	}
	n, err := s.graph.Get(ctx, id)
	if err != nil {
		return nodeview.View{}, err
	}
	s.surfaces.Close(id, name, reason)
	return s.render(n), nil
}

// DeleteNode removes node id and its edges. It is idempotent.
func (s *Service) DeleteNode(ctx context.Context, id string) error {
	if err := s.actions.DeleteNode(ctx, id); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.NodesDeleted.Inc()
	}
	return nil
}

// OpenEditor requests the detailed editor for node id.
func (s *Service) OpenEditor(ctx context.Context, id string) (models.Node, error) {
	return s.actions.OpenEditor(ctx, id)
}

// Connect links an output handle of source to the input of target. The
// source handle must be one the source node currently derives.
func (s *Service) Connect(ctx context.Context, e models.Edge) (models.Edge, error) {
	src, err := s.graph.Get(ctx, e.Source)
	if err != nil {
		return models.Edge{}, fmt.Errorf("pipelineservice: source %s: %w", e.Source, err)
	}
	if _, err := s.graph.Get(ctx, e.Target); err != nil {
		return models.Edge{}, fmt.Errorf("pipelineservice: target %s: %w", e.Target, err)
	}
	if e.TargetHandle == "" {
		e.TargetHandle = nodeview.InputHandle
	}
	if e.TargetHandle != nodeview.InputHandle {
		return models.Edge{}, fmt.Errorf("pipelineservice: target handle %q: %w", e.TargetHandle, apperr.ErrInvalidInput)
	}

	handles, err := s.factory.Derive(src.Type, src.Params)
	if err != nil {
		return models.Edge{}, err
	}
	if e.SourceHandle == "" && len(handles) == 1 {
		e.SourceHandle = handles[0].ID
	}
	if !hasHandle(handles, e.SourceHandle) {
		return models.Edge{}, fmt.Errorf("pipelineservice: %s has no output %q: %w", src.ID, e.SourceHandle, apperr.ErrInvalidInput)
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("%s:%s->%s", e.Source, e.SourceHandle, e.Target)
	}

	if err := s.graph.Connect(ctx, e); err != nil {
		return models.Edge{}, err
	}
	if s.events != nil {
		s.events.EdgeCreated(e)
	}
	return e, nil
}

// Edges returns all edges.
func (s *Service) Edges(ctx context.Context) ([]models.Edge, error) {
	return s.graph.Edges(ctx)
}

// DOT exports the pipeline as a Graphviz digraph.
func (s *Service) DOT(ctx context.Context) (string, error) {
	nodes, err := s.graph.List(ctx)
	if err != nil {
		return "", err
	}
	edges, err := s.graph.Edges(ctx)
	if err != nil {
		return "", err
	}
	return dot.Export(nodes, edges, func(nodeType string) string {
		nt, err := s.catalog.Get(nodeType)
		if err != nil {
			return ""
		}
		return nt.HumanName
	})
}

func (s *Service) render(n models.Node) nodeview.View {
	return s.renderer.Render(n, s.Options())
}

// widgetFor resolves the widget of parameter name on n.
func (s *Service) widgetFor(n models.Node, name string) (*widget.Widget, error) {
	nt, err := s.catalog.Get(n.Type)
	if err != nil {
		return nil, err
	}
	desc, ok := nt.Param(name)
	if !ok {
		return nil, fmt.Errorf("pipelineservice: %s has no parameter %q: %w", n.Type, name, apperr.ErrNotFound)
	}
	w, err := s.dispatcher.Dispatch(desc, widget.Context{NodeType: nt, Params: n.Params, Options: s.Options()})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func hasHandle(handles []outputs.Handle, id string) bool {
	for _, h := range handles {
		if h.ID == id {
			return true
		}
	}
	return false
}
