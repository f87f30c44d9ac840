package widget

import (
	"fmt"
	"log/slog"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/paramtype"
)

// Context is the node state a builder reads from.
type Context struct {
	NodeType *models.NodeType
	Params   models.Params
	Options  *models.ParameterValueOptions
}

// Builder constructs the widget for one parameter descriptor.
type Builder func(desc models.InputParam, c Context) *Widget

// Resolve returns the builder for t. Every member of the closed type set has
// a builder; only paramtype.Unknown fails.
func Resolve(t paramtype.ParamType) (Builder, error) {
	switch t {
	case paramtype.Text:
		return textWidget, nil
	case paramtype.ExpandableText:
		return expandableTextWidget, nil
	case paramtype.Keywords:
		return keywordsWidget, nil
	case paramtype.LlmProviderID:
		return providerWidget, nil
	case paramtype.LlmModel:
		return modelWidget, nil
	case paramtype.SourceMaterialID:
		return sourceMaterialWidget, nil
	case paramtype.HistoryType:
		return historyTypeWidget, nil
	case paramtype.MaxTokenLimit, paramtype.NumOutputs:
		return numberWidget("1"), nil
	case paramtype.LlmTemperature:
		return numberWidget("0.1"), nil
	case paramtype.Unknown:
	}
	return nil, fmt.Errorf("widget: resolve %s: %w", t, apperr.ErrUnknownParamType)
}

// ResolveTag parses tag and resolves its builder.
func ResolveTag(tag string) (Builder, error) {
	t, err := paramtype.Parse(tag)
	if err != nil {
		return nil, err
	}
	return Resolve(t)
}

// SkipHook is called for each parameter that could not be rendered.
type SkipHook func(nodeType, tag string)

// Dispatcher renders the widgets of a node.
type Dispatcher struct {
	logger *slog.Logger
	onSkip SkipHook
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSkipHook sets a hook invoked for every skipped parameter.
func WithSkipHook(fn SkipHook) DispatcherOption {
	return func(d *Dispatcher) {
		d.onSkip = fn
	}
}

// NewDispatcher creates a Dispatcher that reports skipped parameters to logger.
func NewDispatcher(logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch builds the widget for desc.
func (d *Dispatcher) Dispatch(desc models.InputParam, c Context) (*Widget, error) {
	build, err := ResolveTag(desc.Type)
	if err != nil {
		return nil, fmt.Errorf("widget: parameter %q: %w", desc.Name, err)
	}
	return build(desc, c), nil
}

// Render builds one widget per declared parameter of c.NodeType, in declared
// order. A parameter whose widget cannot be resolved is logged and omitted;
// its siblings are unaffected.
func (d *Dispatcher) Render(c Context) []*Widget {
	if c.NodeType == nil {
		return nil
	}
	out := make([]*Widget, 0, len(c.NodeType.InputParams))
	for _, desc := range c.NodeType.InputParams {
		w, err := d.Dispatch(desc, c)
		if err != nil {
			d.logger.Warn("widget: parameter skipped",
				slog.String("node_type", c.NodeType.Name),
				slog.String("param", desc.Name),
				slog.String("type", desc.Type),
				slog.String("error", err.Error()))
			if d.onSkip != nil {
				d.onSkip(c.NodeType.Name, desc.Type)
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// Find returns the widget named name among ws.
func Find(ws []*Widget, name string) (*Widget, bool) {
	for _, w := range ws {
		if w.Name == name {
			return w, true
		}
	}
	return nil, false
}
