// Package outputs derives the output connection handles of a node from its
// type and current parameters.
package outputs

import (
	"fmt"
	"strconv"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/catalog"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/paramtype"
)

// Handle is one output connection point.
type Handle struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Deriver computes the handles of a node from its parameters. Derivers are
// pure and total: any parameter map yields a handle list.
type Deriver func(nt *models.NodeType, params models.Params) []Handle

func single(*models.NodeType, models.Params) []Handle {
	return []Handle{{ID: "output", Label: "Output"}}
}

func boolean(*models.NodeType, models.Params) []Handle {
	return []Handle{
		{ID: "output_true", Label: "Output True"},
		{ID: "output_false", Label: "Output False"},
	}
}

func none(*models.NodeType, models.Params) []Handle {
	return []Handle{}
}

// keywords yields one handle per keyword slot, labelled by its keyword.
func keywords(nt *models.NodeType, params models.Params) []Handle {
	name, ok := paramtype.Find(nt, paramtype.Keywords)
	if !ok {
		return single(nt, params)
	}
	list := params.Get(name)
	n := paramtype.SlotCount(nt, params, name)
	out := make([]Handle, n)
	for i := range n {
		label := list.At(i)
		if label == "" {
			label = "Output " + strconv.Itoa(i+1)
		}
		out[i] = Handle{ID: "output_" + strconv.Itoa(i), Label: label}
	}
	return out
}

var derivers = map[string]Deriver{
	catalog.OutputsDefault:  single,
	catalog.OutputsKeywords: keywords,
	catalog.OutputsBoolean:  boolean,
	catalog.OutputsNone:     none,
}

// Factory maps every catalog node type to its deriver.
type Factory struct {
	types    map[string]*models.NodeType
	derivers map[string]Deriver
}

// NewFactory binds a deriver to every type in types. A type whose output kind
// has no deriver is a setup error.
func NewFactory(types []models.NodeType) (*Factory, error) {
	f := &Factory{
		types:    make(map[string]*models.NodeType, len(types)),
		derivers: make(map[string]Deriver, len(types)),
	}
	for i := range types {
		t := types[i]
		kind := t.Outputs
		if kind == "" {
			kind = catalog.OutputsDefault
		}
		d, ok := derivers[kind]
		if !ok {
			return nil, fmt.Errorf("outputs: node type %s: no deriver for output kind %q", t.Name, kind)
		}
		f.types[t.Name] = &t
		f.derivers[t.Name] = d
	}
	return f, nil
}

// Derive returns the output handles of a node of nodeType with params.
func (f *Factory) Derive(nodeType string, params models.Params) ([]Handle, error) {
	d, ok := f.derivers[nodeType]
	if !ok {
		return nil, fmt.Errorf("outputs: %s: %w", nodeType, apperr.ErrUnknownNodeType)
	}
	return d(f.types[nodeType], params), nil
}
