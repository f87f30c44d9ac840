// Package paramstore holds a node's parameter values and keeps them in step
// with the graph store.
//
// The graph store is the only authoritative copy. A Store caches the node it
// last read or wrote for one render cycle and replaces that cache only from
// the result of a successful graph-store update, so the cache can never run
// ahead of, or fall behind, the canonical document.
package paramstore

import (
	"context"
	"fmt"

	"github.com/starford/nodeforge/internal/graphstore"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/paramtype"
)

// Edit derives a node's next parameters from its current ones. Edits must not
// modify their argument.
type Edit func(models.Params) models.Params

// UpdateParam returns a shallow copy of params with name set to value.
// Every widget change reduces to one or more applications of this rule.
func UpdateParam(params models.Params, name string, value models.Value) models.Params {
	return params.With(name, value)
}

// Set returns an Edit that assigns value to name.
func Set(name string, value models.Value) Edit {
	return func(p models.Params) models.Params {
		return UpdateParam(p, name, value)
	}
}

// Seed builds the initial parameters of a node of type nt. Every declared
// parameter is present: its persisted value when there is one, otherwise
// a non-empty declared default, otherwise the option source's per-type
// default, otherwise an empty value. Persisted keys that nt does not declare are
// dropped.
func Seed(nt *models.NodeType, persisted models.Params, opts *models.ParameterValueOptions) models.Params {
	out := make(models.Params, len(nt.InputParams))
	for _, p := range nt.InputParams {
		if v, ok := persisted[p.Name]; ok {
			out[p.Name] = v
			continue
		}
		out[p.Name] = defaultFor(p, opts)
	}
	return out
}

func defaultFor(p models.InputParam, opts *models.ParameterValueOptions) models.Value {
	if d := p.Default; d != nil && (d.IsList() || d.String() != "") {
		return *d
	}
	if v, ok := opts.DefaultFor(p.Type); ok {
		return v
	}
	if t, err := paramtype.Of(p); err == nil && t == paramtype.Keywords {
		return models.List()
	}
	return models.String("")
}

// Notifier is told about every committed parameter change.
type Notifier interface {
	NodeUpdated(n models.Node)
}

// Store is the parameter value store of one node.
type Store struct {
	graph    graphstore.Store
	notifier Notifier
	node     models.Node
}

// Load reads node id from graph and returns a Store caching it. notifier may
// be nil.
func Load(ctx context.Context, graph graphstore.Store, id string, notifier Notifier) (*Store, error) {
	n, err := graph.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Store{graph: graph, notifier: notifier, node: n}, nil
}

// Node returns a copy of the cached node.
func (s *Store) Node() models.Node {
	return s.node.Clone()
}

// Params returns a copy of the cached parameters.
func (s *Store) Params() models.Params {
	return s.node.Params.Clone()
}

// Apply runs edit against the canonical parameters inside the graph store's
// per-node updater, then replaces the cached node with the stored result and
// notifies. On error neither the document nor the cache changes.
func (s *Store) Apply(ctx context.Context, edit Edit) (models.Node, error) {
	next, err := s.graph.Update(ctx, s.node.ID, func(old models.Node) (models.Node, error) {
		params := edit(old.Params)
		if params == nil {
			return models.Node{}, fmt.Errorf("paramstore: edit of %s returned nil params", old.ID)
		}
		old.Params = params
		return old, nil
	})
	if err != nil {
		return models.Node{}, err
	}
	s.node = next
	if s.notifier != nil {
		s.notifier.NodeUpdated(next.Clone())
	}
	return next.Clone(), nil
}
