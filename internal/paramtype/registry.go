package paramtype

import "github.com/starford/nodeforge/internal/models"

// Registry answers node-type level questions about the catalog.
type Registry struct {
	advanced map[string]bool
}

// NewRegistry indexes types.
func NewRegistry(types []models.NodeType) *Registry {
	r := &Registry{advanced: make(map[string]bool, len(types))}
	for _, t := range types {
		r.advanced[t.Name] = t.Advanced
	}
	return r
}

// ShowAdvanced reports whether nodes of nodeType show the advanced-settings
// affordance. Unknown node types never do.
func (r *Registry) ShowAdvanced(nodeType string) bool {
	return r.advanced[nodeType]
}
