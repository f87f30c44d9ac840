// Package graphstore defines the canonical pipeline document contract: nodes
// addressed by id and the edges between their handles.
package graphstore

import (
	"context"

	"github.com/starford/nodeforge/internal/models"
)

// Updater computes a node's next state from its current one. Returning an
// error aborts the update and leaves the stored node untouched.
type Updater func(old models.Node) (models.Node, error)

// Store is the graph document. Implementations must apply Update atomically
// with respect to other writers of the same node.
type Store interface {
	// Create inserts a new node. Returns apperr.ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, n models.Node) error
	// Get returns the node with id, or apperr.ErrNotFound.
	Get(ctx context.Context, id string) (models.Node, error)
	// Update replaces node id with fn(current) and returns the stored result.
	Update(ctx context.Context, id string, fn Updater) (models.Node, error)
	// Delete removes node id and every edge touching it. Deleting an absent
	// node is not an error.
	Delete(ctx context.Context, id string) error
	// List returns all nodes ordered by id.
	List(ctx context.Context) ([]models.Node, error)
	// Connect inserts or replaces an edge.
	Connect(ctx context.Context, e models.Edge) error
	// Edges returns all edges ordered by id.
	Edges(ctx context.Context) ([]models.Edge, error)
	// Close releases underlying resources.
	Close() error
}
