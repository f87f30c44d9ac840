package nodeview

import (
	"context"
	"fmt"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/graphstore"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/widget"
)

// EditorLauncher opens the detailed editor for a node snapshot. Launching
// must not block on the editor.
type EditorLauncher interface {
	LaunchEditor(n models.Node)
}

// DeleteNotifier is told about removed nodes.
type DeleteNotifier interface {
	NodeDeleted(id string)
}

// Actions implements the node toolbar.
type Actions struct {
	graph    graphstore.Store
	surfaces *widget.Surfaces
	launcher EditorLauncher
	notifier DeleteNotifier
}

// NewActions creates toolbar actions. surfaces, launcher and notifier may be nil.
func NewActions(graph graphstore.Store, surfaces *widget.Surfaces, launcher EditorLauncher, notifier DeleteNotifier) *Actions {
	return &Actions{graph: graph, surfaces: surfaces, launcher: launcher, notifier: notifier}
}

// DeleteNode removes node id and its incident edges. Deleting a node that is
// already gone succeeds.
func (a *Actions) DeleteNode(ctx context.Context, id string) error {
	if err := a.graph.Delete(ctx, id); err != nil {
		return fmt.Errorf("nodeview: delete %s: %w", id, err)
	}
	if a.surfaces != nil {
		a.surfaces.Forget(id)
	}
	if a.notifier != nil {
		a.notifier.NodeDeleted(id)
	}
	return nil
}

// OpenEditor hands the current snapshot of node id to the editor launcher and
// returns without waiting for it. Without a launcher it fails with
// apperr.ErrNoEditor.
func (a *Actions) OpenEditor(ctx context.Context, id string) (models.Node, error) {
	n, err := a.graph.Get(ctx, id)
	if err != nil {
		return models.Node{}, fmt.Errorf("nodeview: open editor %s: %w", id, err)
	}
	if a.launcher == nil {
		return models.Node{}, fmt.Errorf("nodeview: open editor %s: %w", id, apperr.ErrNoEditor)
	}
	a.launcher.LaunchEditor(n.Clone())
	return n, nil
}
