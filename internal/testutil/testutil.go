// Package testutil provides shared test helpers for graph stores and option files.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/starford/nodeforge/internal/graphstore"
	"github.com/starford/nodeforge/internal/graphstore/sqlite"
	"github.com/starford/nodeforge/internal/models"
)

// TestGraph creates a temporary SQLite graph store that is automatically cleaned up.
func TestGraph(t *testing.T) *sqlite.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "nodeforge-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := sqlite.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CountingStore wraps a graph store and records the node written by every
// Update call.
type CountingStore struct {
	graphstore.Store

	mu      sync.Mutex
	updates []models.Node
}

// NewCountingStore wraps inner.
func NewCountingStore(inner graphstore.Store) *CountingStore {
	return &CountingStore{Store: inner}
}

// Update delegates to the wrapped store and records successful writes.
func (c *CountingStore) Update(ctx context.Context, id string, fn graphstore.Updater) (models.Node, error) {
	n, err := c.Store.Update(ctx, id, fn)
	if err == nil {
		c.mu.Lock()
		c.updates = append(c.updates, n.Clone())
		c.mu.Unlock()
	}
	return n, err
}

// Updates returns the recorded writes.
func (c *CountingStore) Updates() []models.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Node, len(c.updates))
	copy(out, c.updates)
	return out
}

// TestOptions returns a populated option snapshot.
func TestOptions() *models.ParameterValueOptions {
	return &models.ParameterValueOptions{
		Providers: []models.Provider{
			{ID: "openai", Name: "OpenAI"},
			{ID: "anthropic", Name: "Anthropic"},
		},
		Models: map[string][]string{
			"openai":    {"gpt-4", "gpt-4o-mini"},
			"anthropic": {"claude-3-5-sonnet", "claude-3-haiku"},
		},
		SourceMaterials: []models.SourceMaterial{
			{ID: "1", Topic: "Onboarding"},
			{ID: "2", Topic: "Billing"},
		},
	}
}

// Seed creates n in store, failing the test on error.
func Seed(t *testing.T, store graphstore.Store, n models.Node) {
	t.Helper()
	if n.Params == nil {
		n.Params = models.Params{}
	}
	if err := store.Create(context.Background(), n); err != nil {
		t.Fatalf("seed node %s: %v", n.ID, err)
	}
}
