package sqlite

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "nodeforge-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM nodes`).Scan(&count); err != nil {
		t.Fatalf("nodes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM edges`).Scan(&count); err != nil {
		t.Fatalf("edges table missing: %v", err)
	}
}

func TestCreateAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := models.Node{
		ID:    "n1",
		Type:  "RouterNode",
		Label: "Router",
		Params: models.Params{
			"prompt":   models.String("route it"),
			"keywords": models.List("a", "b"),
		},
	}
	if err := db.Create(ctx, n); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := db.Get(ctx, "n1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Params.Equal(n.Params) {
		t.Errorf("params = %v, want %v", got.Params, n.Params)
	}
	if got.Type != "RouterNode" || got.Label != "Router" {
		t.Errorf("node = %+v", got)
	}
}

func TestCreateDuplicate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	n := models.Node{ID: "dup", Type: "RenderTemplate", Params: models.Params{}}
	if err := db.Create(ctx, n); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Create(ctx, n); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second Create = %v, want ErrAlreadyExists", err)
	}
}

func TestGetMissing(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
}

func TestUpdateAppliesUpdater(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.Create(ctx, models.Node{ID: "n1", Type: "LLM", Params: models.Params{"a": models.String("1")}})

	got, err := db.Update(ctx, "n1", func(old models.Node) (models.Node, error) {
		old.Params = old.Params.With("b", models.String("2"))
		return old, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Params.Get("a").String() != "1" || got.Params.Get("b").String() != "2" {
		t.Errorf("returned params = %v", got.Params)
	}
	stored, _ := db.Get(ctx, "n1")
	if !stored.Params.Equal(got.Params) {
		t.Errorf("stored params = %v, want %v", stored.Params, got.Params)
	}
}

func TestUpdateAbortLeavesNode(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.Create(ctx, models.Node{ID: "n1", Type: "LLM", Params: models.Params{"a": models.String("1")}})

	boom := errors.New("boom")
	_, err := db.Update(ctx, "n1", func(old models.Node) (models.Node, error) {
		return models.Node{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update = %v, want boom", err)
	}
	stored, _ := db.Get(ctx, "n1")
	if stored.Params.Get("a").String() != "1" {
		t.Errorf("params changed after aborted update: %v", stored.Params)
	}
}

func TestUpdateMissing(t *testing.T) {
	db := testDB(t)
	_, err := db.Update(context.Background(), "ghost", func(old models.Node) (models.Node, error) {
		return old, nil
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Update = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesEdgesAndIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = db.Create(ctx, models.Node{ID: id, Type: "LLM", Params: models.Params{}})
	}
	_ = db.Connect(ctx, models.Edge{ID: "e1", Source: "a", SourceHandle: "output", Target: "b", TargetHandle: "input"})
	_ = db.Connect(ctx, models.Edge{ID: "e2", Source: "b", SourceHandle: "output", Target: "c", TargetHandle: "input"})
	_ = db.Connect(ctx, models.Edge{ID: "e3", Source: "a", SourceHandle: "output", Target: "c", TargetHandle: "input"})

	if err := db.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := db.Delete(ctx, "b"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}

	edges, err := db.Edges(ctx)
	if err != nil {
		t.Fatalf("Edges: %v", err)
	}
	if len(edges) != 1 || edges[0].ID != "e3" {
		t.Errorf("edges = %+v, want only e3", edges)
	}
	nodes, _ := db.List(ctx)
	if len(nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(nodes))
	}
}
