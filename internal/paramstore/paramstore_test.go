package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/testutil"
)

func llmType() *models.NodeType {
	tmpl := models.String("Hello {input}")
	return &models.NodeType{
		Name: "LLMResponseWithPrompt",
		InputParams: []models.InputParam{
			{Name: "llm_provider_id", Type: "LlmProviderId"},
			{Name: "llm_model", Type: "LlmModel"},
			{Name: "prompt", Type: "ExpandableText", Default: &tmpl},
			{Name: "max_token_limit", Type: "MaxTokenLimit"},
			{Name: "keywords", Type: "Keywords"},
		},
	}
}

func TestSeedMergesDefaultsAndPersisted(t *testing.T) {
	opts := &models.ParameterValueOptions{
		DefaultValues: map[string]models.Value{
			"MaxTokenLimit": models.String("8192"),
		},
	}
	persisted := models.Params{
		"llm_provider_id": models.String("openai"),
		"stale":           models.String("dropped"),
	}

	got := Seed(llmType(), persisted, opts)
	want := models.Params{
		"llm_provider_id": models.String("openai"),
		"llm_model":       models.String(""),
		"prompt":          models.String("Hello {input}"),
		"max_token_limit": models.String("8192"),
		"keywords":        models.List(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Seed mismatch (-want +got):\n%s", diff)
	}
}

func TestSeedEmptyDefaultFallsThrough(t *testing.T) {
	empty := models.String("")
	nt := &models.NodeType{
		Name: "Limited",
		InputParams: []models.InputParam{
			{Name: "max_token_limit", Type: "MaxTokenLimit", Default: &empty},
			{Name: "subject", Type: "str", Default: &empty},
		},
	}
	opts := &models.ParameterValueOptions{
		DefaultValues: map[string]models.Value{"MaxTokenLimit": models.String("4096")},
	}
	got := Seed(nt, nil, opts)
	want := models.Params{
		"max_token_limit": models.String("4096"),
		"subject":         models.String(""),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Seed mismatch (-want +got):\n%s", diff)
	}
}

func TestSeedKeepsPersistedOverDefault(t *testing.T) {
	got := Seed(llmType(), models.Params{"prompt": models.String("custom")}, nil)
	if got.Get("prompt").String() != "custom" {
		t.Errorf("prompt = %q, want custom", got.Get("prompt").String())
	}
	if len(got) != len(llmType().InputParams) {
		t.Errorf("len = %d, want %d", len(got), len(llmType().InputParams))
	}
}

func TestUpdateParamShallowCopy(t *testing.T) {
	base := models.Params{"a": models.String("1"), "b": models.String("2")}
	next := UpdateParam(base, "a", models.String("9"))
	if base.Get("a").String() != "1" {
		t.Error("UpdateParam mutated its input")
	}
	if next.Get("a").String() != "9" || next.Get("b").String() != "2" {
		t.Errorf("next = %v", next)
	}
}

type recordingNotifier struct {
	nodes []models.Node
}

func (r *recordingNotifier) NodeUpdated(n models.Node) { r.nodes = append(r.nodes, n) }

func TestApplyWritesGraphAndSnapshot(t *testing.T) {
	graph := testutil.NewCountingStore(testutil.TestGraph(t))
	testutil.Seed(t, graph, models.Node{ID: "n1", Type: "LLM", Params: models.Params{"a": models.String("1")}})
	notifier := &recordingNotifier{}

	ctx := context.Background()
	s, err := Load(ctx, graph, "n1", notifier)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s.Apply(ctx, Set("b", models.String("2"))); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	stored, _ := graph.Get(ctx, "n1")
	if !stored.Params.Equal(s.Params()) {
		t.Errorf("graph %v and snapshot %v diverged", stored.Params, s.Params())
	}
	if len(graph.Updates()) != 1 {
		t.Errorf("graph updates = %d, want 1", len(graph.Updates()))
	}
	if len(notifier.nodes) != 1 || notifier.nodes[0].Params.Get("b").String() != "2" {
		t.Errorf("notifications = %+v", notifier.nodes)
	}
}

func TestApplySiblingEditsCommute(t *testing.T) {
	graph := testutil.TestGraph(t)
	testutil.Seed(t, graph, models.Node{ID: "n1", Type: "LLM"})
	ctx := context.Background()

	// Two stores loaded in the same render cycle; neither sees the other's edit
	// in its cache, but both edits land because each runs on canonical params.
	s1, _ := Load(ctx, graph, "n1", nil)
	s2, _ := Load(ctx, graph, "n1", nil)
	if _, err := s1.Apply(ctx, Set("a", models.String("1"))); err != nil {
		t.Fatal(err)
	}
	if _, err := s2.Apply(ctx, Set("b", models.String("2"))); err != nil {
		t.Fatal(err)
	}

	stored, _ := graph.Get(ctx, "n1")
	if stored.Params.Get("a").String() != "1" || stored.Params.Get("b").String() != "2" {
		t.Errorf("stored = %v, want both a and b", stored.Params)
	}
}

func TestApplyFailureLeavesSnapshot(t *testing.T) {
	graph := testutil.TestGraph(t)
	testutil.Seed(t, graph, models.Node{ID: "n1", Type: "LLM", Params: models.Params{"a": models.String("1")}})
	ctx := context.Background()
	s, _ := Load(ctx, graph, "n1", nil)

	_ = graph.Delete(ctx, "n1")
	_, err := s.Apply(ctx, Set("a", models.String("2")))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Apply = %v, want ErrNotFound", err)
	}
	if s.Params().Get("a").String() != "1" {
		t.Errorf("snapshot changed after failed apply: %v", s.Params())
	}
}

func TestLoadMissing(t *testing.T) {
	graph := testutil.TestGraph(t)
	if _, err := Load(context.Background(), graph, "ghost", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Load = %v, want ErrNotFound", err)
	}
}
