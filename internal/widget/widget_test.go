package widget

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/paramstore"
	"github.com/starford/nodeforge/internal/paramtype"
	"github.com/starford/nodeforge/internal/testutil"
)

func llmNode() *models.NodeType {
	return &models.NodeType{
		Name:      "LLM",
		HumanName: "LLM",
		InputParams: []models.InputParam{
			{Name: "llm_provider_id", Type: "LlmProviderId"},
			{Name: "llm_model", Type: "LlmModel"},
			{Name: "prompt", Type: "ExpandableText"},
			{Name: "history_type", Type: "HistoryType"},
			{Name: "source_material_id", Type: "SourceMaterialId"},
			{Name: "max_token_limit", Type: "MaxTokenLimit"},
		},
	}
}

func routerNode() *models.NodeType {
	return &models.NodeType{
		Name: "RouterNode",
		InputParams: []models.InputParam{
			{Name: "num_outputs", Type: "NumOutputs"},
			{Name: "output_keywords", Type: "Keywords"},
		},
	}
}

func quietDispatcher(opts ...DispatcherOption) (*Dispatcher, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewDispatcher(logger, opts...), &buf
}

func TestResolveCoversEveryKnownType(t *testing.T) {
	for _, tag := range paramtype.Tags() {
		if _, err := ResolveTag(tag); err != nil {
			t.Errorf("ResolveTag(%q): %v", tag, err)
		}
	}
	if _, err := Resolve(paramtype.Unknown); !errors.Is(err, apperr.ErrUnknownParamType) {
		t.Errorf("Resolve(Unknown) = %v, want ErrUnknownParamType", err)
	}
}

func TestRenderDeclaredOrder(t *testing.T) {
	d, _ := quietDispatcher()
	ws := d.Render(Context{NodeType: llmNode(), Params: models.Params{}, Options: testutil.TestOptions()})
	var names []string
	for _, w := range ws {
		names = append(names, w.Name)
	}
	want := []string{"llm_provider_id", "llm_model", "prompt", "history_type", "source_material_id", "max_token_limit"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("widget order (-want +got):\n%s", diff)
	}
}

func TestRenderSkipsUnknownType(t *testing.T) {
	var skipped []string
	d, logs := quietDispatcher(WithSkipHook(func(nodeType, tag string) {
		skipped = append(skipped, nodeType+"/"+tag)
	}))
	nt := &models.NodeType{
		Name: "Weird",
		InputParams: []models.InputParam{
			{Name: "before", Type: "str"},
			{Name: "mystery", Type: "frobnicate"},
			{Name: "after", Type: "ExpandableText"},
		},
	}
	ws := d.Render(Context{NodeType: nt, Params: models.Params{"before": models.String("x")}})

	if len(ws) != 2 || ws[0].Name != "before" || ws[1].Name != "after" {
		t.Fatalf("widgets = %+v, want before and after", ws)
	}
	if ws[0].Value.String() != "x" {
		t.Errorf("sibling value = %q", ws[0].Value.String())
	}
	if diff := cmp.Diff([]string{"Weird/frobnicate"}, skipped); diff != "" {
		t.Errorf("skip hook (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "frobnicate") {
		t.Errorf("diagnostic missing from log: %s", logs.String())
	}
}

func TestTextAndNumberAreVerbatim(t *testing.T) {
	d, _ := quietDispatcher()
	c := Context{NodeType: llmNode(), Params: models.Params{"max_token_limit": models.String("100")}}
	w, err := d.Dispatch(models.InputParam{Name: "max_token_limit", Type: "MaxTokenLimit"}, c)
	if err != nil {
		t.Fatal(err)
	}
	if w.Kind != KindNumber || w.Step != "1" {
		t.Errorf("kind = %s step = %s", w.Kind, w.Step)
	}
	got := w.Change("not a number")(c.Params)
	if got.Get("max_token_limit").String() != "not a number" {
		t.Errorf("value = %q, want raw input", got.Get("max_token_limit").String())
	}
}

func TestProviderChangeResetsModel(t *testing.T) {
	d, _ := quietDispatcher()
	params := models.Params{
		"llm_provider_id": models.String("openai"),
		"llm_model":       models.String("gpt-4"),
	}
	c := Context{NodeType: llmNode(), Params: params, Options: testutil.TestOptions()}
	w, _ := d.Dispatch(models.InputParam{Name: "llm_provider_id", Type: "LlmProviderId"}, c)

	got := w.Change("anthropic")(params)
	want := models.Params{
		"llm_provider_id": models.String("anthropic"),
		"llm_model":       models.String(""),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("params (-want +got):\n%s", diff)
	}
	if params.Get("llm_model").String() != "gpt-4" {
		t.Error("edit mutated its input")
	}
}

func TestProviderChangeWithoutModelParam(t *testing.T) {
	d, _ := quietDispatcher()
	nt := &models.NodeType{
		Name: "Embedder",
		InputParams: []models.InputParam{
			{Name: "llm_provider_id", Type: "LlmProviderId"},
			{Name: "prompt", Type: "str"},
		},
	}
	params := models.Params{
		"llm_provider_id": models.String("openai"),
		"prompt":          models.String("hi"),
	}
	w, _ := d.Dispatch(nt.InputParams[0], Context{NodeType: nt, Params: params, Options: testutil.TestOptions()})

	got := w.Change("anthropic")(params)
	want := models.Params{
		"llm_provider_id": models.String("anthropic"),
		"prompt":          models.String("hi"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("params (-want +got):\n%s", diff)
	}
}

func TestProviderReselectKeepsModel(t *testing.T) {
	params := models.Params{
		"llm_provider_id": models.String("openai"),
		"llm_model":       models.String("gpt-4"),
	}
	got := SelectProvider("llm_provider_id", "llm_model", "openai")(params)
	if got.Get("llm_model").String() != "gpt-4" {
		t.Errorf("model = %q, want gpt-4 kept", got.Get("llm_model").String())
	}
}

func TestProviderWidgetOptions(t *testing.T) {
	d, _ := quietDispatcher()
	w, _ := d.Dispatch(models.InputParam{Name: "llm_provider_id", Type: "LlmProviderId"},
		Context{NodeType: llmNode(), Params: models.Params{}, Options: testutil.TestOptions()})
	want := []Option{{Value: "openai", Label: "OpenAI"}, {Value: "anthropic", Label: "Anthropic"}}
	if diff := cmp.Diff(want, w.Options); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
	if w.Placeholder == nil || !w.Placeholder.Disabled {
		t.Errorf("placeholder = %+v, want disabled", w.Placeholder)
	}
}

func TestModelOptionsFollowProvider(t *testing.T) {
	d, _ := quietDispatcher()
	desc := models.InputParam{Name: "llm_model", Type: "LlmModel"}

	w, _ := d.Dispatch(desc, Context{
		NodeType: llmNode(),
		Params:   models.Params{"llm_provider_id": models.String("anthropic")},
		Options:  testutil.TestOptions(),
	})
	if len(w.Options) != 2 || w.Options[0].Value != "claude-3-5-sonnet" {
		t.Errorf("options = %+v", w.Options)
	}

	w, _ = d.Dispatch(desc, Context{
		NodeType: llmNode(),
		Params:   models.Params{"llm_provider_id": models.String("mistral")},
		Options:  testutil.TestOptions(),
	})
	if len(w.Options) != 0 {
		t.Errorf("unpopulated provider options = %+v, want none", w.Options)
	}

	w, _ = d.Dispatch(desc, Context{NodeType: llmNode(), Params: models.Params{}})
	if len(w.Options) != 0 {
		t.Errorf("nil option snapshot options = %+v, want none", w.Options)
	}
}

func TestPersistedModelRenderedAsIs(t *testing.T) {
	d, _ := quietDispatcher()
	w, _ := d.Dispatch(models.InputParam{Name: "llm_model", Type: "LlmModel"}, Context{
		NodeType: llmNode(),
		Params: models.Params{
			"llm_provider_id": models.String("mistral"),
			"llm_model":       models.String("mistral-large"),
		},
		Options: &models.ParameterValueOptions{},
	})
	if w.Value.String() != "mistral-large" {
		t.Errorf("value = %q, want persisted model kept", w.Value.String())
	}
}

func TestSourceMaterialAndHistory(t *testing.T) {
	d, _ := quietDispatcher()
	c := Context{NodeType: llmNode(), Params: models.Params{}, Options: testutil.TestOptions()}

	sm, _ := d.Dispatch(models.InputParam{Name: "source_material_id", Type: "SourceMaterialId"}, c)
	if sm.Placeholder == nil || sm.Placeholder.Label != "Select a topic" || sm.Placeholder.Disabled {
		t.Errorf("placeholder = %+v", sm.Placeholder)
	}
	if len(sm.Options) != 2 || sm.Options[1].Label != "Billing" {
		t.Errorf("options = %+v", sm.Options)
	}

	h, _ := d.Dispatch(models.InputParam{Name: "history_type", Type: "HistoryType"}, c)
	if diff := cmp.Diff(HistoryModes, h.Options); diff != "" {
		t.Errorf("history options (-want +got):\n%s", diff)
	}
	got := h.Change("global")(c.Params)
	if got.Get("history_type").String() != "global" {
		t.Errorf("history = %q", got.Get("history_type").String())
	}
}

func TestKeywordSlotEdit(t *testing.T) {
	d, _ := quietDispatcher()
	params := models.Params{
		"output_keywords": models.List("a", "b"),
		"num_outputs":     models.String("2"),
	}
	w, _ := d.Dispatch(models.InputParam{Name: "output_keywords", Type: "Keywords"},
		Context{NodeType: routerNode(), Params: params})

	if w.Kind != KindKeywordList || len(w.Slots) != 2 {
		t.Fatalf("widget = %+v", w)
	}
	slot, ok := w.Slot(1)
	if !ok {
		t.Fatal("slot 1 missing")
	}
	if slot.Label != "Output 2 Keyword" || slot.Value.String() != "b" {
		t.Errorf("slot = %+v", slot)
	}

	got := slot.Change("z")(params)
	if diff := cmp.Diff(models.List("a", "z"), got.Get("output_keywords")); diff != "" {
		t.Errorf("keywords (-want +got):\n%s", diff)
	}
	if got.Get("num_outputs").String() != "2" {
		t.Error("sibling parameter changed")
	}
	if params.Get("output_keywords").At(1) != "b" {
		t.Error("edit mutated its input list")
	}
}

func TestKeywordSlotIsolation(t *testing.T) {
	params := models.Params{"kw": models.List("a", "b", "c", "d")}
	for i := 0; i < 4; i++ {
		got := SetKeyword("kw", i, "x")(params)
		for j := 0; j < 4; j++ {
			want := params.Get("kw").At(j)
			if j == i {
				want = "x"
			}
			if got.Get("kw").At(j) != want {
				t.Errorf("slot %d after editing %d = %q, want %q", j, i, got.Get("kw").At(j), want)
			}
		}
	}
}

func TestKeywordSlotStartsAndPadsList(t *testing.T) {
	got := SetKeyword("kw", 2, "c")(models.Params{})
	if diff := cmp.Diff(models.List("", "", "c"), got.Get("kw")); diff != "" {
		t.Errorf("keywords (-want +got):\n%s", diff)
	}
}

func TestHumanName(t *testing.T) {
	tests := map[string]string{
		"llm_provider_id": "Llm Provider Id",
		"émetteur_nom":    "Émetteur Nom",
		"__x__":           "X",
		"":                "",
	}
	for in, want := range tests {
		got := HumanName(in)
		if got != want {
			t.Errorf("HumanName(%q) = %q, want %q", in, got, want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("HumanName(%q) is not valid UTF-8", in)
		}
	}
}

func TestProviderChangeCommitsOnce(t *testing.T) {
	ctx := context.Background()
	graph := testutil.NewCountingStore(testutil.TestGraph(t))
	testutil.Seed(t, graph, models.Node{
		ID:   "n1",
		Type: "LLM",
		Params: models.Params{
			"llm_provider_id": models.String("openai"),
			"llm_model":       models.String("gpt-4"),
		},
	})

	store, err := paramstore.Load(ctx, graph, "n1", nil)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := quietDispatcher()
	ws := d.Render(Context{NodeType: llmNode(), Params: store.Params(), Options: testutil.TestOptions()})
	w, ok := Find(ws, "llm_provider_id")
	if !ok {
		t.Fatal("provider widget missing")
	}

	if _, err := store.Apply(ctx, w.Change("anthropic")); err != nil {
		t.Fatal(err)
	}

	if n := len(graph.Updates()); n != 1 {
		t.Errorf("graph updates = %d, want 1", n)
	}
	stored, err := graph.Get(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	want := models.Params{
		"llm_provider_id": models.String("anthropic"),
		"llm_model":       models.String(""),
	}
	if diff := cmp.Diff(want, stored.Params); diff != "" {
		t.Errorf("stored params (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(stored.Params, store.Params()); diff != "" {
		t.Errorf("cached params diverge from store (-stored +cached):\n%s", diff)
	}
}
