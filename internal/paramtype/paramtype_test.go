package paramtype

import (
	"errors"
	"testing"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/models"
)

func TestParseKnownTags(t *testing.T) {
	for _, tag := range Tags() {
		pt, err := Parse(tag)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tag, err)
		}
		if pt.String() != tag {
			t.Errorf("String() = %q, want %q", pt.String(), tag)
		}
	}
}

func TestParseUnknownTag(t *testing.T) {
	pt, err := Parse("frobnicate")
	if !errors.Is(err, apperr.ErrUnknownParamType) {
		t.Fatalf("err = %v, want ErrUnknownParamType", err)
	}
	if pt != Unknown {
		t.Errorf("type = %v, want Unknown", pt)
	}
}

func TestFind(t *testing.T) {
	nt := &models.NodeType{
		Name: "LLM",
		InputParams: []models.InputParam{
			{Name: "prompt", Type: "ExpandableText"},
			{Name: "provider", Type: "LlmProviderId"},
			{Name: "model", Type: "LlmModel"},
		},
	}
	if name, ok := Find(nt, LlmModel); !ok || name != "model" {
		t.Errorf("Find(LlmModel) = %q, %v", name, ok)
	}
	if _, ok := Find(nt, Keywords); ok {
		t.Error("Find(Keywords) should miss")
	}
}

func TestShowAdvanced(t *testing.T) {
	r := NewRegistry([]models.NodeType{
		{Name: "LLMResponseWithPrompt", Advanced: true},
		{Name: "RenderTemplate"},
	})
	if !r.ShowAdvanced("LLMResponseWithPrompt") {
		t.Error("LLMResponseWithPrompt should show advanced")
	}
	if r.ShowAdvanced("RenderTemplate") {
		t.Error("RenderTemplate should not show advanced")
	}
	if r.ShowAdvanced("Missing") {
		t.Error("unknown node type should not show advanced")
	}
}

func TestSlotCount(t *testing.T) {
	router := &models.NodeType{
		Name: "RouterNode",
		InputParams: []models.InputParam{
			{Name: "num_outputs", Type: "NumOutputs"},
			{Name: "keywords", Type: "Keywords"},
		},
	}
	tests := []struct {
		name   string
		params models.Params
		want   int
	}{
		{"empty", models.Params{}, 1},
		{"list length", models.Params{"keywords": models.List("a", "b", "c")}, 3},
		{"num outputs raises", models.Params{"keywords": models.List("a"), "num_outputs": models.String("4")}, 4},
		{"num outputs never truncates", models.Params{"keywords": models.List("a", "b", "c"), "num_outputs": models.String("2")}, 3},
		{"garbage num outputs", models.Params{"keywords": models.List("a", "b"), "num_outputs": models.String("lots")}, 2},
		{"huge num outputs capped", models.Params{"num_outputs": models.String("4611686018427387904")}, MaxSlots},
		{"overflowing num outputs ignored", models.Params{"num_outputs": models.String("99999999999999999999999")}, 1},
		{"negative num outputs", models.Params{"num_outputs": models.String("-3")}, 1},
		{"long list capped", models.Params{"keywords": models.List(make([]string, MaxSlots+10)...)}, MaxSlots},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlotCount(router, tt.params, "keywords"); got != tt.want {
				t.Errorf("SlotCount = %d, want %d", got, tt.want)
			}
		})
	}
}
