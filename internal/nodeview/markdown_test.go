package nodeview

import (
	"strings"
	"testing"

	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/testutil"
)

func TestMarkdownRouter(t *testing.T) {
	r := testRenderer(t, nil)
	v := r.Render(models.Node{
		ID:   "r1",
		Type: "RouterNode",
		Params: models.Params{
			"num_outputs": models.String("2"),
			"keywords":    models.List("billing", "a|b"),
		},
	}, testutil.TestOptions())

	md := Markdown(v)
	for _, want := range []string{
		"# Router",
		"`r1` · type `RouterNode` · advanced",
		"| Output 1 Keyword | keyword | billing |",
		`| Output 2 Keyword | keyword | a\|b |`,
		"- in: `input`",
		"- out: `output_0` (billing)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownUnknownType(t *testing.T) {
	r := testRenderer(t, nil)
	md := Markdown(r.Render(models.Node{ID: "g1", Type: "Ghost", Label: "Ghost node"}, nil))
	if !strings.Contains(md, "> **warning:**") {
		t.Errorf("diagnostic not rendered:\n%s", md)
	}
	if strings.Contains(md, "## Parameters") {
		t.Errorf("unknown node should list no parameters:\n%s", md)
	}
}
