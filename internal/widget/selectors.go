package widget

import (
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/paramstore"
	"github.com/starford/nodeforge/internal/paramtype"
)

const defaultProviderParam = "llm_provider_id"

// HistoryModes are the choices of a history-mode selector.
var HistoryModes = []Option{
	{Value: "none", Label: "No History"},
	{Value: "node", Label: "Node"},
	{Value: "global", Label: "Global"},
	{Value: "named", Label: "Named"},
}

// dependentModel names the model parameter that a provider change resets,
// or "" when nt declares none.
func dependentModel(nt *models.NodeType) string {
	name, _ := paramtype.Find(nt, paramtype.LlmModel)
	return name
}

// governingProvider names the provider parameter a model selector reads.
func governingProvider(nt *models.NodeType) string {
	if name, ok := paramtype.Find(nt, paramtype.LlmProviderID); ok {
		return name
	}
	return defaultProviderParam
}

// SelectProvider returns the edit for choosing provider under name. When the
// choice differs from the current provider the dependent model is cleared in
// the same edit; re-selecting the current provider keeps the model. An empty
// modelParam means there is no model to clear.
func SelectProvider(name, modelParam, provider string) paramstore.Edit {
	return func(p models.Params) models.Params {
		current := p.Get(name)
		next := paramstore.UpdateParam(p, name, models.String(provider))
		if modelParam != "" && (current.IsList() || current.String() != provider) {
			next = paramstore.UpdateParam(next, modelParam, models.String(""))
		}
		return next
	}
}

func providerWidget(desc models.InputParam, c Context) *Widget {
	var providers []models.Provider
	if c.Options != nil {
		providers = c.Options.Providers
	}
	opts := make([]Option, 0, len(providers))
	for _, p := range providers {
		opts = append(opts, Option{Value: p.ID, Label: p.Name})
	}
	modelParam := dependentModel(c.NodeType)
	return &Widget{
		Name:        desc.Name,
		Type:        desc.Type,
		Label:       HumanName(desc.Name),
		Kind:        KindSelect,
		Value:       c.Params.Get(desc.Name),
		Placeholder: &Option{Value: "", Label: "Select a provider", Disabled: true},
		Options:     opts,
		change: func(raw string) paramstore.Edit {
			return SelectProvider(desc.Name, modelParam, raw)
		},
	}
}

// modelWidget offers the models of the currently selected provider. A
// provider with no entries yields a selector with no choices.
func modelWidget(desc models.InputParam, c Context) *Widget {
	provider := c.Params.Get(governingProvider(c.NodeType)).String()
	names := c.Options.ModelsFor(provider)
	opts := make([]Option, 0, len(names))
	for _, m := range names {
		opts = append(opts, Option{Value: m, Label: m})
	}
	return &Widget{
		Name:        desc.Name,
		Type:        desc.Type,
		Label:       HumanName(desc.Name),
		Kind:        KindSelect,
		Value:       c.Params.Get(desc.Name),
		Placeholder: &Option{Value: "", Label: "Select a model", Disabled: true},
		Options:     opts,
		change:      scalarChange(desc.Name),
	}
}

func sourceMaterialWidget(desc models.InputParam, c Context) *Widget {
	var materials []models.SourceMaterial
	if c.Options != nil {
		materials = c.Options.SourceMaterials
	}
	opts := make([]Option, 0, len(materials))
	for _, m := range materials {
		opts = append(opts, Option{Value: m.ID, Label: m.Topic})
	}
	return &Widget{
		Name:        desc.Name,
		Type:        desc.Type,
		Label:       HumanName(desc.Name),
		Kind:        KindSelect,
		Value:       c.Params.Get(desc.Name),
		Placeholder: &Option{Value: "", Label: "Select a topic"},
		Options:     opts,
		change:      scalarChange(desc.Name),
	}
}

func historyTypeWidget(desc models.InputParam, c Context) *Widget {
	opts := make([]Option, len(HistoryModes))
	copy(opts, HistoryModes)
	return &Widget{
		Name:    desc.Name,
		Type:    desc.Type,
		Label:   HumanName(desc.Name),
		Kind:    KindSelect,
		Value:   c.Params.Get(desc.Name),
		Options: opts,
		change:  scalarChange(desc.Name),
	}
}
