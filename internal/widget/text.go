package widget

import (
	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/paramstore"
)

// scalarChange writes raw verbatim under name.
func scalarChange(name string) func(string) paramstore.Edit {
	return func(raw string) paramstore.Edit {
		return paramstore.Set(name, models.String(raw))
	}
}

func textWidget(desc models.InputParam, c Context) *Widget {
	return &Widget{
		Name:   desc.Name,
		Type:   desc.Type,
		Label:  HumanName(desc.Name),
		Kind:   KindText,
		Value:  c.Params.Get(desc.Name),
		change: scalarChange(desc.Name),
	}
}

// numberWidget accepts any string; coercion is the consumer's job.
func numberWidget(step string) Builder {
	return func(desc models.InputParam, c Context) *Widget {
		return &Widget{
			Name:   desc.Name,
			Type:   desc.Type,
			Label:  HumanName(desc.Name),
			Kind:   KindNumber,
			Step:   step,
			Value:  c.Params.Get(desc.Name),
			change: scalarChange(desc.Name),
		}
	}
}

// expandableTextWidget has an inline and an expanded presentation sharing
// one value and one change handler.
func expandableTextWidget(desc models.InputParam, c Context) *Widget {
	return &Widget{
		Name:    desc.Name,
		Type:    desc.Type,
		Label:   HumanName(desc.Name),
		Kind:    KindTextarea,
		Value:   c.Params.Get(desc.Name),
		Surface: &SurfaceState{},
		change:  scalarChange(desc.Name),
	}
}
