package widget

import (
	"fmt"

	"github.com/starford/nodeforge/internal/models"
	"github.com/starford/nodeforge/internal/paramstore"
	"github.com/starford/nodeforge/internal/paramtype"
)

// KeywordLabel is the label of keyword slot index.
func KeywordLabel(index int) string {
	return fmt.Sprintf("Output %d Keyword", index+1)
}

// SetKeyword returns an edit that overwrites slot index of the list stored
// under name, leaving every other slot and parameter as it was. A missing
// list is started and a short one is padded with empty strings.
func SetKeyword(name string, index int, value string) paramstore.Edit {
	return func(p models.Params) models.Params {
		items := p.Get(name).Items()
		for len(items) <= index {
			items = append(items, "")
		}
		items[index] = value
		return paramstore.UpdateParam(p, name, models.List(items...))
	}
}

func keywordsWidget(desc models.InputParam, c Context) *Widget {
	list := c.Params.Get(desc.Name)
	n := paramtype.SlotCount(c.NodeType, c.Params, desc.Name)

	w := &Widget{
		Name:  desc.Name,
		Type:  desc.Type,
		Label: HumanName(desc.Name),
		Kind:  KindKeywordList,
		Value: list,
		Slots: make([]*Widget, n),
	}
	for i := range n {
		index := i
		w.Slots[i] = &Widget{
			Name:  desc.Name,
			Type:  desc.Type,
			Label: KeywordLabel(index),
			Kind:  KindKeyword,
			Index: index,
			Value: models.String(list.At(index)),
			change: func(raw string) paramstore.Edit {
				return SetKeyword(desc.Name, index, raw)
			},
		}
	}
	return w
}
