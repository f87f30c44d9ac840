// Package paramtype defines the closed set of parameter types a node schema
// may declare, and node-type level lookups that do not depend on individual
// parameters.
package paramtype

import (
	"fmt"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/models"
)

// ParamType identifies the editor a parameter is rendered with.
type ParamType int

const (
	Unknown ParamType = iota
	Text
	ExpandableText
	Keywords
	LlmProviderID
	LlmModel
	SourceMaterialID
	HistoryType
	MaxTokenLimit
	LlmTemperature
	NumOutputs
)

var tags = [...]string{
	Unknown:          "",
	Text:             "str",
	ExpandableText:   "ExpandableText",
	Keywords:         "Keywords",
	LlmProviderID:    "LlmProviderId",
	LlmModel:         "LlmModel",
	SourceMaterialID: "SourceMaterialId",
	HistoryType:      "HistoryType",
	MaxTokenLimit:    "MaxTokenLimit",
	LlmTemperature:   "LlmTemperature",
	NumOutputs:       "NumOutputs",
}

var byTag = func() map[string]ParamType {
	m := make(map[string]ParamType, len(tags))
	for t, tag := range tags {
		if tag != "" {
			m[tag] = ParamType(t)
		}
	}
	return m
}()

// String returns the wire tag for t.
func (t ParamType) String() string {
	if t < 0 || int(t) >= len(tags) || t == Unknown {
		return "unknown"
	}
	return tags[t]
}

// Parse maps a declared tag to its ParamType. An unrecognised tag returns
// Unknown and an error wrapping apperr.ErrUnknownParamType.
func Parse(tag string) (ParamType, error) {
	if t, ok := byTag[tag]; ok {
		return t, nil
	}
	return Unknown, fmt.Errorf("paramtype: %q: %w", tag, apperr.ErrUnknownParamType)
}

// Of parses the type tag of p.
func Of(p models.InputParam) (ParamType, error) {
	return Parse(p.Type)
}

// Tags returns every known wire tag in declaration order.
func Tags() []string {
	out := make([]string, 0, len(tags)-1)
	for _, tag := range tags[1:] {
		out = append(out, tag)
	}
	return out
}

// Find returns the name of the first parameter of nt declared with type t.
func Find(nt *models.NodeType, t ParamType) (string, bool) {
	if nt == nil {
		return "", false
	}
	for _, p := range nt.InputParams {
		if pt, err := Of(p); err == nil && pt == t {
			return p.Name, true
		}
	}
	return "", false
}
