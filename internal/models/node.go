// Package models defines the domain types for the pipeline node editor.
package models

import "time"

// InputParam declares one configurable parameter of a node type.
type InputParam struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Default *Value `json:"default,omitempty" yaml:"default,omitempty"`
}

// NodeType is a named class of pipeline step with a fixed parameter schema.
type NodeType struct {
	Name        string       `json:"name" yaml:"name"`
	HumanName   string       `json:"human_name" yaml:"human_name"`
	InputParams []InputParam `json:"input_params" yaml:"input_params"`
	Advanced    bool         `json:"advanced,omitempty" yaml:"advanced,omitempty"`
	Outputs     string       `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Param returns the descriptor named name, if declared.
func (t *NodeType) Param(name string) (InputParam, bool) {
	for _, p := range t.InputParams {
		if p.Name == name {
			return p, true
		}
	}
	return InputParam{}, false
}

// Position is a node's canvas coordinate.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is one placed occurrence of a node type.
type Node struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Label     string    `json:"label"`
	Position  Position  `json:"position"`
	Params    Params    `json:"params"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of n whose Params map is independent of n's.
func (n Node) Clone() Node {
	n.Params = n.Params.Clone()
	return n
}

// Edge is a directed connection between an output handle and a node input.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"source_handle"`
	Target       string `json:"target"`
	TargetHandle string `json:"target_handle"`
}
