package models

import (
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Value is a parameter value: either a scalar string or an ordered list of
// strings. The zero Value is the empty scalar.
type Value struct {
	scalar string
	list   []string
	isList bool
}

// String returns a scalar Value.
func String(s string) Value {
	return Value{scalar: s}
}

// List returns a list Value holding a copy of items.
func List(items ...string) Value {
	return Value{list: slices.Clone(items), isList: true}
}

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.isList }

// String returns the scalar form. For a list it returns the first element,
// or "" when the list is empty.
func (v Value) String() string {
	if v.isList {
		if len(v.list) == 0 {
			return ""
		}
		return v.list[0]
	}
	return v.scalar
}

// Items returns a copy of the list form. A non-empty scalar is returned as a
// one-element list; the empty scalar yields nil.
func (v Value) Items() []string {
	if v.isList {
		return slices.Clone(v.list)
	}
	if v.scalar == "" {
		return nil
	}
	return []string{v.scalar}
}

// Len returns the number of list items, or 0 for a scalar.
func (v Value) Len() int {
	if !v.isList {
		return 0
	}
	return len(v.list)
}

// At returns list item i, or "" when i is out of range.
func (v Value) At(i int) string {
	if !v.isList || i < 0 || i >= len(v.list) {
		return ""
	}
	return v.list[i]
}

// Equal reports whether v and o hold the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.isList != o.isList {
		return false
	}
	if v.isList {
		return slices.Equal(v.list, o.list)
	}
	return v.scalar == o.scalar
}

// MarshalJSON encodes v as a JSON string or array of strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.scalar)
}

// UnmarshalJSON accepts a string, an array of strings, a number, a bool or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML encodes v as a YAML scalar or sequence.
func (v Value) MarshalYAML() (any, error) {
	if v.isList {
		if v.list == nil {
			return []string{}, nil
		}
		return v.list, nil
	}
	return v.scalar, nil
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts a loosely typed decoded value into a Value. Numbers and
// booleans are kept as their textual form since values are never coerced.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return String(x), nil
	case []string:
		return List(x...), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			s, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			if s.isList {
				return Value{}, fmt.Errorf("models: nested list values are not supported")
			}
			items = append(items, s.scalar)
		}
		return List(items...), nil
	case bool, int, int64, float64, float32, uint64:
		return String(fmt.Sprint(x)), nil
	default:
		return Value{}, fmt.Errorf("models: unsupported value type %T", raw)
	}
}

// Params maps parameter names to their current values.
type Params map[string]Value

// Clone returns a shallow copy of p. List values share no backing storage
// with p because Value never exposes its slice.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// With returns a copy of p with name set to value. p is not modified.
func (p Params) With(name string, value Value) Params {
	out := p.Clone()
	out[name] = value
	return out
}

// Get returns the value for name, or the empty scalar when absent.
func (p Params) Get(name string) Value {
	return p[name]
}

// Equal reports whether p and o hold the same keys and values.
func (p Params) Equal(o Params) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
