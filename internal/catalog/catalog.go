// Package catalog loads the node-type catalog: the fixed parameter schema of
// every node type the editor can place.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/models"
)

//go:embed default.yaml
var defaultCatalog []byte

// Output kinds a node type may declare.
const (
	OutputsDefault  = "default"
	OutputsKeywords = "keywords"
	OutputsBoolean  = "boolean"
	OutputsNone     = "none"
)

type file struct {
	NodeTypes []models.NodeType `yaml:"node_types"`
}

// Catalog is an immutable, validated set of node types.
type Catalog struct {
	types []models.NodeType
	index map[string]int
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(f.NodeTypes)
}

// New validates types and builds a catalog from them. Parameter types are not
// checked here: an unrecognised type is reported when a node of that type is
// rendered.
func New(types []models.NodeType) (*Catalog, error) {
	c := &Catalog{
		types: make([]models.NodeType, 0, len(types)),
		index: make(map[string]int, len(types)),
	}
	for i := range types {
		t := types[i]
		if t.Outputs == "" {
			t.Outputs = OutputsDefault
		}
		if t.HumanName == "" {
			t.HumanName = t.Name
		}
		if err := validateType(&t); err != nil {
			return nil, fmt.Errorf("catalog: node type %d (%s): %w", i, t.Name, err)
		}
		if _, dup := c.index[t.Name]; dup {
			return nil, fmt.Errorf("catalog: node type %s: %w", t.Name, apperr.ErrAlreadyExists)
		}
		c.index[t.Name] = len(c.types)
		c.types = append(c.types, t)
	}
	return c, nil
}

func validateType(t *models.NodeType) error {
	if err := validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Outputs, validation.In(OutputsDefault, OutputsKeywords, OutputsBoolean, OutputsNone)),
	); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(t.InputParams))
	for _, p := range t.InputParams {
		if err := validation.ValidateStruct(&p,
			validation.Field(&p.Name, validation.Required),
			validation.Field(&p.Type, validation.Required),
		); err != nil {
			return fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("parameter %q: %w", p.Name, apperr.ErrAlreadyExists)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Get returns the node type named name.
func (c *Catalog) Get(name string) (*models.NodeType, error) {
	i, ok := c.index[name]
	if !ok {
		return nil, fmt.Errorf("catalog: %s: %w", name, apperr.ErrUnknownNodeType)
	}
	t := c.types[i]
	return &t, nil
}

// Has reports whether name is a catalog node type.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Types returns the node types in declaration order.
func (c *Catalog) Types() []models.NodeType {
	out := make([]models.NodeType, len(c.types))
	copy(out, c.types)
	return out
}

// Names returns the node type names sorted alphabetically.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.index))
	for name := range c.index {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
