package models

// Provider is a selectable LLM provider record.
type Provider struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// SourceMaterial is a selectable source-material record.
type SourceMaterial struct {
	ID    string `json:"id" yaml:"id"`
	Topic string `json:"topic" yaml:"topic"`
}

// ParameterValueOptions holds the enumerations used to populate selection
// widgets. It is supplied by an external source and never mutated here.
type ParameterValueOptions struct {
	Providers       []Provider          `json:"providers" yaml:"providers"`
	Models          map[string][]string `json:"models" yaml:"models"`
	SourceMaterials []SourceMaterial    `json:"source_materials" yaml:"source_materials"`
	// DefaultValues holds per-type fallbacks keyed by parameter type tag.
	DefaultValues map[string]Value `json:"default_values,omitempty" yaml:"default_values,omitempty"`
}

// ModelsFor returns the models offered by provider, or nil when the provider
// is unknown or not yet populated.
func (o *ParameterValueOptions) ModelsFor(provider string) []string {
	if o == nil || o.Models == nil {
		return nil
	}
	return o.Models[provider]
}

// DefaultFor returns the per-type default for tag.
func (o *ParameterValueOptions) DefaultFor(tag string) (Value, bool) {
	if o == nil || o.DefaultValues == nil {
		return Value{}, false
	}
	v, ok := o.DefaultValues[tag]
	return v, ok
}
