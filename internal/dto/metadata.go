package dto

// ManifestMetadata represents the top-level mapping of a manifest file after validation.
// It uses "mapstructure" tags to match the YAML/JSON keys; anything the schema does not
// name lands in Extra.
type ManifestMetadata struct {
	ID          string   `json:"id" mapstructure:"id"`
	Kind        string   `json:"kind" mapstructure:"kind"`
	Version     string   `json:"version" mapstructure:"version"`
	Title       string   `json:"title" mapstructure:"title"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	Tags        []string `json:"tags,omitempty" mapstructure:"tags"`

	// Sections is decoded from the YAML node tree instead, to keep declaration order.
	Sections map[string]any `json:"-" mapstructure:"sections"`

	Extra map[string]any `json:"extra,omitempty" mapstructure:",remain"`
}
