package registry

// Source describes one configured origin of syndicated content. Sources are
// declared as YAML files in the sources directory; the file name (without
// extension) becomes the unique source name.
type Source struct {
	Name        string            // Derived from filename (without .yml extension)
	URL         string            `yaml:"url" validate:"required,url"`
	Type        string            `yaml:"type" validate:"omitempty,oneof=blog podcast social"`
	Category    string            `yaml:"category"`
	Description string            `yaml:"description"`
	Settings    SourceSettings    `yaml:"settings"`
	Metadata    map[string]string `yaml:"metadata"`
}

type SourceSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval" validate:"gte=0"` // seconds
	MaxItems        int  `yaml:"max_items" validate:"gte=0"`
	Timeout         int  `yaml:"timeout" validate:"gte=0"` // seconds
	TLSInsecure     bool `yaml:"tls_insecure"`
	ExtractContent  bool `yaml:"extract_content"`
}
