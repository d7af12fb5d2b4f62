package jargon

// Config holds corrector configuration.
type Config struct {
	// Terms is the user-supplied canonical term list, read-only to the
	// corrector. Order matters for tie-breaking.
	Terms []string `yaml:"terms" mapstructure:"terms"`
	// Threshold is the minimum similarity (0-100) required to substitute.
	Threshold int `yaml:"threshold" mapstructure:"threshold" validate:"min=0,max=100"`
	// MinTokenLength skips tokens shorter than this; very short tokens
	// produce too many false matches to be worth scoring.
	MinTokenLength int `yaml:"min_token_length" mapstructure:"min_token_length"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Threshold == 0 {
		c.Threshold = 85
	}
	if c.MinTokenLength == 0 {
		c.MinTokenLength = 4
	}
}
