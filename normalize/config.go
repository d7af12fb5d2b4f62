package normalize

// Config holds normalizer configuration.
type Config struct {
	// Language is passed through to the restoration capability.
	Language string `yaml:"language" mapstructure:"language"`
	// Fillers is the list of disfluency tokens to strip after restoration.
	Fillers []string `yaml:"fillers" mapstructure:"fillers"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if len(c.Fillers) == 0 {
		c.Fillers = []string{"um", "uh", "er", "erm", "ah", "hmm", "mhm", "mm-hmm", "uh-huh"}
	}
}
