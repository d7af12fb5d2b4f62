package summarize

// Config holds summarizer configuration.
type Config struct {
	// Model overrides the provider's default model.
	Model string `yaml:"model" mapstructure:"model"`
	// Temperature for all summarization calls. Low by default; the flow
	// depends on repeatable output far more than on variety.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// MaxTokens caps each response. 0 means provider default.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
	// MaxSourceWords caps the concatenated extraction text fed to the
	// synthesis; longer input is truncated with a marker.
	MaxSourceWords int `yaml:"max_source_words" mapstructure:"max_source_words"`
	// RefineIterations is the number of density-refinement passes after
	// the reduce step. Negative disables refinement.
	RefineIterations int `yaml:"refine_iterations" mapstructure:"refine_iterations" validate:"min=-1,max=10"`
	// MapConcurrency is the number of chunks extracted in parallel by
	// MapAll. 1 keeps cross-chunk continuity headers.
	MapConcurrency int `yaml:"map_concurrency" mapstructure:"map_concurrency"`
	// DropSpeakers omits the speaker-preservation instruction from the
	// extraction prompt. Speakers are preserved by default.
	DropSpeakers bool `yaml:"drop_speakers" mapstructure:"drop_speakers"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxSourceWords == 0 {
		c.MaxSourceWords = 6000
	}
	if c.RefineIterations == 0 {
		c.RefineIterations = 3
	}
	if c.MapConcurrency == 0 {
		c.MapConcurrency = 1
	}
}
