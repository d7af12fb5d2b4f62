package segment

// Config holds segmenter configuration.
type Config struct {
	// MaxChunkWords is the word budget per chunk, sized to fit the
	// downstream context window. A topic exceeding it is force-split.
	MaxChunkWords int `yaml:"max_chunk_words" mapstructure:"max_chunk_words"`
	// OverlapSentences is how many trailing sentences of a chunk are
	// repeated at the start of the next chunk.
	OverlapSentences int `yaml:"overlap_sentences" mapstructure:"overlap_sentences" validate:"min=0,max=2"`
	// WindowSentences is the sliding-window size for the cohesion score.
	WindowSentences int `yaml:"window_sentences" mapstructure:"window_sentences"`
	// BoundaryThreshold is the cohesion score below which a gap between
	// sentences becomes a chunk boundary. Lower values split less.
	BoundaryThreshold float64 `yaml:"boundary_threshold" mapstructure:"boundary_threshold"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxChunkWords == 0 {
		c.MaxChunkWords = 1000
	}
	if c.OverlapSentences == 0 {
		c.OverlapSentences = 1
	}
	if c.WindowSentences == 0 {
		c.WindowSentences = 4
	}
	if c.BoundaryThreshold == 0 {
		c.BoundaryThreshold = 0.1
	}
}
