package jobstore

import (
	"time"

	"github.com/skillsenselab/scribeflow/validation"
)

// Config holds job store configuration.
type Config struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
	// BusyTimeout is how long a writer waits on a locked database before
	// giving up (mapped to SQLite busy_timeout).
	BusyTimeout time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout"`
	// StuckAfter is the age past which a processing job is presumed
	// abandoned and surfaced to the operator.
	StuckAfter time.Duration `yaml:"stuck_after" mapstructure:"stuck_after"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BusyTimeout == 0 {
		c.BusyTimeout = 5 * time.Second
	}
	if c.StuckAfter == 0 {
		c.StuckAfter = 30 * time.Minute
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
