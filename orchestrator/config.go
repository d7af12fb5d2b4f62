package orchestrator

import (
	"time"

	"github.com/skillsenselab/scribeflow/jobstore"
)

// Config holds worker loop configuration.
type Config struct {
	// PollInterval is how long a worker sleeps after finding no claimable
	// work before polling again.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	// MaxBackoff caps the idle sleep. The sleep doubles on each empty
	// poll and resets to PollInterval when a job is claimed.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// TaskTypes restricts which task types a worker claims. Empty means
	// all task types.
	TaskTypes []jobstore.TaskType `yaml:"task_types" mapstructure:"task_types"`
	// StuckAfter is the processing age beyond which Reconcile reports a
	// job as stuck.
	StuckAfter time.Duration `yaml:"stuck_after" mapstructure:"stuck_after"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if len(c.TaskTypes) == 0 {
		c.TaskTypes = []jobstore.TaskType{jobstore.TaskAudio, jobstore.TaskVisual, jobstore.TaskSummary}
	}
	if c.StuckAfter == 0 {
		c.StuckAfter = 30 * time.Minute
	}
}
