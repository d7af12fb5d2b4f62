package foreman

import (
	"time"

	"github.com/skillsenselab/scribeflow/jobstore"
)

// Config holds foreman configuration.
type Config struct {
	// AcquireTimeout is how long an Acquire call waits before giving up
	// with a retryable lock-timeout error.
	AcquireTimeout time.Duration `yaml:"acquire_timeout" mapstructure:"acquire_timeout"`
	// MaxHoldDuration is the hold time after which a holder is presumed
	// dead and the lock is force-reclaimed. Zero disables reclaim.
	MaxHoldDuration time.Duration `yaml:"max_hold_duration" mapstructure:"max_hold_duration"`
	// Priority orders task types for lock handoff when several are
	// waiting; earlier entries win. Task types not listed rank last in
	// declaration order.
	Priority []jobstore.TaskType `yaml:"priority" mapstructure:"priority"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields. The default
// priority serves diarization-bearing audio work first, then visual
// analysis, then summary synthesis, matching the stage dependency order
// within a meeting.
func (c *Config) ApplyDefaults() {
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = 10 * time.Minute
	}
	if c.MaxHoldDuration == 0 {
		c.MaxHoldDuration = 20 * time.Minute
	}
	if len(c.Priority) == 0 {
		c.Priority = []jobstore.TaskType{jobstore.TaskAudio, jobstore.TaskVisual, jobstore.TaskSummary}
	}
}

// priorityOf returns the rank of a task type; lower is served first.
func (c *Config) priorityOf(taskType jobstore.TaskType) int {
	for i, t := range c.Priority {
		if t == taskType {
			return i
		}
	}
	return len(c.Priority)
}
