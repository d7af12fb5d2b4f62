package config

import (
	"fmt"

	"github.com/skillsenselab/scribeflow/foreman"
	"github.com/skillsenselab/scribeflow/jargon"
	"github.com/skillsenselab/scribeflow/jobstore"
	"github.com/skillsenselab/scribeflow/logger"
	"github.com/skillsenselab/scribeflow/normalize"
	"github.com/skillsenselab/scribeflow/opsapi"
	"github.com/skillsenselab/scribeflow/orchestrator"
	"github.com/skillsenselab/scribeflow/segment"
	"github.com/skillsenselab/scribeflow/summarize"
	"github.com/skillsenselab/scribeflow/validation"
)

// Config is the root configuration for the pipeline service. Each section
// maps onto one package's Config and is applied at construction time; the
// packages themselves never read files or the environment.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	// PayloadDir is the base directory for chunk, extraction, and note
	// payload files.
	PayloadDir string `yaml:"payload_dir" mapstructure:"payload_dir" validate:"required"`

	Providers     ProvidersConfig     `yaml:"providers" mapstructure:"providers"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	JobStore      jobstore.Config     `yaml:"jobstore" mapstructure:"jobstore"`
	Foreman       foreman.Config      `yaml:"foreman" mapstructure:"foreman"`
	Normalize     normalize.Config    `yaml:"normalize" mapstructure:"normalize"`
	Jargon        jargon.Config       `yaml:"jargon" mapstructure:"jargon"`
	Segment       segment.Config      `yaml:"segment" mapstructure:"segment"`
	Summarize     summarize.Config    `yaml:"summarize" mapstructure:"summarize"`
	Worker        orchestrator.Config `yaml:"worker" mapstructure:"worker"`
	OpsAPI        opsapi.Config       `yaml:"opsapi" mapstructure:"opsapi"`
}

// ObservabilityConfig controls OTLP trace and metric export.
type ObservabilityConfig struct {
	// Enabled turns on OTLP export. Spans and metrics are still recorded
	// against the no-op providers when off.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows cleartext export (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *ObservabilityConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// ProviderConfig selects one capability backend and carries its options.
type ProviderConfig struct {
	// Backend is the registered factory name (e.g. "whisper", "ollama").
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Options is passed through to the backend factory untouched.
	Options map[string]any `yaml:"options" mapstructure:"options"`
}

// ProvidersConfig selects the backend for each external capability.
type ProvidersConfig struct {
	ASR     ProviderConfig `yaml:"asr" mapstructure:"asr"`
	Diarize ProviderConfig `yaml:"diarize" mapstructure:"diarize"`
	LLM     ProviderConfig `yaml:"llm" mapstructure:"llm"`
	Restore ProviderConfig `yaml:"restore" mapstructure:"restore"`
}

// ApplyDefaults sets the stock backend for each unset capability.
func (c *ProvidersConfig) ApplyDefaults() {
	if c.ASR.Backend == "" {
		c.ASR.Backend = "whisper"
	}
	if c.Diarize.Backend == "" {
		c.Diarize.Backend = "pyannote"
	}
	if c.LLM.Backend == "" {
		c.LLM.Backend = "ollama"
	}
	if c.Restore.Backend == "" {
		c.Restore.Backend = "deeppunct"
	}
}

// ApplyDefaults fills every unset field across all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "scribeflow"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.PayloadDir == "" {
		c.PayloadDir = "./data/payloads"
	}
	if c.JobStore.Path == "" {
		c.JobStore.Path = "./data/jobs.db"
	}
	c.Providers.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.JobStore.ApplyDefaults()
	c.Foreman.ApplyDefaults()
	c.Normalize.ApplyDefaults()
	c.Jargon.ApplyDefaults()
	c.Segment.ApplyDefaults()
	c.Summarize.ApplyDefaults()
	c.Worker.ApplyDefaults()
	c.OpsAPI.ApplyDefaults()
}

// Validate checks the configuration across all sections.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.JobStore.Validate(); err != nil {
		return fmt.Errorf("jobstore: %w", err)
	}
	if err := c.OpsAPI.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}
