package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderOption customizes Load.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path instead of searching.
func WithConfigFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.configFile = path }
}

// WithEnvFile sets an explicit .env file path instead of searching.
func WithEnvFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.envFile = path }
}

// Load reads the service configuration: a YAML config file as the base,
// then a .env file, then process environment variables, later sources
// overriding earlier ones. Missing files are not an error; everything has
// a default. The returned config has defaults applied and is validated.
func Load(opts ...LoaderOption) (*Config, error) {
	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.configFile == "" {
		o.configFile = findFirst("./config.yml", "./config/config.yml", "../config.yml")
	}
	if o.envFile == "" {
		o.envFile = findFirst("./.env", "../.env")
	}

	v := viper.New()
	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", o.configFile, err)
		}
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", o.envFile, err)
		}
	}

	v.SetEnvPrefix("SCRIBEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvOverrides(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnvOverrides maps SCRIBEFLOW_SECTION_KEY variables onto nested viper
// keys so environment overrides work without pre-declaring every key.
// SCRIBEFLOW_JOBSTORE_PATH becomes jobstore.path, and keys whose tail
// itself contains underscores fall back to section.rest_of_key.
func bindEnvOverrides(v *viper.Viper) {
	const prefix = "SCRIBEFLOW_"
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], prefix))
		parts := strings.SplitN(key, "_", 2)
		if len(parts) == 1 {
			v.Set(parts[0], pair[1])
			continue
		}
		v.Set(parts[0]+"."+parts[1], pair[1])
		v.Set(parts[0]+"."+strings.ReplaceAll(parts[1], "_", "."), pair[1])
	}
}

func findFirst(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
