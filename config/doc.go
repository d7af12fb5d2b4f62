// Package config loads the root service configuration from a YAML file,
// a .env file, and SCRIBEFLOW_-prefixed environment variables, in that
// override order, then applies per-section defaults and validates the
// result. Construction code receives a fully resolved Config and never
// touches files or the environment itself.
package config
