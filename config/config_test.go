package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load(WithConfigFile(""), WithEnvFile(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "scribeflow" || cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("unexpected base defaults: %+v", cfg)
	}
	if cfg.JobStore.Path != "./data/jobs.db" {
		t.Errorf("jobstore.path default: %q", cfg.JobStore.Path)
	}
	if cfg.Foreman.AcquireTimeout != 10*time.Minute {
		t.Errorf("foreman.acquire_timeout default: %v", cfg.Foreman.AcquireTimeout)
	}
	if cfg.Summarize.MaxSourceWords != 6000 {
		t.Errorf("summarize.max_source_words default: %d", cfg.Summarize.MaxSourceWords)
	}
	if cfg.OpsAPI.Port != 8080 {
		t.Errorf("opsapi.port default: %d", cfg.OpsAPI.Port)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: meeting-pipeline
environment: production
payload_dir: /var/lib/pipeline/payloads
jobstore:
  path: /var/lib/pipeline/jobs.db
jargon:
  terms: [moexipril, kubernetes]
  threshold: 90
opsapi:
  port: 9090
  enabled: true
`)

	cfg, err := Load(WithConfigFile(path), WithEnvFile(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "meeting-pipeline" || cfg.Environment != "production" {
		t.Errorf("base fields: %+v", cfg)
	}
	if cfg.Debug {
		t.Error("debug should stay off outside development")
	}
	if cfg.JobStore.Path != "/var/lib/pipeline/jobs.db" {
		t.Errorf("jobstore.path: %q", cfg.JobStore.Path)
	}
	if len(cfg.Jargon.Terms) != 2 || cfg.Jargon.Threshold != 90 {
		t.Errorf("jargon section: %+v", cfg.Jargon)
	}
	if cfg.OpsAPI.Port != 9090 || !cfg.OpsAPI.Enabled {
		t.Errorf("opsapi section: %+v", cfg.OpsAPI)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
jobstore:
  path: /from/file.db
`)
	t.Setenv("SCRIBEFLOW_JOBSTORE_PATH", "/from/env.db")

	cfg, err := Load(WithConfigFile(path), WithEnvFile(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.JobStore.Path != "/from/env.db" {
		t.Errorf("jobstore.path = %q, want env override", cfg.JobStore.Path)
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "SCRIBEFLOW_OPSAPI_PORT=7070\n")
	t.Cleanup(func() { os.Unsetenv("SCRIBEFLOW_OPSAPI_PORT") })

	cfg, err := Load(WithConfigFile(""), WithEnvFile(envPath))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OpsAPI.Port != 7070 {
		t.Errorf("opsapi.port = %d, want 7070", cfg.OpsAPI.Port)
	}
}

func TestInvalidEnvironmentRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "environment: sandbox\n")
	if _, err := Load(WithConfigFile(path), WithEnvFile("")); err == nil {
		t.Fatal("expected validation error for unknown environment")
	}
}
