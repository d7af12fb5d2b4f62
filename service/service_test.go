package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/skillsenselab/scribeflow/config"
	"github.com/skillsenselab/scribeflow/jobstore"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		PayloadDir: filepath.Join(dir, "payloads"),
		JobStore:   jobstore.Config{Path: filepath.Join(dir, "jobs.db")},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestNewWiresEverything(t *testing.T) {
	s, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	if s.Orchestrator() == nil {
		t.Fatal("no orchestrator")
	}
	id, err := s.Store().Enqueue(context.Background(), jobstore.NewJob{
		MeetingID: "m1", TaskType: jobstore.TaskAudio, ChunkRef: "a.wav",
	})
	if err != nil || id == "" {
		t.Fatalf("enqueue through wired store: %v", err)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Providers.ASR.Backend = "bogus"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unregistered backend")
	}
}

func TestCloseIsIdempotentEnough(t *testing.T) {
	s, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
