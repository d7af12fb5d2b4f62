package logger

import (
	"testing"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format console, got %s", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("job_id", "j1", "stage", "align")
	if m["job_id"] != "j1" || m["stage"] != "align" {
		t.Errorf("unexpected fields map: %v", m)
	}
	if len(m) != 2 {
		t.Errorf("expected 2 fields, got %d", len(m))
	}
}

func TestGetFallsBackToComponentLogger(t *testing.T) {
	l := Get("unregistered-component")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := NewDefault("test")
	Register("foreman", l)
	if got := Get("foreman"); got != l {
		t.Error("expected registered logger instance")
	}
}
