package version

import (
	"strings"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	info := Get()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
}

func TestStringStartsWithVersion(t *testing.T) {
	if !strings.HasPrefix(String(), Version) {
		t.Errorf("String() = %q does not start with %q", String(), Version)
	}
}
