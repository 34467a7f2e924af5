package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if !strings.HasPrefix(Version, "v") {
		t.Errorf("Version %q should start with v", Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if len(info.Revision) > 12 {
		t.Errorf("Revision not shortened: %q", info.Revision)
	}
}

func TestShortRevision(t *testing.T) {
	tests := map[string]string{
		"":                                         "",
		"abc123":                                   "abc123",
		"0123456789abcdef0123456789abcdef01234567": "0123456789ab",
	}
	for in, want := range tests {
		if got := shortRevision(in); got != want {
			t.Errorf("shortRevision(%q) = %q, want %q", in, got, want)
		}
	}
}
