package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	stamped := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
		},
	}

	tests := []struct {
		name    string
		version string
		info    *debug.BuildInfo
		want    Info
	}{
		{"no build info", "dev", nil, Info{"dev", "none", "unknown"}},
		{"from toolchain", "dev", stamped, Info{"v0.3.1", "abc123", "2024-05-01T10:00:00Z"}},
		{"ldflags win", "v1.0.0", stamped, Info{"v1.0.0", "abc123", "2024-05-01T10:00:00Z"}},
		{"devel module", "dev", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, Info{"dev", "none", "unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prevVersion, prevRead := Version, readBuildInfo
			t.Cleanup(func() { Version, readBuildInfo = prevVersion, prevRead })

			Version = tt.version
			readBuildInfo = func() (*debug.BuildInfo, bool) { return tt.info, tt.info != nil }

			if got := Get(); got != tt.want {
				t.Errorf("Get() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	prev := readBuildInfo
	t.Cleanup(func() { readBuildInfo = prev })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }

	got := String()
	for _, want := range []string{"version: ", "commit: ", "built: "} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}
