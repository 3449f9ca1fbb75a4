package buildinfo

import (
	"strings"
	"testing"
)

func withBuild(t *testing.T, version, commit, built string) {
	t.Helper()
	oldVersion, oldCommit, oldBuilt := Version, Commit, BuildTime
	Version, Commit, BuildTime = version, commit, built
	t.Cleanup(func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuilt })
}

func TestFullVersion(t *testing.T) {
	tests := []struct {
		version, commit, want string
	}{
		{"dev", "", "dev"},
		{"1.0.0", "", "1.0.0"},
		{"1.0.0", "abc1234", "1.0.0 (abc1234)"},
	}
	for _, tt := range tests {
		withBuild(t, tt.version, tt.commit, "")
		if got := FullVersion(); got != tt.want {
			t.Errorf("FullVersion() = %q, want %q", got, tt.want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	withBuild(t, "1.2.3", "", "")
	if got := UserAgent(); got != "davi-tap-lab/1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestBuildInfo(t *testing.T) {
	withBuild(t, "1.0.0", "abc1234", "2024-01-01T00:00:00Z")
	info := BuildInfo()

	for _, want := range []string{"davi-tap-lab 1.0.0 (abc1234)", Description, "Go: ", "OS/Arch: ", "Built: 2024-01-01T00:00:00Z"} {
		if !strings.Contains(info, want) {
			t.Errorf("BuildInfo() missing %q:\n%s", want, info)
		}
	}

	withBuild(t, "dev", "", "")
	if strings.Contains(BuildInfo(), "Built:") {
		t.Error("BuildInfo() shows a build time that was not set")
	}
	if !IsDev() {
		t.Error("IsDev() = false for a dev build")
	}
}
