package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetVersionFallsBackToDevWhenUnset(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	defer func() { Version, GitCommit = oldVersion, oldCommit }()

	Version, GitCommit = "dev", "unknown"
	if got := GetVersion(); got != "dev" {
		t.Fatalf("GetVersion() = %q, want %q", got, "dev")
	}
}

func TestGetVersionFallsBackToCommitWhenUntagged(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	defer func() { Version, GitCommit = oldVersion, oldCommit }()

	Version, GitCommit = "dev", "abcdef1234567"
	if got := GetVersion(); got != "dev-abcdef1" {
		t.Fatalf("GetVersion() = %q, want %q", got, "dev-abcdef1")
	}
}

func TestGetVersionPrefersTaggedVersion(t *testing.T) {
	oldVersion := Version
	defer func() { Version = oldVersion }()

	Version = "v1.2.3"
	if got := GetVersion(); got != "v1.2.3" {
		t.Fatalf("GetVersion() = %q, want %q", got, "v1.2.3")
	}
}

func TestGetFullVersionIncludesPlatformAndGameVersionRange(t *testing.T) {
	full := GetFullVersion()
	if !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Fatalf("GetFullVersion() missing platform: %s", full)
	}
	if !strings.Contains(full, "Game versions:") {
		t.Fatalf("GetFullVersion() missing game version range: %s", full)
	}
}
