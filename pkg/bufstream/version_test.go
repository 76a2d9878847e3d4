package bufstream

import (
	"strings"
	"testing"
)

// TestVersionFormat tests that the computed version string matches the
// version components.
func TestVersionFormat(t *testing.T) {
	// Ensure the version is non-empty.
	if Version == "" {
		t.Fatal("version string is empty")
	}

	// Ensure that it doesn't contain whitespace.
	if strings.ContainsAny(Version, " \t\n") {
		t.Error("version string contains whitespace:", Version)
	}

	// Ensure that the tag is reflected if present.
	if VersionTag != "" && !strings.HasSuffix(Version, "-"+VersionTag) {
		t.Error("version string missing tag:", Version)
	} else if VersionTag == "" && strings.Count(Version, ".") != 2 {
		t.Error("version string has unexpected format:", Version)
	}
}
