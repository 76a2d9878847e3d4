package profile

import (
	"os"
	"path/filepath"
	"testing"
)

// TestProfile tests that a profile can be created and finalized and that it
// produces its output files.
func TestProfile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test")
	profile, err := New(name)
	if err != nil {
		t.Fatal("unable to start profile:", err)
	} else if err = profile.Finalize(); err != nil {
		t.Fatal("unable to finalize profile:", err)
	}
	for _, suffix := range []string{"_cpu.prof", "_heap.prof"} {
		if _, err := os.Stat(name + suffix); err != nil {
			t.Error("profile output missing:", err)
		}
	}
}
