package encoding

import (
	"testing"
)

// testMessageYAML is a test structure to use for encoding tests using YAML.
type testMessageYAML struct {
	Section struct {
		Name string `yaml:"name"`
		Age  uint   `yaml:"age"`
	} `yaml:"section"`
}

const (
	// testMessageYAMLString is the YAML-encoded form of the YAML test data.
	testMessageYAMLString = `
section:
  name: "Abraham"
  age: 56
`
	// testMessageYAMLName is the YAML test name.
	testMessageYAMLName = "Abraham"
	// testMessageYAMLAge is the YAML test age.
	testMessageYAMLAge = 56
)

// TestLoadAndUnmarshalYAML tests that loading and unmarshaling YAML data
// succeeds.
func TestLoadAndUnmarshalYAML(t *testing.T) {
	// Write the test YAML to a temporary file.
	path := writeTemporaryFile(t, testMessageYAMLString)

	// Attempt to load and unmarshal.
	value := &testMessageYAML{}
	if err := LoadAndUnmarshalYAML(path, value); err != nil {
		t.Fatal("LoadAndUnmarshalYAML failed:", err)
	}

	// Verify test values.
	if value.Section.Name != testMessageYAMLName {
		t.Error("test message name mismatch:", value.Section.Name, "!=", testMessageYAMLName)
	}
	if value.Section.Age != testMessageYAMLAge {
		t.Error("test message age mismatch:", value.Section.Age, "!=", testMessageYAMLAge)
	}
}

// TestLoadAndUnmarshalYAMLUnknownField tests that unknown fields are rejected.
func TestLoadAndUnmarshalYAMLUnknownField(t *testing.T) {
	path := writeTemporaryFile(t, "section:\n  name: Abraham\n  height: 193\n")
	if LoadAndUnmarshalYAML(path, &testMessageYAML{}) == nil {
		t.Error("expected unknown field to be rejected")
	}
}

// TestLoadAndUnmarshalYAMLEmpty tests that an empty document leaves the value
// untouched.
func TestLoadAndUnmarshalYAMLEmpty(t *testing.T) {
	path := writeTemporaryFile(t, "")
	value := &testMessageYAML{}
	value.Section.Name = "unchanged"
	if err := LoadAndUnmarshalYAML(path, value); err != nil {
		t.Fatal("LoadAndUnmarshalYAML failed on empty document:", err)
	} else if value.Section.Name != "unchanged" {
		t.Error("empty document modified value")
	}
}
