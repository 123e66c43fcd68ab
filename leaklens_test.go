// ABOUTME: Tests for the main leaklens package, verifying project structure and imports
// ABOUTME: These tests ensure the basic package setup is working correctly

package leaklens_test

import (
	"testing"

	"github.com/prateek/leaklens"
)

func TestProjectStructure(t *testing.T) {
	// Verify the version constant exists and is non-empty
	if leaklens.Version == "" {
		t.Error("Version constant should not be empty")
	}

	// Verify version format (should be semantic versioning)
	expectedPrefix := "0."
	if len(leaklens.Version) < len(expectedPrefix) || leaklens.Version[:len(expectedPrefix)] != expectedPrefix {
		t.Errorf("Version should start with %q, got %q", expectedPrefix, leaklens.Version)
	}
}

func TestPackageImport(t *testing.T) {
	// This test verifies that the package can be imported and used
	// The actual test is that this file compiles successfully
	t.Log("Package import successful")
}
