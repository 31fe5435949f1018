// Package testutil provides golden file testing utilities.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "update golden files")

// CompareGolden compares the actual output with the golden file content.
// Line endings are normalised to \n on both sides so wire formats that use
// CRLF, such as mail messages, can be kept as plain text golden files.
// If the -update flag is provided, it updates the golden file with the actual output.
func CompareGolden(t *testing.T, goldenPath string, actual string) {
	t.Helper()

	actual = normalizeNewlines(actual)

	if *update {
		updateGoldenFile(t, goldenPath, actual)
		return
	}

	expected := normalizeNewlines(readGoldenFile(t, goldenPath))
	if actual != expected {
		t.Errorf("Golden file mismatch for %s\nExpected:\n%s\nActual:\n%s", goldenPath, expected, actual)
	}
}

// CompareGoldenBytes compares the actual output with the golden file content using byte slices.
func CompareGoldenBytes(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()
	CompareGolden(t, goldenPath, string(actual))
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// readGoldenFile reads the content of a golden file.
func readGoldenFile(t *testing.T, goldenPath string) string {
	t.Helper()

	content, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v", goldenPath, err)
	}
	return string(content)
}

// updateGoldenFile updates the golden file with the actual output.
func updateGoldenFile(t *testing.T, goldenPath string, actual string) {
	t.Helper()

	dir := filepath.Dir(goldenPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(goldenPath, []byte(actual), 0o644); err != nil {
		t.Fatalf("Failed to update golden file %s: %v", goldenPath, err)
	}
	t.Logf("Updated golden file: %s", goldenPath)
}
