package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// StubBinary writes an executable shell script with the given name into
// a temp directory and returns its full path.
func StubBinary(t testing.TB, name, script string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

// StubBinaryOnPath writes an executable shell script into a directory
// prepended to PATH for the remainder of the test.
func StubBinaryOnPath(t testing.TB, name, script string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return path
}
