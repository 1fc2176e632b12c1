package testsupport

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
)

// UpdateGoldenEnv names the environment variable that, when set to a
// non-empty value, makes CompareWithGolden rewrite golden files.
const UpdateGoldenEnv = "UPDATE_GOLDEN"

func mustRead(t testing.TB, kind, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("testsupport: read %s %s: %v", kind, path, err)
	}
	return data
}

// LoadFixture returns the bytes of a fixture file, relative to the test
// package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()
	return mustRead(t, "fixture", path)
}

// LoadFixtureJSON decodes a JSON fixture into dest.
// Numbers decode as json.Number so large ids and hashes stay exact.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(mustRead(t, "fixture", path)))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		t.Fatalf("testsupport: decode fixture %s: %v", path, err)
	}
}

// LoadGolden returns the bytes of a golden file.
func LoadGolden(t testing.TB, path string) []byte {
	t.Helper()
	return mustRead(t, "golden", path)
}

// WriteGolden writes data to path, creating parent directories.
func WriteGolden(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("testsupport: golden dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("testsupport: write golden %s: %v", path, err)
	}
}

// CompareWithGolden compares actual with the golden file at path. A missing
// golden file is created from actual; UPDATE_GOLDEN overwrites an existing one.
// Trailing newlines are ignored on both sides.
func CompareWithGolden(t testing.TB, path string, actual []byte) {
	t.Helper()

	if os.Getenv(UpdateGoldenEnv) != "" {
		WriteGolden(t, path, actual)
		return
	}

	expected, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		t.Logf("testsupport: creating golden %s", path)
		WriteGolden(t, path, actual)
		return
	case err != nil:
		t.Fatalf("testsupport: read golden %s: %v", path, err)
	}

	if !bytes.Equal(bytes.TrimRight(actual, "\n"), bytes.TrimRight(expected, "\n")) {
		t.Errorf("golden mismatch for %s:\nwant:\n%s\ngot:\n%s", path, expected, actual)
	}
}

// FixturePath joins filename onto the package testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath joins filename onto testdata/golden.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}
