package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/versions"
	"github.com/stretchr/testify/require"
)

// RequireFileExists asserts that a file exists and optionally checks its content
func RequireFileExists(t *testing.T, path string, checks ...func(content string)) {
	t.Helper()

	require.FileExists(t, path, "File should exist: %s", path)

	if len(checks) > 0 {
		content, err := os.ReadFile(path)
		require.NoError(t, err, "Failed to read file: %s", path)

		contentStr := string(content)
		for _, check := range checks {
			check(contentStr)
		}
	}
}

// RequireFileContains returns a check function that verifies file contains text
func RequireFileContains(t *testing.T, expected string) func(string) {
	return func(content string) {
		require.Contains(t, content, expected, "File should contain: %s", expected)
	}
}

// RequireNoFile asserts that a file does not exist
func RequireNoFile(t *testing.T, path string) {
	t.Helper()
	require.NoFileExists(t, path, "File should not exist: %s", path)
}

// RequireVersions asserts the records of the bookkeeping table of the database at
// path, sorted by table name.
func RequireVersions(t *testing.T, path, versionsTable string, expected ...versions.Record) {
	t.Helper()

	helper := store.SQLite(path)
	defer func() { _ = helper.Close() }()

	reader, err := helper.Reader(context.Background())
	require.NoError(t, err)

	set, err := versions.New(versionsTable).Load(context.Background(), reader)
	require.NoError(t, err)

	if len(expected) == 0 {
		require.Zero(t, set.Len())
		return
	}

	require.Equal(t, expected, set.Records())
}
