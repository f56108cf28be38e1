package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lixenwraith/mongolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// executeCommand runs a fresh root command with args and returns captured output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestEmitAndCat(t *testing.T) {
	dir := t.TempDir()

	out, err := executeCommand(t,
		"--set", "directory="+dir, "--set", "gzip=true",
		"emit", "-s", "W", "--component", "net", "--id", "12345", "--ctx", "accept",
		"-m", "connection dropped", "--attr", `{"peer": "10.0.0.1", "retries": 3}`)
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_log.gz"))

	records, err := mongolog.ReadLogFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, mongolog.SeverityWarn, records[0].Severity)
	assert.Equal(t, int64(12345), records[0].ID)

	out, err = executeCommand(t, "cat", path)
	require.NoError(t, err)
	assert.Contains(t, out, "connection dropped")
	assert.Contains(t, out, "[12345] accept")
	assert.Contains(t, out, "10.0.0.1")

	out, err = executeCommand(t, "cat", "--severity", "E", path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEmitRejectsInvalidEntry(t *testing.T) {
	dir := t.TempDir()

	_, err := executeCommand(t, "--set", "directory="+dir, "emit", "-s", "X", "-m", "bad severity")
	require.Error(t, err)
	assert.ErrorIs(t, err, mongolog.ErrTypeMismatch)
}

func TestEmitRejectsBadAttr(t *testing.T) {
	_, err := executeCommand(t, "--set", "directory="+t.TempDir(), "emit", "--attr", "{not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --attr")
}

func TestCleanupCommand(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i := range 4 {
		id := primitive.NewObjectIDFromTimestamp(base.Add(time.Duration(i) * time.Second))
		require.NoError(t, os.WriteFile(filepath.Join(dir, id.Hex()+"_log"), nil, 0o600))
	}

	out, err := executeCommand(t, "--set", "directory="+dir, "--set", "max_log_file_count=1", "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 3 log files")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCleanupWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "mongolog.toml")
	content := "[mongolog]\ndirectory = \"" + filepath.ToSlash(dir) + "\"\nretention_days = 1.0\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	old := primitive.NewObjectIDFromTimestamp(time.Now().Add(-48 * time.Hour))
	fresh := primitive.NewObjectID()
	require.NoError(t, os.WriteFile(filepath.Join(dir, old.Hex()+"_log"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, fresh.Hex()+"_log.gz"), nil, 0o600))

	out, err := executeCommand(t, "--config", cfgPath, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 log files")

	_, err = os.Stat(filepath.Join(dir, fresh.Hex()+"_log.gz"))
	assert.NoError(t, err)
}

func TestInvalidOverride(t *testing.T) {
	_, err := executeCommand(t, "--set", "retention_days=0", "cleanup")
	assert.Error(t, err)

	_, err = executeCommand(t, "--set", "no_such_key=1", "cleanup")
	assert.Error(t, err)
}

func TestCatEscapesControlCharacters(t *testing.T) {
	dir := t.TempDir()
	out, err := executeCommand(t, "--set", "directory="+dir,
		"emit", "--id", "1", "-m", "two\nlines \x1b[2J")
	require.NoError(t, err)
	path := strings.TrimSpace(out)

	out, err = executeCommand(t, "cat", path)
	require.NoError(t, err)
	assert.Contains(t, out, `two\nlines \x1b[2J`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}
