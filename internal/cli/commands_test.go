package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetRootFlags()
	scheduleFlags.cron = ""
	for _, k := range []string{
		"EVENTETL_DIR", "EVENTETL_DB", "EVENTETL_TABLE", "EVENTETL_DRIVER",
		"EVENTETL_EPOCH_UNIT", "EVENTETL_SCHEDULE", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeEvents(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestRunCmd_WritesAndInspects(t *testing.T) {
	dir := t.TempDir()
	writeEvents(t, dir, "a.csv", "DATETIME,val\n2024-01-01T10:00:00Z,1\n")
	writeEvents(t, dir, "b.csv", "datetime,val\n2024-01-01T09:00:00,2\nnot-a-date,3\n")
	dbPath := filepath.Join(t.TempDir(), "events.db")

	out, err := execute(t, "run", "--dir", dir, "--db", dbPath, "--table", "clicks")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows written to clicks (success)")
	assert.Contains(t, out, "1 row(s) dropped")

	out, err = execute(t, "inspect", "--db", dbPath, "--table", "clicks")
	require.NoError(t, err)
	assert.Contains(t, out, "table clicks (sqlite): 2 rows")
	assert.Contains(t, out, "datetime")
	assert.Contains(t, out, "TIMESTAMP")
}

func TestRunCmd_EmptyDirectoryIsSuccess(t *testing.T) {
	out, err := execute(t, "run", "--dir", t.TempDir(), "--db", filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "0 rows written to events (empty)")
}

func TestRunCmd_ExitCodes(t *testing.T) {
	noTimestamp := t.TempDir()
	writeEvents(t, noTimestamp, "a.csv", "when,val\n2024-01-01,1\n")
	db := filepath.Join(t.TempDir(), "events.db")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing timestamp column", []string{"run", "--dir", noTimestamp, "--db", db}, ExitSchemaError},
		{"missing source dir", []string{"run", "--dir", filepath.Join(noTimestamp, "nope"), "--db", db}, ExitSourceDirError},
		{"bad driver", []string{"run", "--dir", noTimestamp, "--driver", "oracle"}, ExitConfigError},
		{"bad epoch unit", []string{"run", "--epoch-unit", "days"}, ExitConfigError},
		{"missing config file", []string{"run", "--config", filepath.Join(noTimestamp, "none.yaml")}, ExitConfigError},
		{"unknown flag", []string{"run", "--frobnicate"}, ExitUsageError},
		{"extra args", []string{"run", "extra"}, ExitUsageError},
		{"inspect missing table", []string{"inspect", "--db", db, "--table", "nope"}, ExitStorageError},
		{"schedule without expression", []string{"schedule", "--dir", noTimestamp}, ExitConfigError},
		{"schedule bad expression", []string{"schedule", "--dir", noTimestamp, "--cron", "whenever"}, ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, ExitCodeForError(err), "error: %v", err)
		})
	}
}

func TestRunCmd_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeEvents(t, dir, "a.csv", "datetime,val\n2024-01-01,1\n")
	dbPath := filepath.Join(t.TempDir(), "events.db")
	cfgPath := filepath.Join(t.TempDir(), "eventetl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("dir: "+dir+"\ndb: "+dbPath+"\ntable: from_file\n"), 0644))

	out, err := execute(t, "run", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows written to from_file")

	out, err = execute(t, "run", "--config", cfgPath, "--table", "from_flag")
	require.NoError(t, err)
	assert.Contains(t, out, "written to from_flag")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "eventetl "), "output %q", out)
}

func TestResolveVersionInfo_LdflagsOverride(t *testing.T) {
	original := version
	defer func() { version = original }()

	version = "1.2.3"
	v, _, _ := resolveVersionInfo()
	assert.Equal(t, "1.2.3", v)
}
