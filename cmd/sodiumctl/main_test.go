package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	body := "app:\n  env: test\n" +
		"database:\n  driver: sqlite\n  sqlite_path: " + filepath.Join(dir, "sodium.db") + "\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runCtl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUserDeviceAndImportCommands(t *testing.T) {
	t.Setenv("NATS_URL", "")
	t.Setenv("SODIUM_NATS_URL", "")
	cfg := writeTestConfig(t)

	_, err := runCtl(t, "--config", cfg, "migrate")
	require.NoError(t, err)

	out, err := runCtl(t, "--config", cfg, "user", "create", "alice", "--tz", "Asia/Kolkata")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 36)

	_, err = runCtl(t, "--config", cfg, "user", "create", "alice")
	require.Error(t, err)

	out, err = runCtl(t, "--config", cfg, "device", "create", "alice", "--name", "Kitchen spoon")
	require.NoError(t, err)
	assert.Contains(t, out, "name:  Kitchen spoon")
	assert.Contains(t, out, "token: ")

	out, err = runCtl(t, "--config", cfg, "device", "list", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Kitchen spoon")
	assert.Contains(t, out, "never")

	_, err = runCtl(t, "--config", cfg, "device", "list", "nobody")
	require.ErrorContains(t, err, `no user named "nobody"`)

	csvPath := filepath.Join(t.TempDir(), "meals.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,sodium_mg\nSoup,800\nBad,abc\n"), 0o600))
	out, err = runCtl(t, "--config", cfg, "import", "alice", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 meals, skipped 1 rows")
	assert.Contains(t, out, "skipped line 3")
}

func TestEventsTailNeedsNATS(t *testing.T) {
	t.Setenv("NATS_URL", "")
	t.Setenv("SODIUM_NATS_URL", "")
	cfg := writeTestConfig(t)
	_, err := runCtl(t, "--config", cfg, "events", "tail")
	require.ErrorContains(t, err, "nats.url is not configured")
}

func TestEventsOnlyTails(t *testing.T) {
	events, _, err := newRootCmd().Find([]string{"events"})
	require.NoError(t, err)

	var names []string
	for _, c := range events.Commands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"tail"}, names)
}
