package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestConvertCommands(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "jalaliflow.yaml")

	out, err := run(t, cfg, "convert", "to-gregorian", "1404/01/01")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-21\n", out)

	out, err = run(t, cfg, "convert", "to-jalali", "2025-03-21", "-f", "Y-m-d")
	require.NoError(t, err)
	assert.Equal(t, "۱۴۰۴-۰۱-۰۱\n", out)

	out, err = run(t, cfg, "add", "1404/06/31", "1", "month")
	require.NoError(t, err)
	assert.Equal(t, "1404/07/30\n", out)

	out, err = run(t, cfg, "diff", "1404/01/01", "1404/01/11")
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)

	_, err = run(t, cfg, "convert", "to-gregorian", "1404/13/01")
	assert.Error(t, err)
}

func TestHolidaysCommand(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "jalaliflow.yaml")

	out, err := run(t, cfg, "holidays", "1404")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "1404/01/01"))
	assert.Contains(t, lines[0], "2025-03-21")

	out, err = run(t, cfg, "holidays", "1404", "--ics")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Equal(t, 6, strings.Count(out, "BEGIN:VEVENT"))

	_, err = run(t, cfg, "holidays", "1600")
	assert.Error(t, err)
}

func TestEventsCommands(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "jalaliflow.yaml")

	id, err := run(t, cfg, "events", "add", "--name", "Rent", "--frequency", "monthly",
		"--start", "1404/01/31", "--invoke", "log.info", "--arg", "rent")
	require.NoError(t, err)
	id = strings.TrimSpace(id)
	require.NotEmpty(t, id)

	out, err := run(t, cfg, "events", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Rent")
	assert.Contains(t, out, "log.info")

	out, err = run(t, cfg, "events", "upcoming", id, "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, "1404/01/31\n1404/02/31\n1404/03/31\n", out)

	out, err = run(t, cfg, "run-events", "--date", "1404/02/01")
	require.NoError(t, err)
	assert.Equal(t, "1404/02/01: 1 executed, 0 failed\n", out)

	out, err = run(t, cfg, "events", "upcoming", id, "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, "1404/02/31\n", out)

	_, err = run(t, cfg, "events", "add", "--name", "Bad", "--frequency", "hourly", "--invoke", "log.info")
	assert.Error(t, err)
	_, err = run(t, cfg, "events", "add", "--name", "Bad", "--frequency", "daily", "--invoke", "nodot")
	assert.Error(t, err)

	_, err = run(t, cfg, "events", "delete", id)
	require.NoError(t, err)
	_, err = run(t, cfg, "events", "upcoming", id)
	assert.Error(t, err)
}

func TestMigrateNeedsMySQL(t *testing.T) {
	t.Setenv("JALALIFLOW_DSN", "")
	cfg := filepath.Join(t.TempDir(), "jalaliflow.yaml")
	_, err := run(t, cfg, "migrate", "version")
	assert.ErrorContains(t, err, "mysql")
}
