package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/pillbox/pkg/medicines"
	"github.com/unowned-ai/pillbox/pkg/reminders"
	"github.com/unowned-ai/pillbox/pkg/views"
)

func TestMain(m *testing.M) {
	initCmd()
	os.Exit(m.Run())
}

// resetFlags puts every flag of c and its subcommands back to its default,
// since the commands are package globals shared between tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type cliEnv struct {
	t      *testing.T
	config string
	db     string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, key := range []string{"PILLBOX_CONFIG", "PILLBOX_DB", "PILLBOX_BACKEND", "PILLBOX_FILE", "PILLBOX_NOTIFY_GRANT"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte("log_level: error\nsave_delay: 0s\n"), 0o600))
	return &cliEnv{t: t, config: config, db: filepath.Join(dir, "pillbox.db")}
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	resetFlags(rootCmd)

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

func (e *cliEnv) add(name, at string, extra ...string) medicines.MedicineRecord {
	e.t.Helper()
	args := append([]string{"add", "--json", "--name", name, "--dosage", "500", "--time", at}, extra...)
	var rec medicines.MedicineRecord
	require.NoError(e.t, json.Unmarshal([]byte(e.mustRun(args...)), &rec))
	return rec
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"add", "list", "today", "toggle", "delete", "clear", "calendar", "history",
		"reminders", "daemon", "mcp", "tui", "db", "version", "completion",
	}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestVersionCommand(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("version")
	assert.NotEmpty(t, out)
}

func TestAddTodayToggle(t *testing.T) {
	e := newCLIEnv(t)

	rec := e.add("Aspirin", "08:00")
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "500 mg", rec.Dosage)
	assert.Equal(t, medicines.TypeTablet, rec.Type)
	assert.Equal(t, medicines.FrequencyOnceDaily, rec.Frequency)
	assert.False(t, rec.Taken)

	var schedule views.TodaySchedule
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("today", "--json")), &schedule))
	assert.Equal(t, 1, schedule.Total)
	assert.Equal(t, 0, schedule.Taken)

	e.mustRun("toggle", rec.ID)

	require.NoError(t, json.Unmarshal([]byte(e.mustRun("today", "--json")), &schedule))
	assert.Equal(t, 1, schedule.Taken)
	assert.Equal(t, 100, schedule.Percent)
}

func TestAddSchedulesReminders(t *testing.T) {
	e := newCLIEnv(t)
	e.add("Ibuprofen", "09:00", "--frequency", "8h")

	var pending []reminders.Reminder
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("reminders", "list", "--json")), &pending))
	require.Len(t, pending, 3)
	for _, r := range pending {
		assert.Equal(t, "Time to take Ibuprofen", r.Body)
	}

	e.mustRun("reminders", "cancel-all")
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("reminders", "list", "--json")), &pending))
	assert.Empty(t, pending)

	e.mustRun("reminders", "resync")
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("reminders", "list", "--json")), &pending))
	assert.Len(t, pending, 3)
}

func TestAddWithPermissionDenied(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("reminders", "deny")

	out := e.mustRun("add", "--name", "Aspirin", "--dosage", "500", "--time", "08:00")
	assert.Contains(t, out, "Notifications are not allowed")

	var pending []reminders.Reminder
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("reminders", "list", "--json")), &pending))
	assert.Empty(t, pending)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run("add", "--name", "Aspirin", "--dosage", "500", "--time", "25:99")
	require.Error(t, err)

	_, err = e.run("add", "--name", "Aspirin", "--dosage", "500", "--time", "08:00", "--start-date", "2025-02-30")
	require.ErrorIs(t, err, medicines.ErrInvalidDraft)

	out := e.mustRun("list")
	assert.Contains(t, out, "No medicines added yet.")
}

func TestToggleAndDeleteUnknownID(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run("toggle", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medicine not found")

	_, err = e.run("delete", "missing")
	require.Error(t, err)
}

func TestDeleteAndClear(t *testing.T) {
	e := newCLIEnv(t)
	a := e.add("Aspirin", "08:00")
	e.add("Vitamin D", "09:00")

	e.mustRun("delete", a.ID)
	out := e.mustRun("list")
	assert.NotContains(t, out, "Aspirin")
	assert.Contains(t, out, "Vitamin D")

	_, err := e.run("clear")
	require.Error(t, err)

	out = e.mustRun("clear", "--yes")
	assert.Contains(t, out, "Cleared 1 medicine(s).")
	assert.Contains(t, e.mustRun("list"), "No medicines added yet.")
}

func TestHistoryAndClear(t *testing.T) {
	e := newCLIEnv(t)
	taken := e.add("Aspirin", "08:00", "--start-date", "2020-01-01")
	e.add("Vitamin D", "09:00", "--start-date", "2020-01-02")
	e.add("Future", "10:00", "--start-date", "2999-01-01")
	e.mustRun("toggle", taken.ID)

	var records []medicines.MedicineRecord
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("history", "--json", "--filter", "missed")), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Vitamin D", records[0].Name)

	require.NoError(t, json.Unmarshal([]byte(e.mustRun("history", "--json", "--filter", "upcoming")), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Future", records[0].Name)

	_, err := e.run("history", "clear", "--filter", "upcoming", "--yes")
	require.ErrorIs(t, err, views.ErrClearNotOffered)

	_, err = e.run("history", "--filter", "everything")
	require.ErrorIs(t, err, views.ErrUnknownFilter)

	out := e.mustRun("history", "clear", "--filter", "taken", "--yes")
	assert.Contains(t, out, "Cleared 1 Taken medicine(s).")

	require.NoError(t, json.Unmarshal([]byte(e.mustRun("list", "--json")), &records))
	assert.Len(t, records, 2)
}

func TestCalendarCommand(t *testing.T) {
	e := newCLIEnv(t)
	e.add("Aspirin", "08:00", "--start-date", "2025-06-10")
	e.add("Vitamin D", "09:00", "--start-date", "2025-06-10")

	out := e.mustRun("calendar", "--date", "2025-06-10")
	assert.Contains(t, out, "2025-06-10  0/2 taken")
	assert.Contains(t, out, "Medicines on 2025-06-10:")
	assert.Contains(t, out, "Aspirin")

	_, err := e.run("calendar", "--date", "June 10")
	require.Error(t, err)
}

func TestFileBackend(t *testing.T) {
	e := newCLIEnv(t)
	snapshot := filepath.Join(t.TempDir(), "medicines.json")

	e.mustRun("add", "--backend", "file", "--file", snapshot, "--name", "Aspirin", "--dosage", "500", "--time", "08:00")

	data, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	records, err := medicines.DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Aspirin", records[0].Name)

	out := e.mustRun("list")
	assert.Contains(t, out, "No medicines added yet.")
}
