package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points storage and blobs at a temp dir for the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SHIPFIN_STORAGE_DRIVER", "sqlite")
	t.Setenv("SHIPFIN_SQLITE_PATH", filepath.Join(dir, "shipfin.db"))
	t.Setenv("SHIPFIN_BLOB_DRIVER", "fs")
	t.Setenv("SHIPFIN_BLOB_FS_ROOT", filepath.Join(dir, "logs"))
	t.Setenv("SHIPFIN_LOG_FILE", "false")
	t.Setenv("SHIPFIN_LOG_DATABASE", "false")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeSession(t *testing.T, out string) sessionView {
	t.Helper()
	var v sessionView
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "shipfin version "+Version+"\n", out)
}

func TestSessionLifecycleAcrossInvocations(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "session", "show")
	require.NoError(t, err)
	sess := decodeSession(t, out)
	assert.Nil(t, sess.User)
	assert.Equal(t, "light", string(sess.Theme))
	assert.True(t, sess.SidebarOpen)

	out, _, err = execute(t, "session", "login", "--email", "ana@shipfin.test", "--password", "pw", "--role", "admin")
	require.NoError(t, err)
	sess = decodeSession(t, out)
	require.NotNil(t, sess.User)
	assert.Equal(t, "ana", sess.User.Name)
	assert.NotEmpty(t, sess.SessionID)

	_, _, err = execute(t, "session", "theme", "dark")
	require.NoError(t, err)

	out, _, err = execute(t, "session", "show")
	require.NoError(t, err)
	sess = decodeSession(t, out)
	require.NotNil(t, sess.User)
	assert.Equal(t, "admin", string(sess.User.Role))
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, "dark", string(sess.Theme))
	assert.Empty(t, sess.SessionID, "session id is not persisted")

	out, _, err = execute(t, "session", "logout")
	require.NoError(t, err)
	sess = decodeSession(t, out)
	assert.Nil(t, sess.User)
	assert.False(t, sess.IsAuthenticated)
	assert.False(t, sess.SidebarOpen)
	assert.Equal(t, "dark", string(sess.Theme))
}

func TestSessionLoginFailure(t *testing.T) {
	isolate(t)
	_, stderr, err := execute(t, "session", "login", "--email", "not-an-email", "--password", "pw")
	require.Error(t, err)
	assert.Contains(t, stderr, "Login failed")
}

func TestSessionThemeRejectsUnknown(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "session", "theme", "neon")
	require.Error(t, err)
}

func TestJournalCheck(t *testing.T) {
	out, _, err := execute(t, "journal", "check", "--reference", "JE-1",
		"--line", "cash:100.50:", "--line", "revenue::100.5")
	require.NoError(t, err)
	var report journalReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Balanced)
	assert.True(t, report.CanPost)
	assert.False(t, report.CanRemoveLine)
	assert.Equal(t, "100.50", report.Debit)
	assert.Equal(t, "0.00", report.Difference)

	out, _, err = execute(t, "journal", "check", "--line", "cash:10:", "--line", "revenue::4", "--line", "fees:abc:")
	require.Error(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Balanced)
	assert.False(t, report.CanSaveDraft)
	assert.True(t, report.CanRemoveLine)
	assert.Equal(t, "6.00", report.Difference)

	_, _, err = execute(t, "journal", "check", "--line", ":1:")
	require.Error(t, err)
}

func TestDemo(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "demo", "--metrics")
	require.NoError(t, err)
	var report demoReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)

	assert.Equal(t, 1, report.Stats.TotalShipments)
	assert.Equal(t, 1, report.Stats.ActiveShipments)
	assert.Equal(t, 1, report.Stats.PendingTasks)
	assert.Equal(t, 1, report.Stats.PendingVouchers, "the delivery voucher stays draft")
	assert.Equal(t, 1, report.Stats.LowStockItems)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, float64(1), report.Metrics["workflow.payment_voucher"])
	assert.Equal(t, float64(2), report.Metrics["workflow.shipment_status"])
}
