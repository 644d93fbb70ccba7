package cli

import (
	"bytes"
	"busbook/internal/audit"
	"busbook/pkg/model"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	migrateErr error
	deleted    int64
	cleanupErr error
	released   *model.ReleaseLocksResponse
	releasedID string
	reports    []audit.Report
	auditErr   error
	closed     bool
}

func (f *fakeBackend) Migrate(context.Context) error { return f.migrateErr }

func (f *fakeBackend) Cleanup(context.Context) (int64, error) { return f.deleted, f.cleanupErr }

func (f *fakeBackend) ReleaseLocks(_ context.Context, busID string) (*model.ReleaseLocksResponse, error) {
	f.releasedID = busID
	return f.released, nil
}

func (f *fakeBackend) Audit(context.Context) ([]audit.Report, error) { return f.reports, f.auditErr }

func (f *fakeBackend) Close() { f.closed = true }

func run(t *testing.T, backend *fakeBackend, args ...string) (string, error) {
	t.Helper()
	connected := false
	cmd := NewRootCommand(func(context.Context) (Backend, error) {
		connected = true
		return backend, nil
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())

	if connected {
		assert.True(t, backend.closed, "backend must be closed after the command")
	}
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, name := range []string{"migrate", "cleanup", "release-locks", "audit"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, &fakeBackend{}, "cleanup", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMigrate(t *testing.T) {
	out, err := run(t, &fakeBackend{}, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migration completed successfully.")

	_, err = run(t, &fakeBackend{migrateErr: errors.New("no primary")}, "migrate")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCleanup_JSON(t *testing.T) {
	out, err := run(t, &fakeBackend{deleted: 3}, "cleanup", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(3), resp.Data["deletedCount"])
}

func TestReleaseLocks(t *testing.T) {
	backend := &fakeBackend{released: &model.ReleaseLocksResponse{Message: "Expired locks released", Removed: 2}}
	out, err := run(t, backend, "release-locks", "65f1a2b3c4d5e6f708192a3b")
	require.NoError(t, err)
	assert.Equal(t, "65f1a2b3c4d5e6f708192a3b", backend.releasedID)
	assert.Contains(t, out, "Expired locks released (2 removed)")

	_, err = run(t, &fakeBackend{}, "release-locks")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAudit_ExitCodes(t *testing.T) {
	out, err := run(t, &fakeBackend{reports: []audit.Report{}}, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "No orphan seats found.")

	orphans := []audit.Report{{BusID: "bus-1", Date: "2026-03-12", BusName: "Night Rider", OrphanSeats: []int{7}}}
	out, err = run(t, &fakeBackend{reports: orphans}, "audit")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "bus-1")
	assert.Contains(t, out, "[7]")

	_, err = run(t, &fakeBackend{auditErr: errors.New("down")}, "audit")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAudit_JSONCarriesReports(t *testing.T) {
	orphans := []audit.Report{{BusID: "bus-1", OrphanSeats: []int{7}}}
	out, err := run(t, &fakeBackend{reports: orphans}, "audit", "--format", "json")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string         `json:"status"`
		Data   []audit.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, []int{7}, resp.Data[0].OrphanSeats)
}

func TestConnectFailure(t *testing.T) {
	cmd := NewRootCommand(func(context.Context) (Backend, error) {
		return nil, errors.New("dial tcp: refused")
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"cleanup"})

	err := cmd.ExecuteContext(context.Background())
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "orphans")))
}
