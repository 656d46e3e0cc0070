package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// benchInto runs a small benchmark stored in db and returns its run ID.
func benchInto(t *testing.T, db, label string) string {
	t.Helper()
	args := append(append([]string{}, smallBench...), "--label", label, "--db", db, "--format", "json")
	stdout, _, err := execute(t, args...)
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Stored struct {
				ID string `json:"id"`
			} `json:"stored"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotEmpty(t, resp.Data.Stored.ID)
	return resp.Data.Stored.ID
}

func TestHistory_ListNewestFirst(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bench.db")
	first := benchInto(t, db, "first")
	second := benchInto(t, db, "second")

	stdout, _, err := execute(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Runs []HistoryEntry `json:"runs"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, second, resp.Data.Runs[0].ID)
	assert.Equal(t, first, resp.Data.Runs[1].ID)
	assert.Nil(t, resp.Data.Runs[0].Report)

	stdout, _, err = execute(t, "history", "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "SEQ")
	assert.Contains(t, stdout, second)
	assert.NotContains(t, stdout, first)
}

func TestHistory_ShowRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bench.db")
	id := benchInto(t, db, "detail")

	stdout, _, err := execute(t, "history", "--db", db, "--id", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Stored run #1, digest ")
	assert.Contains(t, stdout, "Label:         detail")
	assert.Contains(t, stdout, "--- Scenario C: time split over 4 calls ---")

	stdout, _, err = execute(t, "history", "--db", db, "--id", id, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Data.Report)
	assert.Equal(t, 16, resp.Data.Report.Config.ListSize)
}

func TestHistory_Errors(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := execute(t, "history", "--db", filepath.Join(dir, "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E_NOT_FOUND]: database not found")

	db := filepath.Join(dir, "bench.db")
	benchInto(t, db, "only")
	stdout, _, err = execute(t, "history", "--db", db, "--id", "no-such-run")
	require.Error(t, err)
	assert.Contains(t, stdout, "no run with id no-such-run")
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bench.db")
	st, err := OpenStore(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No benchmark runs stored.\n", stdout)
}
