package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// cliEnv runs commands against one temp config and data directory.
type cliEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	return &cliEnv{t: t, configDir: filepath.Join(root, "config"), dataDir: filepath.Join(root, "data")}
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "atlas %s\n%s", strings.Join(args, " "), out)
	return out
}

func (e *cliEnv) mustJSON(v any, args ...string) {
	e.t.Helper()
	out := e.mustRun(append([]string{"--json"}, args...)...)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), out)
}

func TestInitWritesConfig(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("init")
	assert.Contains(t, out, "initialized")

	data, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "text_max_length: 64")
	assert.FileExists(t, filepath.Join(e.dataDir, "atlas.db"))
}

func TestVersion(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("version")
	assert.Contains(t, out, "atlas v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestDescriptorAndResourceWorkflow(t *testing.T) {
	e := newCLIEnv(t)

	var showers, open types.Descriptor
	e.mustJSON(&showers, "descriptor", "add", "Has Showers")
	e.mustJSON(&open, "descriptor", "add", "Open Now", "--value", "No", "--value", "Yes")
	assert.Equal(t, types.KindText, showers.Kind())
	assert.Equal(t, []string{"No", "Yes"}, open.Values)

	var saved map[string]int64
	e.mustJSON(&saved, "resource", "save",
		"--name", "Food Bank A", "--address", "123 Main St", "--lat", "47.6", "--long", "-122.3",
		"--set", fmt.Sprintf("%d=Yes, 3 stalls", showers.ID),
		"--set", fmt.Sprintf("%d=1", open.ID))
	id := saved["id"]
	require.NotZero(t, id)

	var rec map[string]any
	e.mustJSON(&rec, "resource", "show", fmt.Sprint(id))
	assert.Equal(t, map[string]any{
		"name": "Food Bank A", "address": "123 Main St", "lat": 47.6, "long": -122.3,
		"has_showers": "Yes, 3 stalls", "open_now": "Yes",
	}, rec)

	var attrs map[string]string
	e.mustJSON(&attrs, "resource", "associations", fmt.Sprint(id))
	assert.Equal(t, map[string]string{"Has Showers": "Yes, 3 stalls", "Open Now": "Yes"}, attrs)

	// Update only the name; coordinates and attributes are kept.
	e.mustRun("resource", "save", "--id", fmt.Sprint(id), "--name", "Food Bank B")
	var updated map[string]any
	e.mustJSON(&updated, "resource", "show", fmt.Sprint(id))
	assert.Equal(t, "Food Bank B", updated["name"])
	assert.Equal(t, 47.6, updated["lat"])
	assert.Equal(t, "Yes", updated["open_now"])

	var list []map[string]any
	e.mustJSON(&list, "resource", "list", "--query", "bank")
	require.Len(t, list, 1)
	assert.Equal(t, float64(id), list[0]["id"])

	out := e.mustRun("resource", "list")
	assert.Contains(t, out, "Food Bank B")
	assert.Contains(t, out, "LATITUDE")

	out = e.mustRun("resource", "form", fmt.Sprint(id))
	assert.Contains(t, out, "0=No 1=Yes")

	e.mustRun("resource", "delete", fmt.Sprint(id))
	var deleted map[string]any
	e.mustJSON(&deleted, "resource", "show", fmt.Sprint(id))
	assert.Empty(t, deleted)
}

func TestSaveRejectsOutOfRangeOption(t *testing.T) {
	e := newCLIEnv(t)
	var open types.Descriptor
	e.mustJSON(&open, "descriptor", "add", "Open Now", "--value", "No", "--value", "Yes")

	_, err := e.run("resource", "save", "--name", "Clinic", "--set", fmt.Sprintf("%d=5", open.ID))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrOutOfRange)
	assert.Equal(t, exitUserError, exitCode(err))

	var list []map[string]any
	e.mustJSON(&list, "resource", "list")
	assert.Empty(t, list)
}

func TestSaveRejectsNonFiniteCoordinates(t *testing.T) {
	e := newCLIEnv(t)
	for _, args := range [][]string{{"--lat", "NaN"}, {"--long", "+Inf"}} {
		_, err := e.run(append([]string{"resource", "save", "--name", "Clinic"}, args...)...)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrValidationFailure)
		assert.Equal(t, exitUserError, exitCode(err))
	}

	var list []map[string]any
	e.mustJSON(&list, "resource", "list")
	assert.Empty(t, list)
}

func TestDescriptorUpdateAndDelete(t *testing.T) {
	e := newCLIEnv(t)
	var d types.Descriptor
	e.mustJSON(&d, "descriptor", "add", "Hours")
	e.mustJSON(&d, "descriptor", "update", fmt.Sprint(d.ID), "--name", "Opening Hours", "--searchable")
	assert.Equal(t, "Opening Hours", d.Name)
	assert.True(t, d.IsSearchable)

	e.mustRun("descriptor", "delete", fmt.Sprint(d.ID))
	_, err := e.run("descriptor", "show", fmt.Sprint(d.ID))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSuggestCommands(t *testing.T) {
	e := newCLIEnv(t)
	var saved map[string]int64
	e.mustJSON(&saved, "resource", "save", "--name", "Clinic")
	id := fmt.Sprint(saved["id"])

	var sg types.Suggestion
	e.mustJSON(&sg, "suggest", "add", id, "Closed on Mondays", "--submitter", "neighbor")
	assert.NotEmpty(t, sg.SuggestionID)

	out := e.mustRun("suggest", "list", id)
	assert.Contains(t, out, "Closed on Mondays")

	e.mustRun("suggest", "dismiss", sg.SuggestionID)
	_, err := e.run("suggest", "dismiss", sg.SuggestionID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSeedExportImportProject(t *testing.T) {
	e := newCLIEnv(t)
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("descriptors:\n  - name: Categories\n    values: [Food, Housing]\n  - name: Phone\n"), 0o644))

	out := e.mustRun("seed", seed)
	assert.Contains(t, out, "Created 2 of 2")
	out = e.mustRun("seed", seed)
	assert.Contains(t, out, "Created 0 of 2")

	var ds []types.Descriptor
	e.mustJSON(&ds, "descriptor", "list")
	require.Len(t, ds, 2)
	cats := ds[0]
	e.mustRun("resource", "save", "--name", "Pantry", "--set", fmt.Sprintf("%d=0", cats.ID))

	snap := filepath.Join(t.TempDir(), "snap")
	e.mustRun("export", snap)
	assert.FileExists(t, filepath.Join(snap, "resources.jsonl"))

	e.mustRun("init", "--recreate")
	var list []map[string]any
	e.mustJSON(&list, "resource", "list")
	assert.Empty(t, list)

	e.mustRun("import", snap)
	e.mustJSON(&list, "resource", "list")
	require.Len(t, list, 1)

	projected := filepath.Join(t.TempDir(), "projections.jsonl")
	out = e.mustRun("project", "--out", projected)
	assert.Contains(t, out, "Wrote 1 projections")
	data, err := os.ReadFile(projected)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"categories":["Food"]`)
}

func TestInvalidArguments(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("resource", "show", "abc")
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run("resource", "save", "--name", "x", "--set", "nonsense")
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run("import", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, exitUserError, exitCode(err))
}
