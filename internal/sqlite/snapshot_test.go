package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestBackend(t)
	r := mustResource(t, src, "Food Bank A")
	phone := mustDescriptor(t, src, "Phone")
	open := mustDescriptor(t, src, "Open Now", "No", "Yes")
	_, err := src.Associations().UpsertText(ctx, r.ID, phone.ID, "555-0100")
	require.NoError(t, err)
	_, err = src.Associations().UpsertOption(ctx, r.ID, open.ID, 1)
	require.NoError(t, err)
	_, err = src.Suggestions().Add(ctx, &types.Suggestion{ResourceID: r.ID, Text: "new hours"})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, src.Export(ctx, dir))
	for _, m := range snapshotTables {
		assert.FileExists(t, filepath.Join(dir, m.file))
	}

	dst := newTestBackend(t)
	mustResource(t, dst, "replaced by import")
	report, err := dst.Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Loaded["descriptors"])
	assert.Equal(t, 1, report.Loaded["resources"])
	assert.Equal(t, 1, report.Loaded["text_associations"])
	assert.Equal(t, 1, report.Loaded["option_associations"])
	assert.Equal(t, 1, report.Loaded["suggestions"])

	got, err := dst.Resources().GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Fields(), got.Fields())
	require.Len(t, got.OptionAssociations, 1)
	assert.Equal(t, []string{"No", "Yes"}, got.OptionAssociations[0].Descriptor.Values)
	require.Len(t, got.TextAssociations, 1)
	assert.Equal(t, "555-0100", got.TextAssociations[0].Text)

	all, err := dst.Resources().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestImportSkipsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("descriptors.jsonl",
		`{"id":1,"name":"Phone","values":[],"is_searchable":0}`+"\n"+
			`{"id":2,"name":"Open Now","values":["No","Yes"],"is_searchable":1,"extra":"ignored"}`+"\n"+
			`not json`+"\n")
	write("resources.jsonl", `{"id":10,"name":"Clinic","address":"","latitude":1.5,"longitude":2.5}`+"\n")
	write("text_associations.jsonl",
		`{"resource_id":10,"descriptor_id":1,"text":"555"}`+"\n"+
			`{"resource_id":10,"descriptor_id":2,"text":"wrong kind"}`+"\n"+
			`{"resource_id":99,"descriptor_id":1,"text":"orphan"}`+"\n")
	write("option_associations.jsonl",
		`{"resource_id":10,"descriptor_id":2,"option":5}`+"\n")

	b := newTestBackend(t)
	report, err := b.Import(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Loaded["descriptors"])
	assert.Equal(t, 1, report.Skipped["descriptors"])
	assert.Equal(t, 1, report.Loaded["text_associations"])
	assert.Equal(t, 2, report.Skipped["text_associations"])
	assert.Equal(t, 0, report.Loaded["option_associations"])
	assert.Equal(t, 1, report.Skipped["option_associations"])

	texts, options, err := b.Associations().ListForResource(ctx, 10)
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Equal(t, int64(1), texts[0].DescriptorID)
	assert.Empty(t, options)
}

func TestImportMissingDirectoryEmptiesCatalog(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	mustResource(t, b, "Clinic")

	report, err := b.Import(ctx, filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Zero(t, report.Loaded["resources"])
	assert.Equal(t, 0, countRows(t, b, "resources", "1 = 1"))
}

func TestSnapshotDoesNotBlockWriters(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), BusyTimeout: 100 * time.Millisecond}))
	t.Cleanup(func() { _ = b.Detach() })
	mustResource(t, b, "Clinic")

	db, err := b.handle()
	require.NoError(t, err)
	tx, err := beginSnapshot(ctx, db)
	require.NoError(t, err)
	defer tx.Rollback()
	records, err := exportTable(ctx, tx, "resources", []string{"id", "name"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = b.Resources().Create(ctx, &types.Resource{Name: "Shelter"})
	require.NoError(t, err, "a write succeeds while the snapshot is open")

	records, err = exportTable(ctx, tx, "resources", []string{"id", "name"})
	require.NoError(t, err)
	assert.Len(t, records, 1, "the snapshot keeps its original view")
}

func TestWriteJSONLAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, writeJSONL(path, nil))
	records, malformed, err := readJSONL(path)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, malformed)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
