// Catalog snapshots: every table as one JSONL file in a directory.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// snapshotTables maps JSONL filenames to their SQLite tables and column lists.
// The order matters: tables with foreign keys load after their referenced tables.
var snapshotTables = []struct {
	file    string
	table   string
	columns []string
}{
	{"descriptors.jsonl", "descriptors", []string{"id", "name", "values", "is_searchable"}},
	{"resources.jsonl", "resources", []string{"id", "name", "address", "latitude", "longitude"}},
	{"text_associations.jsonl", "text_associations", []string{"resource_id", "descriptor_id", "text"}},
	{"option_associations.jsonl", "option_associations", []string{"resource_id", "descriptor_id", "option"}},
	{"suggestions.jsonl", "suggestions", []string{"suggestion_id", "resource_id", "text", "submitter", "created_at"}},
}

// ImportReport counts what Import loaded and what it dropped, per table.
type ImportReport struct {
	Loaded  map[string]int `json:"loaded"`
	Skipped map[string]int `json:"skipped"`
}

// Export writes every table to dir as JSONL, one file per table. Each file
// is replaced atomically. Descriptor values are written as JSON arrays.
func (b *Backend) Export(ctx context.Context, dir string) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tx, err := beginSnapshot(ctx, db)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range snapshotTables {
		records, err := exportTable(ctx, tx, m.table, m.columns)
		if err != nil {
			return err
		}
		if err := writeJSONL(filepath.Join(dir, m.file), records); err != nil {
			return fmt.Errorf("writing %s: %w", m.file, err)
		}
	}
	return nil
}

// beginSnapshot opens the read transaction that gives every exported file
// the same view of the catalog. A read-only transaction begins deferred, so
// writers keep going while the files are written.
func beginSnapshot(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, classify("beginning export transaction", err)
	}
	return tx, nil
}

func exportTable(ctx context.Context, q querier, table string, columns []string) ([]json.RawMessage, error) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + c + `"`
	}
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(quoted, ", "), table))
	if err != nil {
		return nil, classify("querying "+table+" for export", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify("scanning "+table+" row", err)
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			rec[col] = values[i]
		}
		if table == "descriptors" {
			raw, _ := rec["values"].(string)
			vals, err := decodeValues(raw)
			if err != nil {
				return nil, err
			}
			rec["values"] = vals
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s row: %w", table, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating "+table+" for export", err)
	}
	return records, nil
}

// Import replaces the catalog with the snapshot in dir. Loading is
// transactional: either the whole snapshot replaces the catalog or nothing
// changes. Malformed lines, rows violating a constraint (including
// associations whose resource or descriptor is missing), and associations
// that do not fit their descriptor's kind or values are skipped and counted.
// Unknown fields are ignored.
func (b *Backend) Import(ctx context.Context, dir string) (*ImportReport, error) {
	report := &ImportReport{Loaded: map[string]int{}, Skipped: map[string]int{}}

	err := b.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range dropOrder {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return classify("clearing "+table, err)
			}
		}

		for _, m := range snapshotTables {
			records, malformed, err := readJSONL(filepath.Join(dir, m.file))
			if err != nil {
				return err
			}
			report.Skipped[m.table] += malformed
			if len(records) == 0 {
				continue
			}
			loaded, skipped, err := insertRecords(ctx, tx, m.table, m.columns, records)
			if err != nil {
				return fmt.Errorf("loading %s into %s: %w", m.file, m.table, err)
			}
			report.Loaded[m.table] += loaded
			report.Skipped[m.table] += skipped
		}

		return pruneInvalidAssociations(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only
// columns listed in the mapping are extracted; extra fields do not cause
// errors. JSON arrays and objects are re-serialized as strings.
func insertRecords(ctx context.Context, tx *sql.Tx, table string, columns []string, records []json.RawMessage) (loaded, skipped int, err error) {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + c + `"`
		placeholders[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	))
	if err != nil {
		return 0, 0, classify("preparing insert for "+table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			skipped++
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			val, ok := obj[col]
			if !ok {
				args[i] = nil
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					args[i] = nil
					continue
				}
				args[i] = string(b)
			default:
				args[i] = val
			}
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			skipped++
			continue
		}
		loaded++
	}
	return loaded, skipped, nil
}

// pruneInvalidAssociations removes loaded associations that break the
// descriptor kind or option range rules.
func pruneInvalidAssociations(ctx context.Context, tx *sql.Tx, report *ImportReport) error {
	descriptors, err := (&descriptorsTable{s: &session{tx: tx}}).ListAll(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]*types.Descriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ID] = d
	}

	var badText, badOption []types.BindingKey

	rows, err := tx.QueryContext(ctx, "SELECT resource_id, descriptor_id FROM text_associations")
	if err != nil {
		return classify("checking text associations", err)
	}
	for rows.Next() {
		var k types.BindingKey
		if err := rows.Scan(&k.ResourceID, &k.DescriptorID); err != nil {
			rows.Close()
			return classify("scanning text association", err)
		}
		if d := byID[k.DescriptorID]; d == nil || d.CheckText() != nil {
			badText = append(badText, k)
		}
	}
	rows.Close()

	rows, err = tx.QueryContext(ctx, "SELECT resource_id, descriptor_id, option FROM option_associations")
	if err != nil {
		return classify("checking option associations", err)
	}
	for rows.Next() {
		var (
			k      types.BindingKey
			option int
		)
		if err := rows.Scan(&k.ResourceID, &k.DescriptorID, &option); err != nil {
			rows.Close()
			return classify("scanning option association", err)
		}
		if d := byID[k.DescriptorID]; d == nil || d.CheckOption(option) != nil {
			badOption = append(badOption, k)
		}
	}
	rows.Close()

	for _, k := range badText {
		if _, err := tx.ExecContext(ctx, "DELETE FROM text_associations WHERE resource_id = ? AND descriptor_id = ?", k.ResourceID, k.DescriptorID); err != nil {
			return classify("pruning text association", err)
		}
	}
	for _, k := range badOption {
		if _, err := tx.ExecContext(ctx, "DELETE FROM option_associations WHERE resource_id = ? AND descriptor_id = ?", k.ResourceID, k.DescriptorID); err != nil {
			return classify("pruning option association", err)
		}
	}
	report.Loaded["text_associations"] -= len(badText)
	report.Skipped["text_associations"] += len(badText)
	report.Loaded["option_associations"] -= len(badOption)
	report.Skipped["option_associations"] += len(badOption)
	return nil
}
