package datatable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

// CSVTable holds one delimited dump in memory. The staging loader uses it as
// its row reader; the terminal browser can also serve searches straight from
// a local file without a database.
type CSVTable struct {
	name       string
	keyColumns []string
	columns    []string
	rows       []map[string]string
}

// NewCSVTable reads a dump whose header row names the columns.
func NewCSVTable(name, path string, delimiter rune, keyColumns []string) (*CSVTable, error) {
	return loadCSV(name, path, delimiter, keyColumns, nil)
}

// NewCSVTableColumns reads a dump positionally into the given columns and
// skips the header row. The catalog loader uses this form so file headers
// never decide column names.
func NewCSVTableColumns(name, path string, delimiter rune, keyColumns, columns []string) (*CSVTable, error) {
	if len(columns) == 0 {
		return nil, errors.New("column list required")
	}
	return loadCSV(name, path, delimiter, keyColumns, columns)
}

func loadCSV(name, path string, delimiter rune, keyColumns, columns []string) (*CSVTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}

	// The header row is consumed either way; every dump carries one.
	if columns == nil {
		columns = records[0]
	}

	t := &CSVTable{
		name:       name,
		keyColumns: append([]string(nil), keyColumns...),
		columns:    append([]string(nil), columns...),
	}
	for _, k := range t.keyColumns {
		if !t.hasColumn(k) {
			return nil, fmt.Errorf("%w: key column %s", ErrUnknownField, k)
		}
	}

	data := records[1:]
	t.rows = make([]map[string]string, 0, len(data))
	for _, record := range data {
		t.rows = append(t.rows, t.rowFromRecord(record))
	}
	return t, nil
}

// rowFromRecord pads short records and truncates long ones; the dumps are
// dirty and staging takes them as they come.
func (t *CSVTable) rowFromRecord(record []string) map[string]string {
	row := make(map[string]string, len(t.columns))
	for i, col := range t.columns {
		if i < len(record) {
			row[col] = record[i]
		} else {
			row[col] = ""
		}
	}
	return row
}

func (t *CSVTable) Name() string {
	return t.name
}

func (t *CSVTable) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Rows exposes the backing rows so the loader can stream them out in file
// order. Callers must treat them as read-only.
func (t *CSVTable) Rows() []map[string]string {
	return t.rows
}

func (t *CSVTable) hasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t *CSVTable) validateFields(fields []string) error {
	for _, f := range fields {
		if !t.hasColumn(f) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, t.name, f)
		}
	}
	return nil
}

func (t *CSVTable) validateTemplate(template map[string]string) error {
	for f := range template {
		if !t.hasColumn(f) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, t.name, f)
		}
	}
	return nil
}

func matchesTemplate(row, template map[string]string) bool {
	for k, v := range template {
		if row[k] != v {
			return false
		}
	}
	return true
}

func projectRow(row map[string]string, fieldList []string) map[string]string {
	if len(fieldList) == 0 {
		out := make(map[string]string, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	out := make(map[string]string, len(fieldList))
	for _, f := range fieldList {
		out[f] = row[f]
	}
	return out
}

func (t *CSVTable) FindByTemplate(ctx context.Context, template map[string]string, fieldList []string, limit, offset int) ([]map[string]string, error) {
	if err := t.validateTemplate(template); err != nil {
		return nil, err
	}
	if err := t.validateFields(fieldList); err != nil {
		return nil, err
	}

	out := make([]map[string]string, 0)
	skipped := 0
	for _, row := range t.rows {
		if !matchesTemplate(row, template) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, projectRow(row, fieldList))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (t *CSVTable) FindByPrimaryKey(ctx context.Context, keyFields, fieldList []string) (map[string]string, error) {
	template, err := keyTemplateFor(t.keyColumns, keyFields)
	if err != nil {
		return nil, err
	}
	rows, err := t.FindByTemplate(ctx, template, fieldList, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: key %v", ErrNotFound, keyFields)
	}
	return rows[0], nil
}

func (t *CSVTable) Insert(ctx context.Context, row map[string]string) error {
	if err := t.validateTemplate(row); err != nil {
		return err
	}
	for _, col := range t.keyColumns {
		if v, ok := row[col]; !ok || v == "" {
			return fmt.Errorf("%w: %s", ErrMissingKey, col)
		}
	}

	template, err := keyTemplateFor(t.keyColumns, keyValuesFor(t.keyColumns, row))
	if err != nil {
		return err
	}
	existing, err := t.FindByTemplate(ctx, template, nil, 1, 0)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, keyValuesFor(t.keyColumns, row))
	}

	full := make(map[string]string, len(t.columns))
	for _, col := range t.columns {
		full[col] = row[col]
	}
	t.rows = append(t.rows, full)
	return nil
}

func (t *CSVTable) UpdateByTemplate(ctx context.Context, template, newValues map[string]string) (int, error) {
	if err := t.validateTemplate(template); err != nil {
		return 0, err
	}
	if err := t.validateTemplate(newValues); err != nil {
		return 0, err
	}
	if len(newValues) == 0 {
		return 0, nil
	}

	matched := make([]int, 0)
	for i, row := range t.rows {
		if matchesTemplate(row, template) {
			matched = append(matched, i)
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}

	// An update that rewrites key columns must not create a duplicate key;
	// when it would, nothing changes.
	if touchesKeyCols(t.keyColumns, newValues) {
		if err := t.checkUpdateKeys(matched, newValues); err != nil {
			return 0, err
		}
	}

	for _, i := range matched {
		for k, v := range newValues {
			t.rows[i][k] = v
		}
	}
	return len(matched), nil
}

func (t *CSVTable) checkUpdateKeys(matched []int, newValues map[string]string) error {
	inMatched := make(map[int]bool, len(matched))
	for _, i := range matched {
		inMatched[i] = true
	}

	// Keys of rows the update leaves alone.
	existing := make(map[string]bool)
	for i, row := range t.rows {
		if !inMatched[i] {
			existing[keyOfRow(t.keyColumns, row)] = true
		}
	}

	seen := make(map[string]bool, len(matched))
	for _, i := range matched {
		post := make(map[string]string, len(t.rows[i]))
		for k, v := range t.rows[i] {
			post[k] = v
		}
		for k, v := range newValues {
			post[k] = v
		}
		key := keyOfRow(t.keyColumns, post)
		if existing[key] || seen[key] {
			return fmt.Errorf("%w: update would produce key %v", ErrDuplicateKey, keyValuesFor(t.keyColumns, post))
		}
		seen[key] = true
	}
	return nil
}

func (t *CSVTable) UpdateByKey(ctx context.Context, keyFields []string, newValues map[string]string) (int, error) {
	template, err := keyTemplateFor(t.keyColumns, keyFields)
	if err != nil {
		return 0, err
	}
	return t.UpdateByTemplate(ctx, template, newValues)
}

func (t *CSVTable) DeleteByTemplate(ctx context.Context, template map[string]string) (int, error) {
	if err := t.validateTemplate(template); err != nil {
		return 0, err
	}

	kept := make([]map[string]string, 0, len(t.rows))
	deleted := 0
	for _, row := range t.rows {
		if matchesTemplate(row, template) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return deleted, nil
}

func (t *CSVTable) DeleteByKey(ctx context.Context, keyFields []string) (int, error) {
	template, err := keyTemplateFor(t.keyColumns, keyFields)
	if err != nil {
		return 0, err
	}
	return t.DeleteByTemplate(ctx, template)
}

var _ DataTable = (*CSVTable)(nil)
