package datatable

import (
	"context"
	"fmt"

	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
)

// RDBTable provides the record contract over one cataloged staging table.
// Staging declares no keys, so key semantics live here, not in the schema.
type RDBTable struct {
	Store      *stage.Store
	Table      stage.Table
	keyColumns []string
}

func NewRDBTable(store *stage.Store, schema, table string, keyColumns []string) (*RDBTable, error) {
	tbl, err := store.Catalog.Lookup(schema, table)
	if err != nil {
		return nil, err
	}
	for _, k := range keyColumns {
		if !tbl.HasColumn(k) {
			return nil, fmt.Errorf("%w: key column %s", ErrUnknownField, k)
		}
	}
	return &RDBTable{
		Store:      store,
		Table:      tbl,
		keyColumns: append([]string(nil), keyColumns...),
	}, nil
}

func (r *RDBTable) validateFields(fields []string) error {
	for _, f := range fields {
		if !r.Table.HasColumn(f) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.Table.Key(), f)
		}
	}
	return nil
}

func (r *RDBTable) validateTemplate(template map[string]string) error {
	for f := range template {
		if !r.Table.HasColumn(f) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.Table.Key(), f)
		}
	}
	return nil
}

func (r *RDBTable) FindByTemplate(ctx context.Context, template map[string]string, fieldList []string, limit, offset int) ([]map[string]string, error) {
	if err := r.validateTemplate(template); err != nil {
		return nil, err
	}
	if err := r.validateFields(fieldList); err != nil {
		return nil, err
	}
	return r.Store.SelectWhere(ctx, r.Table, template, fieldList, limit, offset)
}

func (r *RDBTable) FindByPrimaryKey(ctx context.Context, keyFields, fieldList []string) (map[string]string, error) {
	template, err := keyTemplateFor(r.keyColumns, keyFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.FindByTemplate(ctx, template, fieldList, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: key %v", ErrNotFound, keyFields)
	}
	return rows[0], nil
}

func (r *RDBTable) Insert(ctx context.Context, row map[string]string) error {
	if err := r.validateTemplate(row); err != nil {
		return err
	}
	for _, col := range r.keyColumns {
		if v, ok := row[col]; !ok || v == "" {
			return fmt.Errorf("%w: %s", ErrMissingKey, col)
		}
	}

	template, err := keyTemplateFor(r.keyColumns, keyValuesFor(r.keyColumns, row))
	if err != nil {
		return err
	}
	if len(template) > 0 {
		n, err := r.Store.CountWhere(ctx, r.Table, template)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, keyValuesFor(r.keyColumns, row))
		}
	}

	return r.Store.InsertRows(ctx, r.Table, []map[string]string{row})
}

func (r *RDBTable) UpdateByTemplate(ctx context.Context, template, newValues map[string]string) (int, error) {
	if err := r.validateTemplate(template); err != nil {
		return 0, err
	}
	if err := r.validateTemplate(newValues); err != nil {
		return 0, err
	}
	if len(newValues) == 0 {
		return 0, nil
	}

	// An update that rewrites key columns must not create a duplicate key;
	// when it would, nothing changes.
	if touchesKeyCols(r.keyColumns, newValues) {
		if err := r.checkUpdateKeys(ctx, template, newValues); err != nil {
			return 0, err
		}
	}

	n, err := r.Store.UpdateWhere(ctx, r.Table, template, newValues)
	return int(n), err
}

func (r *RDBTable) checkUpdateKeys(ctx context.Context, template, newValues map[string]string) error {
	matched, err := r.Store.SelectWhere(ctx, r.Table, template, nil, 0, 0)
	if err != nil {
		return err
	}

	matchedKeys := make(map[string]int)
	for _, row := range matched {
		matchedKeys[keyOfRow(r.keyColumns, row)]++
	}

	seen := make(map[string]bool, len(matched))
	for _, row := range matched {
		post := make(map[string]string, len(row))
		for k, v := range row {
			post[k] = v
		}
		for k, v := range newValues {
			post[k] = v
		}
		postKey := keyOfRow(r.keyColumns, post)
		if seen[postKey] {
			return fmt.Errorf("%w: update would produce key %v", ErrDuplicateKey, keyValuesFor(r.keyColumns, post))
		}
		seen[postKey] = true

		postTemplate, err := keyTemplateFor(r.keyColumns, keyValuesFor(r.keyColumns, post))
		if err != nil {
			return err
		}
		total, err := r.Store.CountWhere(ctx, r.Table, postTemplate)
		if err != nil {
			return err
		}
		// Rows already holding this key that the update does not touch.
		if total > int64(matchedKeys[postKey]) {
			return fmt.Errorf("%w: update would produce key %v", ErrDuplicateKey, keyValuesFor(r.keyColumns, post))
		}
	}
	return nil
}

func (r *RDBTable) UpdateByKey(ctx context.Context, keyFields []string, newValues map[string]string) (int, error) {
	template, err := keyTemplateFor(r.keyColumns, keyFields)
	if err != nil {
		return 0, err
	}
	return r.UpdateByTemplate(ctx, template, newValues)
}

func (r *RDBTable) DeleteByTemplate(ctx context.Context, template map[string]string) (int, error) {
	if err := r.validateTemplate(template); err != nil {
		return 0, err
	}
	n, err := r.Store.DeleteWhere(ctx, r.Table, template)
	return int(n), err
}

func (r *RDBTable) DeleteByKey(ctx context.Context, keyFields []string) (int, error) {
	template, err := keyTemplateFor(r.keyColumns, keyFields)
	if err != nil {
		return 0, err
	}
	return r.DeleteByTemplate(ctx, template)
}

var _ DataTable = (*RDBTable)(nil)
