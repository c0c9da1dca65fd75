package stage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/db"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
	"gorm.io/gorm"
)

// Store executes catalog-validated statements against the staging schemas.
// It is the only place SQL is built from identifiers.
type Store struct {
	model.Model
	Catalog *Catalog
}

func NewStore(config *cfg.Config, logger log.Logger, conn db.Conn, catalog *Catalog) (*Store, error) {
	return &Store{
		Model: model.Model{
			Config: config,
			Logger: logger,
			Mysql:  conn,
		},
		Catalog: catalog,
	}, nil
}

func (s *Store) EnsureSchemas(ctx context.Context) error {
	dbh, err := s.Mysql.Db()
	if err != nil {
		return err
	}
	for _, schema := range s.Catalog.Schemas() {
		if err := dbh.WithContext(ctx).Exec(CreateDatabaseSQL(schema)).Error; err != nil {
			return fmt.Errorf("failed to create database %s: %w", schema, err)
		}
	}
	return nil
}

// Replace drops and recreates a staging table. Loads always start from an
// empty table; a failed load leaves whatever the server got to.
func (s *Store) Replace(ctx context.Context, t Table) error {
	dbh, err := s.Mysql.Db()
	if err != nil {
		return err
	}
	if err := dbh.WithContext(ctx).Exec(DropTableSQL(t)).Error; err != nil {
		return fmt.Errorf("failed to drop %s: %w", t.Key(), err)
	}
	if err := dbh.WithContext(ctx).Exec(CreateTableSQL(t)).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", t.Key(), err)
	}
	return nil
}

// InsertRows writes row maps in fixed-size batches inside one transaction.
// Every insert carries the full catalog column set so batches stay uniform.
func (s *Store) InsertRows(ctx context.Context, t Table, rows []map[string]string) error {
	if len(rows) == 0 {
		return nil
	}
	dbh, err := s.Mysql.Db()
	if err != nil {
		return err
	}

	size := s.Config.Stage.BatchSize
	if size <= 0 {
		size = 500
	}

	return dbh.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += size {
			end := start + size
			if end > len(rows) {
				end = len(rows)
			}
			batch := make([]map[string]interface{}, 0, end-start)
			for _, row := range rows[start:end] {
				rec := make(map[string]interface{}, len(t.Columns))
				for _, col := range t.Columns {
					rec[col] = row[col]
				}
				batch = append(batch, rec)
			}
			if err := tx.Table(t.Qualified()).Create(batch).Error; err != nil {
				return fmt.Errorf("failed to batch insert into %s: %w", t.Key(), err)
			}
		}
		return nil
	})
}

// LoadInfile streams one dump file to the server through the driver and
// reports how many rows the server took.
func (s *Store) LoadInfile(ctx context.Context, t Table, path string) (int64, error) {
	dbh, err := s.Mysql.Db()
	if err != nil {
		return 0, err
	}

	db.RegisterInfile(path)
	defer db.DeregisterInfile(path)

	result := dbh.WithContext(ctx).Exec(LoadInfileSQL(t, path))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to load %s into %s: %w", path, t.Key(), result.Error)
	}
	return result.RowsAffected, nil
}

// SelectPrefix returns rows whose column value starts with prefix. A fields
// list projects the returned columns; empty means all of them.
func (s *Store) SelectPrefix(ctx context.Context, t Table, column, prefix string, fields []string, limit, offset int) ([]map[string]string, error) {
	if err := s.validateFields(t, append([]string{column}, fields...)); err != nil {
		return nil, err
	}
	dbh, err := s.Mysql.Db()
	if err != nil {
		return nil, err
	}

	query := dbh.WithContext(ctx).Table(t.Qualified()).
		Where(quoteIdent(column)+" LIKE ? ESCAPE '|'", escapeLike(prefix)+"%")
	query = project(query, fields)
	query = paginate(query, limit, offset)

	var raw []map[string]interface{}
	if err := query.Find(&raw).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Key(), err)
	}
	return stringRows(raw), nil
}

// SelectWhere returns rows matching every template entry exactly.
func (s *Store) SelectWhere(ctx context.Context, t Table, template map[string]string, fields []string, limit, offset int) ([]map[string]string, error) {
	if err := s.validateTemplate(t, template); err != nil {
		return nil, err
	}
	if err := s.validateFields(t, fields); err != nil {
		return nil, err
	}
	dbh, err := s.Mysql.Db()
	if err != nil {
		return nil, err
	}

	query := dbh.WithContext(ctx).Table(t.Qualified())
	if cond, args := whereClause(template); cond != "" {
		query = query.Where(cond, args...)
	}
	query = project(query, fields)
	query = paginate(query, limit, offset)

	var raw []map[string]interface{}
	if err := query.Find(&raw).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Key(), err)
	}
	return stringRows(raw), nil
}

func (s *Store) CountWhere(ctx context.Context, t Table, template map[string]string) (int64, error) {
	if err := s.validateTemplate(t, template); err != nil {
		return 0, err
	}
	dbh, err := s.Mysql.Db()
	if err != nil {
		return 0, err
	}

	query := dbh.WithContext(ctx).Table(t.Qualified())
	if cond, args := whereClause(template); cond != "" {
		query = query.Where(cond, args...)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.Key(), err)
	}
	return n, nil
}

// UpdateWhere assigns values on every matching row and reports the count.
func (s *Store) UpdateWhere(ctx context.Context, t Table, template, values map[string]string) (int64, error) {
	if err := s.validateTemplate(t, template); err != nil {
		return 0, err
	}
	if err := s.validateTemplate(t, values); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	dbh, err := s.Mysql.Db()
	if err != nil {
		return 0, err
	}

	assigns := make(map[string]interface{}, len(values))
	for k, v := range values {
		assigns[k] = v
	}

	query := dbh.WithContext(ctx).Table(t.Qualified())
	cond, args := whereClause(template)
	if cond == "" {
		cond = "1 = 1"
	}
	res := query.Where(cond, args...).Updates(assigns)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update %s: %w", t.Key(), res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteWhere(ctx context.Context, t Table, template map[string]string) (int64, error) {
	if err := s.validateTemplate(t, template); err != nil {
		return 0, err
	}
	dbh, err := s.Mysql.Db()
	if err != nil {
		return 0, err
	}

	stmt := "DELETE FROM " + t.Qualified()
	cond, args := whereClause(template)
	if cond != "" {
		stmt += " WHERE " + cond
	}
	res := dbh.WithContext(ctx).Exec(stmt, args...)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", t.Key(), res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) validateFields(t Table, fields []string) error {
	for _, f := range fields {
		if !t.HasColumn(f) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Key(), f)
		}
	}
	return nil
}

func (s *Store) validateTemplate(t Table, template map[string]string) error {
	for f := range template {
		if !t.HasColumn(f) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Key(), f)
		}
	}
	return nil
}

// whereClause compiles a template to a parameterized equality conjunction.
// Columns are sorted so the statement is deterministic.
func whereClause(template map[string]string) (string, []interface{}) {
	if len(template) == 0 {
		return "", nil
	}
	cols := make([]string, 0, len(template))
	for c := range template {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	conds := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, c := range cols {
		conds = append(conds, quoteIdent(c)+" = ?")
		args = append(args, template[c])
	}
	return strings.Join(conds, " AND "), args
}

func project(query *gorm.DB, fields []string) *gorm.DB {
	if len(fields) == 0 {
		return query
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, quoteIdent(f))
	}
	return query.Select(strings.Join(quoted, ", "))
}

func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

func stringRows(raw []map[string]interface{}) []map[string]string {
	rows := make([]map[string]string, 0, len(raw))
	for _, r := range raw {
		row := make(map[string]string, len(r))
		for k, v := range r {
			row[k] = stringValue(v)
		}
		rows = append(rows, row)
	}
	return rows
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
