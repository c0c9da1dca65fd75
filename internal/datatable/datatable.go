// Package datatable gives CSV files and staged relational tables one
// record-oriented access contract: template matching with field
// projection, plus logical primary keys over keyless staging data.
package datatable

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate primary key")
	ErrUnknownField = errors.New("unknown field")
	ErrKeyLength    = errors.New("wrong number of key fields")
	ErrMissingKey   = errors.New("missing key column")
)

// A template matches a row when every entry equals the row's value exactly.
// A field list projects the returned columns; nil means all of them.
type DataTable interface {
	FindByPrimaryKey(ctx context.Context, keyFields, fieldList []string) (map[string]string, error)
	FindByTemplate(ctx context.Context, template map[string]string, fieldList []string, limit, offset int) ([]map[string]string, error)
	Insert(ctx context.Context, row map[string]string) error
	UpdateByTemplate(ctx context.Context, template, newValues map[string]string) (int, error)
	UpdateByKey(ctx context.Context, keyFields []string, newValues map[string]string) (int, error)
	DeleteByTemplate(ctx context.Context, template map[string]string) (int, error)
	DeleteByKey(ctx context.Context, keyFields []string) (int, error)
}
