package ingest

import (
	"context"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/datatable"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// DirectLoader reads each dump through the CSV layer and writes the
// rows in batches over the same connection the API serves from.
type DirectLoader struct {
	Logger log.Logger
	Config *cfg.Config
	Store  *stage.Store
}

func NewDirectLoader(logger log.Logger, config *cfg.Config, store *stage.Store) (*DirectLoader, error) {
	return &DirectLoader{
		Logger: logger,
		Config: config,
		Store:  store,
	}, nil
}

func (l *DirectLoader) Load(ctx context.Context) (*LoadStats, error) {
	return run(ctx, "direct", l.Logger, l.Config, l.Store, l.loadTable)
}

func (l *DirectLoader) loadTable(ctx context.Context, t stage.Table) (int64, error) {
	table, err := datatable.NewCSVTableColumns(t.Name, dumpPath(l.Config, t), t.Delimiter, nil, t.Columns)
	if err != nil {
		return 0, err
	}

	if err := l.Store.Replace(ctx, t); err != nil {
		return 0, err
	}

	rows := table.Rows()
	if err := l.Store.InsertRows(ctx, t, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}
