package ingest

import (
	"context"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// InfileLoader hands each dump to the server with LOAD DATA LOCAL
// INFILE. Rows never pass through the process, so this is the fast
// path for full-size dumps; it needs local_infile enabled on both
// sides of the connection.
type InfileLoader struct {
	Logger log.Logger
	Config *cfg.Config
	Store  *stage.Store
}

func NewInfileLoader(logger log.Logger, config *cfg.Config, store *stage.Store) (*InfileLoader, error) {
	return &InfileLoader{
		Logger: logger,
		Config: config,
		Store:  store,
	}, nil
}

func (l *InfileLoader) Load(ctx context.Context) (*LoadStats, error) {
	return run(ctx, "infile", l.Logger, l.Config, l.Store, l.loadTable)
}

func (l *InfileLoader) loadTable(ctx context.Context, t stage.Table) (int64, error) {
	if err := l.Store.Replace(ctx, t); err != nil {
		return 0, err
	}
	return l.Store.LoadInfile(ctx, t, dumpPath(l.Config, t))
}
