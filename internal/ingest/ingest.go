// Package ingest moves dump files into the staging schemas. The three
// loaders differ only in transport: batched inserts and infile loads
// write directly, while the kafka loader publishes rows for the row
// writer to land.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/kafka"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// TableStats is the outcome of one table's load.
type TableStats struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	File   string `json:"file"`
	Rows   int64  `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// LoadStats describes one load run.
type LoadStats struct {
	Mode       string       `json:"mode"`
	IsRunning  bool         `json:"isRunning"`
	StartTime  time.Time    `json:"startTime"`
	Duration   string       `json:"duration"`
	RowsLoaded int64        `json:"rowsLoaded"`
	Tables     []TableStats `json:"tables"`
	LastError  string       `json:"lastError,omitempty"`
}

// Loader moves every catalog table's dump into staging.
type Loader interface {
	Load(ctx context.Context) (*LoadStats, error)
}

// FactoryLoader picks the loader for a load mode.
func FactoryLoader(mode string, logger log.Logger, config *cfg.Config, store *stage.Store) (Loader, error) {
	switch mode {
	case "direct":
		return NewDirectLoader(logger, config, store)
	case "infile":
		return NewInfileLoader(logger, config, store)
	case "kafka":
		producer := kafka.NewProducer(config, logger, config.Kafka.Producer.TopicRows)
		return NewKafkaLoader(logger, config, store, producer)
	default:
		return nil, fmt.Errorf("unsupported load mode: %s", mode)
	}
}

// dumpFile resolves a table's dump file name, honoring overrides.
func dumpFile(config *cfg.Config, t stage.Table) string {
	if override, ok := config.Stage.Files[t.Key()]; ok {
		return override
	}
	return t.File
}

func dumpPath(config *cfg.Config, t stage.Table) string {
	return filepath.Join(config.Stage.DataDir, dumpFile(config, t))
}

// run fans the catalog's tables across a worker pool and collects the
// per-table outcomes. The pool bounds concurrent loads, not goroutine
// creation order, so table stats keep catalog order.
func run(ctx context.Context, mode string, logger log.Logger, config *cfg.Config, store *stage.Store,
	loadTable func(context.Context, stage.Table) (int64, error)) (*LoadStats, error) {

	stats := &LoadStats{Mode: mode, StartTime: time.Now()}

	maxWorkers := config.Stage.Workers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	workers := make(chan struct{}, maxWorkers)

	tables := store.Catalog.Tables()
	results := make([]TableStats, len(tables))
	var wg sync.WaitGroup
	var total int64

	logger.Info(ctx, "Starting %s load of %d tables with %d workers", mode, len(tables), maxWorkers)

	for i, t := range tables {
		i, t := i, t
		wg.Add(1)
		workers <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-workers }()

			start := time.Now()
			ts := TableStats{Schema: t.Schema, Table: t.Name, File: dumpFile(config, t)}
			rows, err := loadTable(ctx, t)
			ts.Rows = rows
			if err != nil {
				logger.Error(ctx, "Load of %s failed after %s: %v", t.Key(), time.Since(start).Round(time.Millisecond), err)
				ts.Error = err.Error()
			} else {
				logger.Info(ctx, "Loaded %d rows into %s in %s", rows, t.Key(), time.Since(start).Round(time.Millisecond))
				atomic.AddInt64(&total, rows)
			}
			results[i] = ts
		}()
	}
	wg.Wait()

	stats.Tables = results
	stats.RowsLoaded = atomic.LoadInt64(&total)
	stats.Duration = time.Since(stats.StartTime).String()
	for _, ts := range results {
		if ts.Error != "" {
			stats.LastError = ts.Error
			break
		}
	}

	logger.Info(ctx, "Finished %s load: %d rows in %s", mode, stats.RowsLoaded, stats.Duration)
	return stats, nil
}
