package main

import (
	"context"
	"flag"
	"os"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/ingest"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/db"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

func main() {
	mode := flag.String("mode", "direct", "Load mode (direct, infile, kafka)")
	dataDir := flag.String("data", "", "Override the configured dump directory")
	flag.Parse()

	ctx := context.Background()
	// loader, _ := cfg.NewMockLoader()
	loader, _ := cfg.NewViperLoader()
	config, _ := loader.Load()
	if *dataDir != "" {
		config.Stage.DataDir = *dataDir
	}
	mysql, _ := db.NewMysql(config)
	logger, _ := log.NewCslLogger()
	catalog, _ := stage.NewCatalog()
	store, _ := stage.NewStore(config, logger, mysql, catalog)

	logger.Info(ctx, "Starting %s load from %s", *mode, config.Stage.DataDir)

	if err := store.EnsureSchemas(ctx); err != nil {
		logger.Error(ctx, "Failed to create schemas: %v", err)
		os.Exit(1)
	}

	ldr, err := ingest.FactoryLoader(*mode, logger, config, store)
	if err != nil {
		logger.Error(ctx, "%v", err)
		os.Exit(1)
	}

	stats, err := ldr.Load(ctx)
	if err != nil {
		logger.Error(ctx, "Load failed: %v", err)
		os.Exit(1)
	}

	for _, ts := range stats.Tables {
		if ts.Error != "" {
			logger.Error(ctx, "%s.%s: %s", ts.Schema, ts.Table, ts.Error)
		} else {
			logger.Info(ctx, "%s.%s: %d rows from %s", ts.Schema, ts.Table, ts.Rows, ts.File)
		}
	}

	if stats.LastError != "" {
		logger.Error(ctx, "Load finished with errors after %s", stats.Duration)
		os.Exit(1)
	}
	logger.Info(ctx, "Successfully loaded %d rows in %s", stats.RowsLoaded, stats.Duration)
}
