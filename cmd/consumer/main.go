package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/ingest"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/db"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/kafka"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

func main() {
	// Load configuration
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, _ := log.NewCslLogger()

	// Setup database
	mysql, err := db.NewMysql(config)
	if err != nil {
		logger.Error(context.Background(), "Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, _ := stage.NewCatalog()
	store, _ := stage.NewStore(config, logger, mysql, catalog)
	if err := store.EnsureSchemas(ctx); err != nil {
		logger.Error(ctx, "Failed to create schemas: %v", err)
		os.Exit(1)
	}

	// One consumer drains the row topic; the writer dispatches rows to
	// their staging tables by message key.
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicRows, config.Kafka.Consumer.GroupID)
	writer, err := ingest.NewRowWriter(logger, config, store, consumer)
	if err != nil {
		logger.Error(ctx, "Failed to create row writer: %v", err)
		os.Exit(1)
	}

	go func() {
		if err := writer.Start(ctx); err != nil {
			logger.Error(ctx, "Row writer error: %v", err)
		}
	}()
	logger.Info(ctx, "Row writer started successfully")

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Wait for termination signal
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()

	if err := consumer.Close(); err != nil {
		logger.Error(context.Background(), "Failed to close consumer: %v", err)
	}
}
