package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/ui"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/db"
	applog "github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

func main() {
	// Parse command line flags
	port := flag.String("port", "", "Port for the API server (defaults to the configured port)")
	flag.Parse()

	// Setup dependencies
	ctx := context.Background()
	loader, _ := cfg.NewViperLoader()
	config, _ := loader.Load()
	mysql, _ := db.NewMysql(config)
	logger, _ := applog.NewCslLogger()
	catalog, _ := stage.NewCatalog()
	store, _ := stage.NewStore(config, logger, mysql, catalog)

	if *port == "" {
		*port = config.Api.Port
	}

	// Create and run the server
	server, err := ui.NewServer(logger, config, store, *port)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Run server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error(ctx, "Server failed to start: %v", err)
			os.Exit(1)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for termination signal
	<-stop

	// Create a context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Gracefully shutdown the server
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during server shutdown: %v", err)
	}

	logger.Info(ctx, "Server shut down gracefully")
}
