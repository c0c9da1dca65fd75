// Package api is the embedding surface for the desktop shell. It owns
// the wiring that the command line binaries otherwise do in main:
// configuration, database, store, and the search client.
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/apiclient"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/ingest"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/db"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// LoaderAPI drives loads and searches for the desktop shell.
type LoaderAPI struct {
	ctx      context.Context
	config   *cfg.Config
	logger   log.Logger
	mysql    *db.Mysql
	store    *stage.Store
	searcher *apiclient.Searcher

	statsMu sync.RWMutex
	loading bool
	stats   *ingest.LoadStats
}

// NewLoaderAPI creates a new instance of LoaderAPI
func NewLoaderAPI() *LoaderAPI {
	return &LoaderAPI{
		stats: &ingest.LoadStats{},
	}
}

// Initialize loads configuration and connects the shell's backends
func (a *LoaderAPI) Initialize(ctx context.Context) error {
	a.ctx = ctx

	var err error

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	a.config, err = loader.Load()
	if err != nil {
		a.logger, _ = log.NewCslLogger()
		a.logger.Error(a.ctx, "Failed to load configuration: %v", err)
		return err
	}

	// Set up logger
	a.logger, err = log.NewCslLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// Set up database
	a.mysql, err = db.NewMysql(a.config)
	if err != nil {
		a.logger.Error(a.ctx, "Failed to connect to database: %v", err)
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	catalog, err := stage.NewCatalog()
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}
	a.store, err = stage.NewStore(a.config, a.logger, a.mysql, catalog)
	if err != nil {
		return fmt.Errorf("failed to build store: %w", err)
	}

	caller := apiclient.NewCaller(a.logger, a.config)
	a.searcher = apiclient.NewSearcher(a.logger, a.config, caller)

	// Make sure the staging schemas exist before anything loads
	return a.store.EnsureSchemas(ctx)
}

// StartLoad kicks off a load run in the given mode
func (a *LoaderAPI) StartLoad(mode string) (string, error) {
	a.statsMu.RLock()
	isLoading := a.loading
	a.statsMu.RUnlock()

	if isLoading {
		return "A load is already in progress", nil
	}

	loader, err := ingest.FactoryLoader(mode, a.logger, a.config, a.store)
	if err != nil {
		return "", err
	}

	a.statsMu.Lock()
	a.loading = true
	a.stats = &ingest.LoadStats{Mode: mode, IsRunning: true, StartTime: time.Now()}
	a.statsMu.Unlock()

	// Run the load in a goroutine so the shell stays responsive
	go func() {
		stats, err := loader.Load(context.Background())

		a.statsMu.Lock()
		defer a.statsMu.Unlock()
		a.loading = false
		if err != nil {
			a.stats.IsRunning = false
			a.stats.LastError = err.Error()
			return
		}
		stats.IsRunning = false
		a.stats = stats
	}()

	return "Started " + mode + " load", nil
}

// GetLoadStats reports the last or current load run
func (a *LoaderAPI) GetLoadStats() (*ingest.LoadStats, error) {
	a.statsMu.RLock()
	defer a.statsMu.RUnlock()

	if a.stats == nil {
		return &ingest.LoadStats{}, nil
	}

	// Calculate duration while a load is running
	stats := *a.stats
	if stats.IsRunning {
		stats.Duration = time.Since(stats.StartTime).String()
	}

	return &stats, nil
}

// GetDatabaseStatus pings the staging database
func (a *LoaderAPI) GetDatabaseStatus() (string, error) {
	if a.mysql == nil {
		return "", errors.New("database connection not initialized")
	}
	if err := a.mysql.Ping(); err != nil {
		return "", err
	}
	return "Connected", nil
}

// MinSearchLen is the prefix length a search must exceed.
func (a *LoaderAPI) MinSearchLen() int {
	if a.searcher == nil {
		return 5
	}
	return a.searcher.MinLen()
}

// SearchArtists searches artists through the record service
func (a *LoaderAPI) SearchArtists(prefix string, limit, offset int) ([]model.Artist, error) {
	if a.searcher == nil {
		return nil, errors.New("api not initialized")
	}
	return a.searcher.Artists(a.ctx, prefix, limit, offset)
}

// SearchPeople searches players by last name through the record service
func (a *LoaderAPI) SearchPeople(prefix string, limit, offset int) ([]model.Player, error) {
	if a.searcher == nil {
		return nil, errors.New("api not initialized")
	}
	return a.searcher.PeopleByLastName(a.ctx, prefix, limit, offset)
}
