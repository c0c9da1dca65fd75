package main

import (
	"context"
	"fmt"

	"github.com/donald-f-ferguson/w4111-dataservice/api"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/ingest"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx           context.Context
	loader        *api.LoaderAPI
	initError     string
	isInitialized bool
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{
		loader:        api.NewLoaderAPI(),
		isInitialized: false,
	}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	err := a.loader.Initialize(ctx)
	if err != nil {
		a.initError = fmt.Sprintf("Failed to initialize data service: %v", err)
		fmt.Println(a.initError)
		runtime.LogErrorf(ctx, "Initialization error: %v", err)
		// Keep going so the UI can show the error
	} else {
		a.isInitialized = true
		runtime.LogInfo(ctx, "Data service initialized successfully")
	}
}

// StartLoad starts a staging load in the given mode
func (a *App) StartLoad(mode string) string {
	if !a.isInitialized {
		return fmt.Sprintf("Error: Data service is not initialized. %s", a.initError)
	}

	result, err := a.loader.StartLoad(mode)
	if err != nil {
		errMsg := fmt.Sprintf("Error starting load: %v", err)
		runtime.LogErrorf(a.ctx, errMsg)
		return errMsg
	}

	runtime.LogInfof(a.ctx, "Started %s load", mode)
	return result
}

// LoadStats returns statistics for the current or last load
func (a *App) LoadStats() *ingest.LoadStats {
	if !a.isInitialized {
		return &ingest.LoadStats{
			LastError: fmt.Sprintf("Data service is not initialized. %s", a.initError),
		}
	}

	stats, err := a.loader.GetLoadStats()
	if err != nil {
		errMsg := fmt.Sprintf("Error getting stats: %v", err)
		runtime.LogErrorf(a.ctx, errMsg)
		return &ingest.LoadStats{LastError: errMsg}
	}

	return stats
}

// SearchArtists searches artists by name prefix
func (a *App) SearchArtists(prefix string, limit, offset int) ([]model.Artist, error) {
	if !a.isInitialized {
		return nil, fmt.Errorf("data service is not initialized: %s", a.initError)
	}
	return a.loader.SearchArtists(prefix, limit, offset)
}

// SearchPeople searches players by last name prefix
func (a *App) SearchPeople(prefix string, limit, offset int) ([]model.Player, error) {
	if !a.isInitialized {
		return nil, fmt.Errorf("data service is not initialized: %s", a.initError)
	}
	return a.loader.SearchPeople(prefix, limit, offset)
}

// MinSearchLen tells the front end the search gate length
func (a *App) MinSearchLen() int {
	return a.loader.MinSearchLen()
}

// GetDbStatus checks the database connection status
func (a *App) GetDbStatus() string {
	if !a.isInitialized {
		return fmt.Sprintf("Error: Data service is not initialized. %s", a.initError)
	}

	status, err := a.loader.GetDatabaseStatus()
	if err != nil {
		errMsg := fmt.Sprintf("Database error: %v", err)
		runtime.LogErrorf(a.ctx, errMsg)
		return errMsg
	}

	return status
}

// GetInitStatus returns initialization status and any error message
func (a *App) GetInitStatus() map[string]interface{} {
	return map[string]interface{}{
		"initialized": a.isInitialized,
		"error":       a.initError,
	}
}
