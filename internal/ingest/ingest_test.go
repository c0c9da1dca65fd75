package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/db"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// newTestStage builds a store over attached in-memory schemas plus a
// dump directory holding one small file per catalog table.
func newTestStage(t *testing.T) (*cfg.Config, log.Logger, *stage.Store) {
	t.Helper()
	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	config.Stage.DataDir = t.TempDir()
	config.Stage.Workers = 3

	logger, _ := log.NewCslLogger()
	conn, _ := db.NewSqlite(":memory:")
	catalog, _ := stage.NewCatalog()

	store, err := stage.NewStore(config, logger, conn, catalog)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	dbh, err := conn.Db()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, schema := range catalog.Schemas() {
		if err := dbh.Exec("ATTACH DATABASE ':memory:' AS " + schema).Error; err != nil {
			t.Fatalf("attach %s: %v", schema, err)
		}
	}

	for _, tbl := range catalog.Tables() {
		writeDump(t, config.Stage.DataDir, tbl, 2)
	}
	return config, logger, store
}

// writeDump writes a header line plus n synthetic rows.
func writeDump(t *testing.T, dir string, tbl stage.Table, n int) {
	t.Helper()
	delim := string(tbl.Delimiter)
	lines := []string{strings.Join(tbl.Columns, delim)}
	for i := 1; i <= n; i++ {
		vals := make([]string, len(tbl.Columns))
		for j, col := range tbl.Columns {
			vals[j] = fmt.Sprintf("%s_%d", col, i)
		}
		lines = append(lines, strings.Join(vals, delim))
	}
	path := filepath.Join(dir, tbl.File)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write dump %s: %v", path, err)
	}
}

func TestDirectLoaderLoadsCatalog(t *testing.T) {
	config, logger, store := newTestStage(t)

	loader, err := NewDirectLoader(logger, config, store)
	if err != nil {
		t.Fatalf("NewDirectLoader: %v", err)
	}
	stats, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if stats.LastError != "" {
		t.Fatalf("unexpected load error: %s", stats.LastError)
	}
	want := int64(2 * len(store.Catalog.Tables()))
	if stats.RowsLoaded != want {
		t.Fatalf("expected %d rows loaded, got %d", want, stats.RowsLoaded)
	}
	for _, ts := range stats.Tables {
		if ts.Rows != 2 {
			t.Errorf("%s.%s: expected 2 rows, got %d", ts.Schema, ts.Table, ts.Rows)
		}
	}

	names, _ := store.Catalog.Lookup(stage.SchemaImdb, "name_basics")
	rows, err := store.SelectPrefix(context.Background(), names, "primary_name", "primary_name_1", nil, 10, 0)
	if err != nil {
		t.Fatalf("SelectPrefix: %v", err)
	}
	if len(rows) != 1 || rows[0]["nconst"] != "nconst_1" {
		t.Fatalf("expected the first staged row, got %v", rows)
	}
}

func TestDirectLoaderReplacesOnReload(t *testing.T) {
	config, logger, store := newTestStage(t)
	loader, _ := NewDirectLoader(logger, config, store)

	for i := 0; i < 2; i++ {
		if _, err := loader.Load(context.Background()); err != nil {
			t.Fatalf("Load %d: %v", i, err)
		}
	}

	names, _ := store.Catalog.Lookup(stage.SchemaImdb, "name_basics")
	count, err := store.CountWhere(context.Background(), names, map[string]string{})
	if err != nil {
		t.Fatalf("CountWhere: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected a reload to replace rows, got %d", count)
	}
}

func TestDirectLoaderReportsMissingDump(t *testing.T) {
	config, logger, store := newTestStage(t)

	names, _ := store.Catalog.Lookup(stage.SchemaImdb, "name_basics")
	if err := os.Remove(filepath.Join(config.Stage.DataDir, names.File)); err != nil {
		t.Fatalf("remove dump: %v", err)
	}

	loader, _ := NewDirectLoader(logger, config, store)
	stats, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if stats.LastError == "" {
		t.Fatal("expected the missing dump to surface in stats")
	}
	want := int64(2 * (len(store.Catalog.Tables()) - 1))
	if stats.RowsLoaded != want {
		t.Fatalf("expected %d rows from the surviving tables, got %d", want, stats.RowsLoaded)
	}
}

func TestFactoryLoader(t *testing.T) {
	config, logger, store := newTestStage(t)

	loader, err := FactoryLoader("direct", logger, config, store)
	if err != nil {
		t.Fatalf("direct: %v", err)
	}
	if _, ok := loader.(*DirectLoader); !ok {
		t.Errorf("expected a DirectLoader, got %T", loader)
	}

	loader, err = FactoryLoader("infile", logger, config, store)
	if err != nil {
		t.Fatalf("infile: %v", err)
	}
	if _, ok := loader.(*InfileLoader); !ok {
		t.Errorf("expected an InfileLoader, got %T", loader)
	}

	if _, err := FactoryLoader("bogus", logger, config, store); err == nil {
		t.Error("expected an error for an unsupported mode")
	}
}

func TestRowWriterFlushesBatches(t *testing.T) {
	config, logger, store := newTestStage(t)
	config.Stage.BatchSize = 2

	writer, err := NewRowWriter(logger, config, store, nil)
	if err != nil {
		t.Fatalf("NewRowWriter: %v", err)
	}

	crew, _ := store.Catalog.Lookup(stage.SchemaImdb, "title_crew")
	if err := store.Replace(context.Background(), crew); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	messages := make(chan model.RowMessage, 8)
	done := make(chan struct{})
	go func() {
		writer.writeBatches(ctx, crew, messages)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		messages <- model.RowMessage{
			Schema: crew.Schema,
			Table:  crew.Name,
			Row: map[string]string{
				"tconst":    fmt.Sprintf("tt%07d", i),
				"directors": "nm0000001",
				"writers":   "nm0000002",
			},
		}
	}

	// The size bound flushes the first pair without waiting for the timer.
	deadline := time.Now().Add(2 * time.Second)
	for {
		count, err := store.CountWhere(context.Background(), crew, map[string]string{})
		if err != nil {
			t.Fatalf("CountWhere: %v", err)
		}
		if count >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("size-bound flush never landed, count %d", count)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Wait for the writer to pick up the last row, then cancellation
	// flushes the remainder.
	for len(messages) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("writer never drained the channel")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	count, err := store.CountWhere(context.Background(), crew, map[string]string{})
	if err != nil {
		t.Fatalf("CountWhere: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected all 3 rows after shutdown, got %d", count)
	}
}
