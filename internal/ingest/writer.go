package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/kafka"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// RowWriter is the consumer side of the Kafka load path. One handler
// per staging table feeds a per-table batcher, so writes hit the
// database in transaction-sized chunks instead of row by row.
type RowWriter struct {
	Logger   log.Logger
	Config   *cfg.Config
	Store    *stage.Store
	Consumer *kafka.Consumer

	batchSize    int
	batchTimeout time.Duration
}

func NewRowWriter(logger log.Logger, config *cfg.Config, store *stage.Store, consumer *kafka.Consumer) (*RowWriter, error) {
	batchSize := config.Stage.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	return &RowWriter{
		Logger:       logger,
		Config:       config,
		Store:        store,
		Consumer:     consumer,
		batchSize:    batchSize,
		batchTimeout: 5 * time.Second,
	}, nil
}

// Start registers one handler per staging table and consumes until the
// context ends.
func (w *RowWriter) Start(ctx context.Context) error {
	for _, t := range w.Store.Catalog.Tables() {
		t := t
		messages := make(chan model.RowMessage, w.batchSize*2)
		go w.writeBatches(ctx, t, messages)

		w.Consumer.RegisterHandler(t.Key(), func(data []byte) error {
			var msg model.RowMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				return fmt.Errorf("failed to unmarshal row message: %w", err)
			}
			select {
			case messages <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}
	return w.Consumer.Start(ctx)
}

// writeBatches drains one table's channel with size and timer bounds.
func (w *RowWriter) writeBatches(ctx context.Context, t stage.Table, messages <-chan model.RowMessage) {
	var batch []map[string]string
	timer := time.NewTimer(w.batchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Flush what is buffered before exiting.
			w.flush(context.Background(), t, batch)
			return

		case msg := <-messages:
			batch = append(batch, msg.Row)
			if len(batch) >= w.batchSize {
				w.flush(ctx, t, batch)
				batch = nil
				timer.Reset(w.batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				w.flush(ctx, t, batch)
				batch = nil
			}
			timer.Reset(w.batchTimeout)
		}
	}
}

func (w *RowWriter) flush(ctx context.Context, t stage.Table, batch []map[string]string) {
	if len(batch) == 0 {
		return
	}
	w.Logger.Info(ctx, "Writing batch of %d rows to %s", len(batch), t.Key())
	if err := w.Store.InsertRows(ctx, t, batch); err != nil {
		w.Logger.Error(ctx, "Failed to write batch to %s: %v", t.Key(), err)
	}
}
