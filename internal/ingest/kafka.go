package ingest

import (
	"context"
	"fmt"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/datatable"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/kafka"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// KafkaLoader publishes rows to the topic instead of writing them.
// Tables are replaced up front so the row writer only ever appends.
// Message keys carry the table so consumers can dispatch per table.
type KafkaLoader struct {
	Logger   log.Logger
	Config   *cfg.Config
	Store    *stage.Store
	Producer *kafka.Producer
}

func NewKafkaLoader(logger log.Logger, config *cfg.Config, store *stage.Store, producer *kafka.Producer) (*KafkaLoader, error) {
	return &KafkaLoader{
		Logger:   logger,
		Config:   config,
		Store:    store,
		Producer: producer,
	}, nil
}

func (l *KafkaLoader) Load(ctx context.Context) (*LoadStats, error) {
	return run(ctx, "kafka", l.Logger, l.Config, l.Store, l.loadTable)
}

func (l *KafkaLoader) loadTable(ctx context.Context, t stage.Table) (int64, error) {
	table, err := datatable.NewCSVTableColumns(t.Name, dumpPath(l.Config, t), t.Delimiter, nil, t.Columns)
	if err != nil {
		return 0, err
	}

	if err := l.Store.Replace(ctx, t); err != nil {
		return 0, err
	}

	var published int64
	for _, row := range table.Rows() {
		msg := model.RowMessage{Schema: t.Schema, Table: t.Name, Row: row}
		if err := l.Producer.Publish(ctx, t.Key(), msg); err != nil {
			return published, fmt.Errorf("failed to publish row for %s: %w", t.Key(), err)
		}
		published++
	}
	return published, nil
}
