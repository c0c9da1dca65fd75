package model

import (
	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/db"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// Model carries the wiring every data-layer type needs. Staging rows
// themselves are schemaless maps; nothing here is persisted.
type Model struct {
	Config *cfg.Config `gorm:"-"`
	Logger log.Logger  `gorm:"-"`
	Mysql  db.Conn     `gorm:"-"`
}
