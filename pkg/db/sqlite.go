package db

import (
	"strings"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Sqlite is a file or in-memory connection used by tests and local tooling.
type Sqlite struct {
	Dsn     string
	once    sync.Once
	db      *gorm.DB
	initErr error
}

func NewSqlite(dsn string) (*Sqlite, error) {
	return &Sqlite{
		Dsn: dsn,
	}, nil
}

func (s *Sqlite) Db() (*gorm.DB, error) {
	s.once.Do(func() {
		var db *gorm.DB
		db, s.initErr = gorm.Open(sqlite.Open(s.Dsn), &gorm.Config{})
		if s.initErr != nil {
			return
		}

		// An in-memory database exists per connection; pin the pool to one
		// so every statement sees the same tables.
		if strings.Contains(s.Dsn, ":memory:") {
			sqlDB, err := db.DB()
			if err != nil {
				s.initErr = err
				return
			}
			sqlDB.SetMaxOpenConns(1)
		}

		s.db = db
	})
	return s.db, s.initErr
}

func (s *Sqlite) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		sqlDB.Close()
	}
	return nil
}
