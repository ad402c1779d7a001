// Package database persists the HTTP eval API's audit trail: one row per
// evaluated expression plus the logger's Record sink, grounded on the
// teacher's cmd/ares/main.go gorm.Open(postgres.Open(dsn)) setup with a
// sqlite fallback for the database-less dev case (no teacher file wires
// sqlite directly, but gorm.io/driver/sqlite sits in the teacher's go.mod
// go.sum transitively through its test harness, and the spec's HTTP
// surface has no hard requirement on a running Postgres instance).
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lispirito/internal/logger"
)

// EvalRecord is one row of the HTTP API's audit trail: the source text
// submitted, the printed result or error, and how long the VM spent on it.
type EvalRecord struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	Session    string
	Source     string
	Result     string
	Error      string
	DurationMS int64
}

// Open connects to Postgres when dsn is non-empty, falling back to a
// local sqlite file otherwise, matching the teacher's pooled-connection
// settings (PrepareStmt, SkipDefaultTransaction) on the Postgres path.
func Open(dsn, sqlitePath string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
		})
	} else {
		db, err = gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&EvalRecord{}, &logger.Record{}); err != nil {
		return nil, fmt.Errorf("database: migrate: %w", err)
	}
	return db, nil
}

// RecordEval writes one EvalRecord asynchronously, the way the teacher's
// logger writes its own Record rows off the request path.
func RecordEval(db *gorm.DB, rec EvalRecord) {
	if db == nil {
		return
	}
	rec.CreatedAt = time.Now()
	go func() {
		_ = db.Create(&rec).Error
	}()
}
