// Package telemetry records one row per optimizer run in a SQLite-backed
// history table, so repeated invocations (e.g. from a benchmark harness
// sweeping cost adapters) can be compared after the fact. Grounded on the
// teacher's GORM dialector wiring (pkg/api/gorm/dialect.go): here GORM
// talks to a real embedded database instead of an in-process session,
// using glebarez/sqlite as the pure-Go driver over modernc.org/sqlite.
package telemetry

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunRecord is one optimizer invocation: which adapter ran, over how many
// relations, what it cost, and how long DPsize took.
type RunRecord struct {
	ID             string `gorm:"primaryKey"`
	StartedAt      time.Time
	RelationCount  int
	AdapterName    string
	BestPlanCost   float64
	BestPlanSig    string
	ElapsedSeconds float64
}

// Store wraps a GORM handle over an embedded SQLite file (or ":memory:").
type Store struct {
	db *gorm.DB
}

// Open opens or creates the SQLite database at path and migrates the
// RunRecord table. Pass ":memory:" for an ephemeral store, matching
// modernc.org/sqlite's in-memory DSN convention.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening store: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("telemetry: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordRun inserts a new run record, stamping it with a fresh run ID
// and the current time when rec leaves those fields empty.
func (s *Store) RecordRun(rec RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return "", fmt.Errorf("telemetry: recording run: %w", err)
	}
	return rec.ID, nil
}

// Runs returns every recorded run, most recent first.
func (s *Store) Runs() ([]RunRecord, error) {
	var out []RunRecord
	if err := s.db.Order("started_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("telemetry: listing runs: %w", err)
	}
	return out, nil
}

// RunsByAdapter returns every recorded run for a given adapter name,
// most recent first — used to compare C_out against the learned model
// across repeated invocations of the same query graph.
func (s *Store) RunsByAdapter(adapterName string) ([]RunRecord, error) {
	var out []RunRecord
	if err := s.db.Where("adapter_name = ?", adapterName).Order("started_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("telemetry: listing runs for adapter %q: %w", adapterName, err)
	}
	return out, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("telemetry: closing store: %w", err)
	}
	return sqlDB.Close()
}
