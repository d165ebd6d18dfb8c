package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/types"
)

// Store persists positions, balance snapshots and simulation records to a
// local SQLite database.
type Store struct {
	db *gorm.DB
}

// Compile-time interface check
var _ interfaces.Store = (*Store)(nil)

// New opens (or creates) the database at path and migrates the schema.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// The _pragma DSN options and the "sqlite" driver name belong to the
	// pure-Go modernc driver, not the default cgo one.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

// NewFromDB wraps an existing gorm handle. Used by tests.
func NewFromDB(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	return newStore(db)
}

func newStore(db *gorm.DB) (*Store, error) {
	models := []interface{}{
		&PaperPositionModel{},
		&BalanceSnapshotModel{},
		&SimulationRecordModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

// SavePosition upserts a position by ID.
func (s *Store) SavePosition(ctx context.Context, p types.VirtualPosition) error {
	m := PaperPositionModel{
		ID:            p.ID,
		Symbol:        p.Symbol,
		Side:          string(p.Side),
		Quantity:      p.Quantity,
		EntryPrice:    p.EntryPrice,
		CurrentPrice:  p.CurrentPrice,
		TargetPrice:   p.TargetPrice,
		StopLoss:      p.StopLoss,
		Exchange:      p.Exchange,
		ProductType:   p.ProductType,
		Status:        string(p.Status),
		ExitPrice:     p.ExitPrice,
		ExitReason:    string(p.ExitReason),
		PnL:           p.PnL,
		PnLPercentage: p.PnLPercentage,
		SourceText:    p.SourceText,
		OpenedAt:      p.OpenedAt,
		ClosedAt:      p.ClosedAt,
		UpdatedAt:     time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&m).Error
}

// SaveBalance appends a balance snapshot.
func (s *Store) SaveBalance(ctx context.Context, b types.BalanceSummary) error {
	m := BalanceSnapshotModel{
		InitialBalance:   b.InitialBalance,
		AvailableBalance: b.AvailableBalance,
		InvestedAmount:   b.InvestedAmount,
		RealizedPnL:      b.RealizedPnL,
		UnrealizedPnL:    b.UnrealizedPnL,
		TotalPnL:         b.TotalPnL,
		TotalPnLPct:      b.TotalPnLPct,
		OpenPositions:    b.OpenPositions,
		ClosedPositions:  b.ClosedPositions,
		CreatedAt:        time.Now(),
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// SaveSimulation appends a simulation record with the full result as JSON.
func (s *Store) SaveSimulation(ctx context.Context, r types.SimulationResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	m := SimulationRecordModel{
		Status:     string(r.Status),
		Sender:     r.Message.Sender,
		SourceText: r.Message.Text,
		Result:     payload,
		CreatedAt:  r.Time,
	}
	if r.Signal != nil {
		m.Symbol = r.Signal.Symbol
		m.AIUsed = r.Signal.AIUsed
	} else if r.Candidate != nil {
		m.Symbol = r.Candidate.Symbol
		m.AIUsed = r.Candidate.AIUsed
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// RecentSimulations returns the latest n simulation records, newest first.
func (s *Store) RecentSimulations(ctx context.Context, n int) ([]SimulationRecordModel, error) {
	var records []SimulationRecordModel
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(n).Find(&records).Error
	return records, err
}

// OpenPositions returns all persisted positions still marked open.
func (s *Store) OpenPositions(ctx context.Context) ([]PaperPositionModel, error) {
	var positions []PaperPositionModel
	err := s.db.WithContext(ctx).Where("status = ?", string(types.StatusOpen)).Order("opened_at").Find(&positions).Error
	return positions, err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
