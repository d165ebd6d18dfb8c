package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// PaperPositionModel maps to the 'paper_positions' table.
type PaperPositionModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	Symbol        string     `gorm:"column:symbol;index"`
	Side          string     `gorm:"column:side"`
	Quantity      int        `gorm:"column:quantity"`
	EntryPrice    float64    `gorm:"column:entry_price"`
	CurrentPrice  float64    `gorm:"column:current_price"`
	TargetPrice   *float64   `gorm:"column:target_price"`
	StopLoss      *float64   `gorm:"column:stop_loss"`
	Exchange      string     `gorm:"column:exchange"`
	ProductType   string     `gorm:"column:product_type"`
	Status        string     `gorm:"column:status;index"`
	ExitPrice     *float64   `gorm:"column:exit_price"`
	ExitReason    string     `gorm:"column:exit_reason"`
	PnL           float64    `gorm:"column:pnl"`
	PnLPercentage float64    `gorm:"column:pnl_percentage"`
	SourceText    string     `gorm:"column:source_text"`
	OpenedAt      time.Time  `gorm:"column:opened_at"`
	ClosedAt      *time.Time `gorm:"column:closed_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (PaperPositionModel) TableName() string { return "paper_positions" }

// BalanceSnapshotModel maps to the 'balance_snapshots' table.
type BalanceSnapshotModel struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	InitialBalance   float64   `gorm:"column:initial_balance"`
	AvailableBalance float64   `gorm:"column:available_balance"`
	InvestedAmount   float64   `gorm:"column:invested_amount"`
	RealizedPnL      float64   `gorm:"column:realized_pnl"`
	UnrealizedPnL    float64   `gorm:"column:unrealized_pnl"`
	TotalPnL         float64   `gorm:"column:total_pnl"`
	TotalPnLPct      float64   `gorm:"column:total_pnl_pct"`
	OpenPositions    int       `gorm:"column:open_positions"`
	ClosedPositions  int       `gorm:"column:closed_positions"`
	CreatedAt        time.Time `gorm:"column:created_at;index"`
}

func (BalanceSnapshotModel) TableName() string { return "balance_snapshots" }

// SimulationRecordModel maps to the 'simulation_records' table. The full
// result is kept as JSON so the diagnostic trail survives schema changes.
type SimulationRecordModel struct {
	ID         int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Status     string         `gorm:"column:status;index"`
	Symbol     string         `gorm:"column:symbol;index"`
	Sender     string         `gorm:"column:sender"`
	SourceText string         `gorm:"column:source_text"`
	AIUsed     bool           `gorm:"column:ai_used"`
	Result     datatypes.JSON `gorm:"column:result"`
	CreatedAt  time.Time      `gorm:"column:created_at;index"`
}

func (SimulationRecordModel) TableName() string { return "simulation_records" }
