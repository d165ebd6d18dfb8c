package types

import "time"

// Side of a trade signal.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PositionStatus is the lifecycle state of a virtual position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitManual    ExitReason = "MANUAL"
	ExitTargetHit ExitReason = "TARGET_HIT"
	ExitSLHit     ExitReason = "SL_HIT"
	ExitReset     ExitReason = "RESET"
)

// RawMessage is one chat message handed in by the message source.
type RawMessage struct {
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	ChatID    string    `json:"chat_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CandidateSignal is an extractor's best-effort structured guess at a trade
// intent. Price fields are pointers: nil means the message did not mention
// them, which is a different case from an explicit zero.
type CandidateSignal struct {
	Symbol       string    `json:"symbol"`
	Side         Side      `json:"side"`
	EntryPrice   *float64  `json:"entry_price,omitempty"`
	TargetPrice  *float64  `json:"target_price,omitempty"`
	ExtraTargets []float64 `json:"extra_targets,omitempty"`
	StopLoss     *float64  `json:"stop_loss,omitempty"`
	Quantity     *int      `json:"quantity,omitempty"`
	Confidence   float64   `json:"confidence"`
	Reasoning    string    `json:"reasoning,omitempty"`
	AIUsed       bool      `json:"ai_used"`
}

// TokenInfo is the result of the exchange/instrument lookup for a symbol.
type TokenInfo struct {
	Found    bool   `json:"found"`
	Exchange string `json:"exchange,omitempty"`
	Token    uint32 `json:"token,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// TradeSignal is the canonical, validated form of a CandidateSignal. A nil
// EntryPrice means "use current market price".
type TradeSignal struct {
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	EntryPrice  *float64  `json:"entry_price,omitempty"`
	TargetPrice *float64  `json:"target_price,omitempty"`
	StopLoss    *float64  `json:"stop_loss,omitempty"`
	Quantity    int       `json:"quantity"`
	Exchange    string    `json:"exchange"`
	ProductType string    `json:"product_type"`
	TokenInfo   TokenInfo `json:"token_info"`
	Warnings    []string  `json:"warnings,omitempty"`
	Confidence  float64   `json:"confidence"`
	Reasoning   string    `json:"reasoning,omitempty"`
	AIUsed      bool      `json:"ai_used"`
	SourceText  string    `json:"source_text,omitempty"`
}

// VirtualPosition is one paper trade. Closed positions are immutable history.
type VirtualPosition struct {
	ID            string         `json:"id"`
	Symbol        string         `json:"symbol"`
	Side          Side           `json:"side"`
	Quantity      int            `json:"quantity"`
	EntryPrice    float64        `json:"entry_price"`
	CurrentPrice  float64        `json:"current_price"`
	TargetPrice   *float64       `json:"target_price,omitempty"`
	StopLoss      *float64       `json:"stop_loss,omitempty"`
	Exchange      string         `json:"exchange"`
	ProductType   string         `json:"product_type"`
	Status        PositionStatus `json:"status"`
	ExitPrice     *float64       `json:"exit_price,omitempty"`
	ExitReason    ExitReason     `json:"exit_reason,omitempty"`
	PnL           float64        `json:"pnl"`
	PnLPercentage float64        `json:"pnl_percentage"`
	SourceText    string         `json:"source_text,omitempty"`
	OpenedAt      time.Time      `json:"opened_at"`
	ClosedAt      *time.Time     `json:"closed_at,omitempty"`
}

// BalanceSummary is a point-in-time snapshot of the virtual account.
type BalanceSummary struct {
	InitialBalance   float64 `json:"initial_balance"`
	AvailableBalance float64 `json:"available_balance"`
	InvestedAmount   float64 `json:"invested_amount"`
	RealizedPnL      float64 `json:"realized_pnl"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	TotalPnL         float64 `json:"total_pnl"`
	TotalPnLPct      float64 `json:"total_pnl_percentage"`
	OpenPositions    int     `json:"open_positions"`
	ClosedPositions  int     `json:"closed_positions"`
}

// MarkReport summarizes one mark-to-market sweep.
type MarkReport struct {
	Marked     int               `json:"marked"`
	Skipped    int               `json:"skipped"`
	AutoClosed []VirtualPosition `json:"auto_closed,omitempty"`
}

// SimulationStatus is the terminal status of one Simulate call.
type SimulationStatus string

const (
	SimNoSignal  SimulationStatus = "no_signal"
	SimInvalid   SimulationStatus = "invalid"
	SimValidated SimulationStatus = "validated"
	SimExecuted  SimulationStatus = "executed"
	SimRejected  SimulationStatus = "rejected"
)

// SimStep is one entry in the simulation diagnostic trail.
type SimStep struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// SimulationResult is the full outcome of running one raw message through the
// pipeline. Every intermediate decision is kept so a human operator can judge
// whether to trust the automated parsing.
type SimulationResult struct {
	Status    SimulationStatus `json:"status"`
	Message   RawMessage       `json:"message"`
	Candidate *CandidateSignal `json:"candidate,omitempty"`
	Signal    *TradeSignal     `json:"signal,omitempty"`
	Position  *VirtualPosition `json:"position,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Headlines []Headline       `json:"headlines,omitempty"`
	Steps     []SimStep        `json:"steps"`
	Time      time.Time        `json:"time"`
}

// Headline is one scraped news item attached as signal context.
type Headline struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Event is pushed to the notification layer after every ledger mutation and
// simulation outcome.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	Time    time.Time `json:"time"`
}

// Ptr returns a pointer to v. Handy for optional price fields.
func Ptr[T any](v T) *T { return &v }
