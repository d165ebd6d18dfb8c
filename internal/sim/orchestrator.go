package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/ledger"
	"signal-trader/internal/logger"
	"signal-trader/internal/store"
	"signal-trader/internal/tradelog"
	"signal-trader/internal/types"
	"signal-trader/internal/validator"
)

// HeadlineFetcher supplies news context for low-confidence signals.
type HeadlineFetcher interface {
	Headlines(ctx context.Context, symbol string, maxHeadlines int) ([]types.Headline, error)
}

// Orchestrator runs one raw chat message through extraction, validation and
// the optional paper execution. It never returns an error: every outcome,
// including failures of its collaborators, becomes a status and a step in
// the diagnostic trail so an operator can audit how a message was handled.
type Orchestrator struct {
	cfg       *store.Config
	extractor interfaces.Extractor
	validator *validator.Validator
	ledger    interfaces.Ledger

	headlines HeadlineFetcher
	store     interfaces.Store
	notifier  interfaces.Notifier
}

var _ interfaces.Simulator = (*Orchestrator)(nil)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHeadlines attaches a news fetcher, consulted for signals whose
// confidence falls below the configured threshold.
func WithHeadlines(h HeadlineFetcher) Option {
	return func(o *Orchestrator) { o.headlines = h }
}

// WithStore persists every simulation result. Failures are logged only.
func WithStore(s interfaces.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithNotifier publishes a simulation event after every run.
func WithNotifier(n interfaces.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// New creates an orchestrator over the given pipeline collaborators.
func New(cfg *store.Config, ex interfaces.Extractor, v *validator.Validator, l interfaces.Ledger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		extractor: ex,
		validator: v,
		ledger:    l,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Simulate processes one message end to end. With executePaper false the
// pipeline stops after validation, leaving the ledger untouched.
func (o *Orchestrator) Simulate(ctx context.Context, msg types.RawMessage, executePaper bool) types.SimulationResult {
	result := types.SimulationResult{
		Message: msg,
		Time:    time.Now(),
	}
	step := func(name, status, detail string) {
		result.Steps = append(result.Steps, types.SimStep{Name: name, Status: status, Detail: detail})
	}

	candidate, err := o.extractor.Extract(ctx, msg.Text)
	if err != nil {
		step("extract", "failed", err.Error())
		result.Status = types.SimNoSignal
		result.Reason = err.Error()
		o.finish(ctx, &result)
		return result
	}
	if candidate == nil {
		step("extract", "no_signal", "no trade intent detected")
		result.Status = types.SimNoSignal
		o.finish(ctx, &result)
		return result
	}
	result.Candidate = candidate
	step("extract", "ok", extractDetail(candidate))

	sig, err := o.validator.Validate(ctx, candidate)
	if err != nil {
		var verr *validator.ValidationError
		detail := err.Error()
		if errors.As(err, &verr) {
			detail = verr.Reason + ": " + verr.Detail
		}
		step("validate", "rejected", detail)
		result.Status = types.SimInvalid
		result.Reason = detail
		o.finish(ctx, &result)
		return result
	}
	sig.SourceText = msg.Text
	result.Signal = sig
	result.Status = types.SimValidated
	step("validate", "ok", validateDetail(sig))
	for _, w := range sig.Warnings {
		step("validate", "warning", w)
	}

	o.attachHeadlines(ctx, &result, sig)

	if executePaper {
		pos, err := o.ledger.Open(ctx, *sig)
		switch {
		case err == nil:
			result.Position = pos
			result.Status = types.SimExecuted
			step("execute", "ok", "opened position "+pos.ID)
		case errors.Is(err, ledger.ErrInsufficientFunds),
			errors.Is(err, ledger.ErrPriceUnavailable):
			result.Status = types.SimRejected
			result.Reason = err.Error()
			step("execute", "rejected", err.Error())
		default:
			result.Status = types.SimRejected
			result.Reason = err.Error()
			step("execute", "failed", err.Error())
		}
	}

	o.finish(ctx, &result)
	return result
}

// attachHeadlines pulls recent news for low-confidence signals. Scraping
// failures never affect the simulation outcome.
func (o *Orchestrator) attachHeadlines(ctx context.Context, result *types.SimulationResult, sig *types.TradeSignal) {
	if o.headlines == nil || !o.cfg.News.Enabled {
		return
	}
	if sig.Confidence >= o.cfg.News.ConfidenceThreshold {
		return
	}

	newsCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.News.TimeoutSeconds)*time.Second)
	defer cancel()

	headlines, err := o.headlines.Headlines(newsCtx, sig.Symbol, o.cfg.News.MaxHeadlines)
	if err != nil {
		result.Steps = append(result.Steps, types.SimStep{Name: "news", Status: "failed", Detail: err.Error()})
		return
	}
	result.Headlines = headlines
	result.Steps = append(result.Steps, types.SimStep{
		Name:   "news",
		Status: "ok",
		Detail: headlineDetail(len(headlines), sig.Confidence),
	})
}

// finish records the outcome in the simulation journal, persists it and
// notifies subscribers. All three are degrade-not-fail.
func (o *Orchestrator) finish(ctx context.Context, result *types.SimulationResult) {
	entry := tradelog.SimulationEntry{
		Status: string(result.Status),
		Reason: result.Reason,
		Text:   result.Message.Text,
	}
	if result.Signal != nil {
		entry.Symbol = result.Signal.Symbol
		entry.Side = string(result.Signal.Side)
		entry.Confidence = result.Signal.Confidence
		entry.AIUsed = result.Signal.AIUsed
	} else if result.Candidate != nil {
		entry.Symbol = result.Candidate.Symbol
		entry.Side = string(result.Candidate.Side)
		entry.Confidence = result.Candidate.Confidence
		entry.AIUsed = result.Candidate.AIUsed
	}
	if err := tradelog.AppendSimulation(entry); err != nil {
		logger.Warn(ctx, "Failed to journal simulation", "error", err)
	}

	if o.store != nil {
		if err := o.store.SaveSimulation(ctx, *result); err != nil {
			logger.Warn(ctx, "Failed to persist simulation", "error", err)
		}
	}
	if o.notifier != nil {
		o.notifier.Publish(types.Event{Type: "simulation", Payload: *result, Time: result.Time})
	}

	logger.Info(ctx, "Simulation finished",
		"status", string(result.Status),
		"symbol", entry.Symbol,
		"steps", len(result.Steps),
	)
}

func extractDetail(c *types.CandidateSignal) string {
	d := string(c.Side) + " " + c.Symbol
	if c.AIUsed {
		return d + " (semantic)"
	}
	return d + " (pattern)"
}

func validateDetail(sig *types.TradeSignal) string {
	d := string(sig.Side) + " " + sig.Symbol + " on " + sig.Exchange
	if !sig.TokenInfo.Found {
		d += " (unverified symbol)"
	}
	return d
}

func headlineDetail(n int, confidence float64) string {
	return fmt.Sprintf("attached %d headlines for low-confidence signal (%.2f)", n, confidence)
}
