package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"signal-trader/internal/api"
	"signal-trader/internal/interfaces"
	"signal-trader/internal/store"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

const geminiSystemPrompt = `You are a trading signal parser. Extract trading information from messages.

IMPORTANT RULES:
1. Only extract if there's a clear BUY or SELL signal
2. Symbol must be a valid Indian stock symbol (e.g., RELIANCE, TCS, INFY, TATASTEEL, HDFCBANK)
3. For F&O, extract the full symbol including expiry and strike (e.g., NIFTY24DEC23500CE)
4. Prices should be numeric values only
5. If information is not present, use null
6. Be smart about understanding context - "above 2450" means entry is 2450

Respond ONLY with valid JSON in this exact format:
{
    "is_signal": true/false,
    "action": "BUY" or "SELL" or null,
    "symbol": "SYMBOL" or null,
    "entry_price": number or null,
    "target_price": number or null,
    "stop_loss": number or null,
    "quantity": number or null,
    "confidence": 0.0 to 1.0,
    "reasoning": "brief explanation"
}`

// GeminiExtractor interprets chat text through the Google Gemini API. Any
// backend failure is returned as an error for the caller to fall back on;
// it is never surfaced past the extractor chain.
type GeminiExtractor struct {
	cfg    *store.Config
	client *api.Client
	model  string
	apiKey string
}

var _ interfaces.Extractor = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates a Gemini-backed extractor. The API key comes
// from GEMINI_API_KEY; Enabled reports whether it is set.
func NewGeminiExtractor(cfg *store.Config) *GeminiExtractor {
	return newGemini(cfg, "https://generativelanguage.googleapis.com/v1beta/models/", os.Getenv("GEMINI_API_KEY"))
}

// newGemini wires the extractor against an explicit endpoint. The key is sent
// as the x-goog-api-key header, never in the URL: request URLs appear in the
// client's debug logs.
func newGemini(cfg *store.Config, baseURL, apiKey string) *GeminiExtractor {
	return &GeminiExtractor{
		cfg: cfg,
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(time.Duration(cfg.Parser.TimeoutSeconds)*time.Second),
			api.WithHeader("x-goog-api-key", apiKey),
			api.WithLogging(true),
		),
		model:  cfg.Parser.Model,
		apiKey: apiKey,
	}
}

// Enabled reports whether the backend is configured.
func (g *GeminiExtractor) Enabled() bool { return g.apiKey != "" }

// Extract forwards the message to Gemini and parses the structured reply.
func (g *GeminiExtractor) Extract(ctx context.Context, text string) (*types.CandidateSignal, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	if g.apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY missing")
	}

	body := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]string{
					{"text": fmt.Sprintf("%s\n\nParse this trading message:\n\n%s", geminiSystemPrompt, text)},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     g.cfg.Parser.Temperature,
			"maxOutputTokens": g.cfg.Parser.MaxTokens,
		},
	}

	resp, err := g.client.POST(ctx, g.model+":generateContent", body)
	if err != nil {
		return nil, err
	}

	content := gjson.GetBytes(resp.Body, "candidates.0.content.parts.0.text").String()
	if content == "" {
		return nil, errors.New("empty model response")
	}

	return parseModelOutput(content)
}

// parseModelOutput turns the model's JSON (possibly wrapped in markdown code
// fences) into a CandidateSignal. Out-of-range values are clamped rather than
// rejected; structurally unreadable output is an error so the caller can fall
// back to the pattern extractor.
func parseModelOutput(content string) (*types.CandidateSignal, error) {
	content = stripCodeFence(content)
	if !gjson.Valid(content) {
		return nil, errors.New("model output is not valid JSON")
	}

	parsed := gjson.Parse(content)
	if !parsed.Get("is_signal").Bool() {
		return nil, nil
	}

	action := strings.ToUpper(strings.TrimSpace(parsed.Get("action").String()))
	if action != string(types.SideBuy) && action != string(types.SideSell) {
		return nil, fmt.Errorf("unusable action %q in model output", action)
	}

	sig := &types.CandidateSignal{
		Symbol:     strings.ToUpper(strings.TrimSpace(parsed.Get("symbol").String())),
		Side:       types.Side(action),
		Reasoning:  parsed.Get("reasoning").String(),
		Confidence: parsed.Get("confidence").Float(),
		AIUsed:     true,
	}
	if sig.Symbol == "" {
		return nil, errors.New("model output missing symbol")
	}
	if sig.Confidence < 0 || sig.Confidence > 1 {
		sig.Confidence = 0
	}

	if v := parsed.Get("entry_price"); v.Exists() && v.Type == gjson.Number {
		sig.EntryPrice = types.Ptr(v.Float())
	}
	if v := parsed.Get("target_price"); v.Exists() && v.Type == gjson.Number {
		sig.TargetPrice = types.Ptr(v.Float())
	}
	if v := parsed.Get("stop_loss"); v.Exists() && v.Type == gjson.Number {
		sig.StopLoss = types.Ptr(v.Float())
	}
	if v := parsed.Get("quantity"); v.Exists() && v.Type == gjson.Number && v.Int() > 0 {
		sig.Quantity = types.Ptr(int(v.Int()))
	}

	return sig, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "```json") {
		s = strings.SplitN(s, "```json", 2)[1]
		s = strings.SplitN(s, "```", 2)[0]
	} else if strings.Contains(s, "```") {
		parts := strings.SplitN(s, "```", 3)
		if len(parts) >= 2 {
			s = parts[1]
		}
	}
	return strings.TrimSpace(s)
}
