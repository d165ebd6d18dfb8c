package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"signal-trader/internal/store"
)

func TestExtractSendsKeyAsHeaderNotURL(t *testing.T) {
	const key = "test-api-key"

	var gotHeader, gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("x-goog-api-key")
		gotURL = r.URL.String()
		reply := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{
						{"text": `{"is_signal": true, "action": "BUY", "symbol": "TCS", "confidence": 0.9, "reasoning": "clear call"}`},
					},
				},
			}},
		}
		json.NewEncoder(w).Encode(reply)
	}))
	defer srv.Close()

	g := newGemini(store.DefaultConfig(), srv.URL+"/", key)
	sig, err := g.Extract(context.Background(), "BUY TCS")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig == nil || sig.Symbol != "TCS" {
		t.Fatalf("Unexpected signal %+v", sig)
	}

	if gotHeader != key {
		t.Errorf("Expected the key in the x-goog-api-key header, got %q", gotHeader)
	}
	// The request URL is logged, so the credential must never appear in it.
	if strings.Contains(gotURL, key) {
		t.Errorf("API key leaked into the request URL: %s", gotURL)
	}
}

func TestParseModelOutput(t *testing.T) {
	content := `{
		"is_signal": true,
		"action": "BUY",
		"symbol": "RELIANCE",
		"entry_price": 2450,
		"target_price": 2500,
		"stop_loss": 2420,
		"quantity": null,
		"confidence": 0.92,
		"reasoning": "clear buy call with levels"
	}`

	sig, err := parseModelOutput(content)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig.Symbol != "RELIANCE" || sig.Side != "BUY" {
		t.Errorf("Unexpected signal %+v", sig)
	}
	if sig.EntryPrice == nil || *sig.EntryPrice != 2450 {
		t.Errorf("Expected entry 2450, got %v", sig.EntryPrice)
	}
	if sig.Quantity != nil {
		t.Errorf("Expected null quantity to stay nil, got %v", *sig.Quantity)
	}
	if sig.Confidence != 0.92 {
		t.Errorf("Expected confidence 0.92, got %f", sig.Confidence)
	}
	if !sig.AIUsed {
		t.Error("Expected ai_used true")
	}
}

func TestParseModelOutputCodeFence(t *testing.T) {
	content := "```json\n{\"is_signal\": true, \"action\": \"SELL\", \"symbol\": \"TCS\", \"confidence\": 0.8}\n```"

	sig, err := parseModelOutput(content)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig.Symbol != "TCS" || sig.Side != "SELL" {
		t.Errorf("Unexpected signal %+v", sig)
	}
}

func TestParseModelOutputNotASignal(t *testing.T) {
	sig, err := parseModelOutput(`{"is_signal": false, "confidence": 0.95, "reasoning": "greeting"}`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig != nil {
		t.Errorf("Expected no signal, got %+v", sig)
	}
}

func TestParseModelOutputUnusable(t *testing.T) {
	cases := []string{
		"the market looks bullish today",
		`{"is_signal": true, "action": "HOLD", "symbol": "TCS"}`,
		`{"is_signal": true, "action": "BUY"}`,
	}
	for _, content := range cases {
		if _, err := parseModelOutput(content); err == nil {
			t.Errorf("Expected error for %q", content)
		}
	}
}

func TestParseModelOutputClampsConfidence(t *testing.T) {
	sig, err := parseModelOutput(`{"is_signal": true, "action": "BUY", "symbol": "INFY", "confidence": 7.5}`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig.Confidence != 0 {
		t.Errorf("Expected out-of-range confidence clamped to 0, got %f", sig.Confidence)
	}
}
