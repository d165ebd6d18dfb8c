package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/types"
)

// Words that look like symbols but are signal vocabulary, never tickers.
var excludedWords = map[string]struct{}{
	"BUY": {}, "SELL": {}, "LONG": {}, "SHORT": {}, "TARGET": {}, "TARGETS": {},
	"TGT": {}, "SL": {}, "QTY": {}, "QUANTITY": {}, "PRICE": {}, "ENTRY": {},
	"EXIT": {}, "STOP": {}, "LOSS": {}, "AT": {}, "RS": {}, "INR": {},
	"NSE": {}, "BSE": {}, "NFO": {}, "MCX": {}, "CDS": {}, "MARKET": {},
	"LIMIT": {}, "INTRADAY": {}, "DELIVERY": {}, "TP": {}, "CE": {}, "PE": {},
	"CALL": {}, "PUT": {}, "ABOVE": {}, "BELOW": {}, "AROUND": {}, "NEAR": {},
	"ABV": {}, "BLW": {}, "BOOK": {}, "PROFIT": {}, "LOT": {}, "LOTS": {},
}

var (
	buyRe    = regexp.MustCompile(`(?i)\b(?:buy|long|abv)\b`)
	sellRe   = regexp.MustCompile(`(?i)\b(?:sell|short|blw)\b`)
	aboveRe  = regexp.MustCompile(`(?i)\babove\b`)
	belowRe  = regexp.MustCompile(`(?i)\bbelow\b`)
	symbolRe = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9]{1,15})\b`)
	entryRe  = regexp.MustCompile(`(?i)(?:@|\bat\b|\bprice\b|\bentry\b|\babove\b|\bbelow\b|\babv\b|\bblw\b)\s*:?\s*(?:rs\.?\s*)?(\d+(?:\.\d{1,2})?)`)
	targetRe = regexp.MustCompile(`(?i)(?:\btargets?\b|\btgt\b|\btp\b|\bt\d\b|\bbook\s*profit\b)\s*:?\s*(?:rs\.?\s*)?(\d+(?:\.\d{1,2})?)`)
	slRe     = regexp.MustCompile(`(?i)(?:\bsl\b|\bstop\s*loss\b|\bstoploss\b)\s*:?\s*(?:rs\.?\s*)?(\d+(?:\.\d{1,2})?)`)
	qtyRe    = regexp.MustCompile(`(?i)(?:\bqty\b|\bquantity\b|\blots?\b)\s*:?\s*(\d+)`)
	moreRe   = regexp.MustCompile(`^\s*[/,]\s*(\d+(?:\.\d{1,2})?)`)
	bareRe   = regexp.MustCompile(`^\s*(?:rs\.?\s*)?(\d+(?:\.\d{1,2})?)\b`)
	numRe    = regexp.MustCompile(`\d+(?:\.\d{1,2})?`)
)

// PatternExtractor is the rule-based fallback parser. It never fails on
// malformed text: anything it cannot read as a trade signal is NoSignal.
type PatternExtractor struct {
	confidence float64
}

var _ interfaces.Extractor = (*PatternExtractor)(nil)

// NewPatternExtractor creates a pattern extractor reporting the given fixed
// confidence for every hit.
func NewPatternExtractor(confidence float64) *PatternExtractor {
	return &PatternExtractor{confidence: confidence}
}

// Extract scans the text for directional vocabulary, a symbol token and
// entry/target/stop-loss/quantity values. A (nil, nil) return means the text
// is not a trading signal.
func (p *PatternExtractor) Extract(ctx context.Context, text string) (*types.CandidateSignal, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	side, ok := detectSide(text)
	if !ok {
		return nil, nil
	}
	// A side keyword alone is chatter ("time to sell?") unless at least one
	// numeric price accompanies it or a symbol is named.
	if !numRe.MatchString(text) && findSymbol(text) == "" {
		return nil, nil
	}

	symbol := findSymbol(text)
	if symbol == "" {
		return nil, nil
	}

	sig := &types.CandidateSignal{
		Symbol:     symbol,
		Side:       side,
		Confidence: p.confidence,
	}

	if m := entryRe.FindStringSubmatch(text); m != nil {
		sig.EntryPrice = parsePrice(m[1])
	}

	targets := findTargets(text)
	if len(targets) > 0 {
		sig.TargetPrice = &targets[0]
		if len(targets) > 1 {
			sig.ExtraTargets = targets[1:]
		}
	}

	if m := slRe.FindStringSubmatch(text); m != nil {
		sig.StopLoss = parsePrice(m[1])
	}

	if m := qtyRe.FindStringSubmatch(text); m != nil {
		if q, err := strconv.Atoi(m[1]); err == nil && q > 0 {
			sig.Quantity = &q
		}
	}

	// A bare price right after the symbol is the entry when no explicit
	// entry marker was used ("BUY RELIANCE 2450 TGT 2500").
	if sig.EntryPrice == nil {
		sig.EntryPrice = bareEntryAfterSymbol(text, symbol)
	}

	return sig, nil
}

func detectSide(text string) (types.Side, bool) {
	switch {
	case buyRe.MatchString(text):
		return types.SideBuy, true
	case sellRe.MatchString(text):
		return types.SideSell, true
	// "above"/"below" are directional cues when no explicit side word exists.
	case aboveRe.MatchString(text):
		return types.SideBuy, true
	case belowRe.MatchString(text):
		return types.SideSell, true
	}
	return "", false
}

func findSymbol(text string) string {
	for _, m := range symbolRe.FindAllStringSubmatch(text, -1) {
		tok := strings.ToUpper(m[1])
		if _, excluded := excludedWords[tok]; excluded {
			continue
		}
		if len(tok) < 2 {
			continue
		}
		return tok
	}
	return ""
}

// findTargets returns all target prices in order of appearance, including
// slash/comma-separated lists like "targets 180/200".
func findTargets(text string) []float64 {
	var out []float64
	for _, loc := range targetRe.FindAllStringSubmatchIndex(text, -1) {
		v, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		if err != nil {
			continue
		}
		out = append(out, v)

		rest := text[loc[3]:]
		for {
			m := moreRe.FindStringSubmatch(rest)
			if m == nil {
				break
			}
			extra, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				break
			}
			out = append(out, extra)
			rest = rest[len(m[0]):]
		}
	}
	return out
}

func bareEntryAfterSymbol(text, symbol string) *float64 {
	idx := strings.Index(strings.ToUpper(text), symbol)
	if idx < 0 {
		return nil
	}
	rest := text[idx+len(symbol):]
	m := bareRe.FindStringSubmatch(rest)
	if m == nil {
		return nil
	}
	return parsePrice(m[1])
}

func parsePrice(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
