package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"signal-trader/internal/types"
)

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatal(err)
	}
}

func TestParseLine(t *testing.T) {
	msg, ok := parseLine(`{"text":"BUY RELIANCE @ 2450","sender":"tips","chat_id":"c1"}`)
	if !ok {
		t.Fatal("Expected a message")
	}
	if msg.Text != "BUY RELIANCE @ 2450" || msg.Sender != "tips" {
		t.Errorf("Unexpected message %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected a timestamp to be filled in")
	}

	// Plain text lines become the message body.
	msg, ok = parseLine("SELL TCS below 3900")
	if !ok || msg.Text != "SELL TCS below 3900" {
		t.Errorf("Expected plain-text passthrough, got %v %+v", ok, msg)
	}

	if _, ok := parseLine("   "); ok {
		t.Error("Expected blank lines to be dropped")
	}

	// JSON without text is noise, not a message.
	if _, ok := parseLine(`{"sender":"tips"}`); ok {
		t.Error("Expected JSON without text to be dropped")
	}
}

func TestDrainReadsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.jsonl")
	tailer := NewTailer(path, time.Millisecond)

	out := make(chan types.RawMessage, 8)
	ctx := context.Background()

	// Nothing yet: no messages, no error.
	tailer.drain(ctx, out)
	if len(out) != 0 {
		t.Fatal("Expected no messages from a missing file")
	}

	appendLine(t, path, `{"text":"BUY RELIANCE @ 2450"}`)
	appendLine(t, path, "not json, just a tip: buy INFY at 1500")
	tailer.drain(ctx, out)

	if len(out) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(out))
	}
	first := <-out
	if first.Text != "BUY RELIANCE @ 2450" {
		t.Errorf("Unexpected first message %+v", first)
	}

	// Old lines are not replayed.
	tailer.drain(ctx, out)
	if len(out) != 1 {
		t.Fatalf("Expected only the remaining message, got %d", len(out))
	}
}

func TestDrainHandlesTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.jsonl")
	tailer := NewTailer(path, time.Millisecond)
	out := make(chan types.RawMessage, 8)
	ctx := context.Background()

	appendLine(t, path, "BUY RELIANCE @ 2450")
	tailer.drain(ctx, out)
	<-out

	// Truncate and write a shorter file: the tailer starts over.
	if err := os.WriteFile(path, []byte("SELL TCS\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tailer.drain(ctx, out)

	select {
	case msg := <-out:
		if msg.Text != "SELL TCS" {
			t.Errorf("Expected the post-truncation line, got %+v", msg)
		}
	default:
		t.Fatal("Expected a message after truncation")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.jsonl")
	tailer := NewTailer(path, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tailer.Run(ctx, make(chan types.RawMessage, 1)) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Tailer did not stop on cancel")
	}
}
