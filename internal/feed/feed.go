package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

// Tailer follows a JSONL file of raw chat messages and emits every line
// appended after startup. Lines that are not JSON are treated as bare
// message text, which makes manual testing with echo >> possible.
type Tailer struct {
	path     string
	interval time.Duration
	offset   int64
}

// NewTailer creates a tailer over path, polling at the given interval.
func NewTailer(path string, interval time.Duration) *Tailer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Tailer{path: path, interval: interval}
}

// Run pumps new messages into out until the context is cancelled. A missing
// file is not an error; it is polled until it appears. Existing content at
// startup is skipped so restarts do not replay old messages.
func (t *Tailer) Run(ctx context.Context, out chan<- types.RawMessage) error {
	if info, err := os.Stat(t.path); err == nil {
		t.offset = info.Size()
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.drain(ctx, out)
		}
	}
}

// drain reads all complete lines past the current offset.
func (t *Tailer) drain(ctx context.Context, out chan<- types.RawMessage) {
	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}
	// Truncated or rotated file: start over from the beginning.
	if info.Size() < t.offset {
		t.offset = 0
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return
	}

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			// Partial last line stays unconsumed until its newline arrives.
			return
		}
		t.offset += int64(len(line))

		msg, ok := parseLine(line)
		if !ok {
			continue
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
		logger.Debug(ctx, "Feed message received", "sender", msg.Sender, "len", len(msg.Text))
	}
}

// parseLine decodes one feed line. JSON lines map onto RawMessage; anything
// else becomes the message text verbatim.
func parseLine(line string) (types.RawMessage, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return types.RawMessage{}, false
	}

	var msg types.RawMessage
	if strings.HasPrefix(line, "{") && json.Unmarshal([]byte(line), &msg) == nil && msg.Text != "" {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}
		return msg, true
	}

	return types.RawMessage{Text: line, Timestamp: time.Now()}, true
}
