package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var mu sync.Mutex

// Entry is one executed paper trade (open or close).
type Entry struct {
	Time, PositionID, Symbol, Side string
	Action                         string // OPEN or CLOSE
	Reason                         string `json:",omitempty"`
	Qty                            int
	Price                          float64
	PnL                            float64        `json:",omitempty"`
	Extra                          map[string]any `json:"extra,omitempty"`
}

// SimulationEntry is one simulation outcome, signal or not.
type SimulationEntry struct {
	Time, Status, Symbol string
	Side                 string  `json:",omitempty"`
	Confidence           float64 `json:",omitempty"`
	AIUsed               bool
	Reason               string `json:",omitempty"`
	Text                 string `json:",omitempty"`
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}
func dailyFilepath(t time.Time) string {
	d := t.In(time.FixedZone("IST", 19800)).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}
func simulationsFilepath(t time.Time) string {
	d := t.In(time.FixedZone("IST", 19800)).Format("2006-01-02")
	return filepath.Join(logDir(), "simulations", d+".txt")
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(time.FixedZone("IST", 19800))
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(dailyFilepath(now), e)
}

func AppendSimulation(e SimulationEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(time.FixedZone("IST", 19800))
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(simulationsFilepath(now), e)
}

func appendLine(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips daily log files older than retentionDays.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(p, ".txt") {
			return nil
		}
		base := strings.TrimSuffix(filepath.Base(p), ".txt")
		day, perr := time.Parse("2006-01-02", base)
		if perr != nil || !day.Before(cutoff) {
			return nil
		}
		if cerr := gzipFile(p); cerr == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func gzipFile(p string) error {
	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(p + ".gz")
	if err != nil {
		return err
	}
	defer out.Close()

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
