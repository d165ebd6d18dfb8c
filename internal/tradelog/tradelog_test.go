package tradelog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendWritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	err := Append(Entry{
		PositionID: "pos-1",
		Symbol:     "RELIANCE",
		Side:       "BUY",
		Action:     "OPEN",
		Qty:        10,
		Price:      2450,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	day := time.Now().In(time.FixedZone("IST", 19800)).Format("2006-01-02")
	b, err := os.ReadFile(filepath.Join(dir, day+".txt"))
	if err != nil {
		t.Fatal(err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(b))), &e); err != nil {
		t.Fatalf("Expected one JSON line, got %q", string(b))
	}
	if e.Symbol != "RELIANCE" || e.Action != "OPEN" || e.Price != 2450 {
		t.Errorf("Unexpected entry %+v", e)
	}
	if e.Time == "" {
		t.Error("Expected timestamp stamped on the entry")
	}
}

func TestAppendSimulationWritesSeparateDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	err := AppendSimulation(SimulationEntry{Status: "no_signal", Text: "good morning"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	day := time.Now().In(time.FixedZone("IST", 19800)).Format("2006-01-02")
	if _, err := os.Stat(filepath.Join(dir, "simulations", day+".txt")); err != nil {
		t.Errorf("Expected simulations journal, got %v", err)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	oldDay := time.Now().AddDate(0, 0, -10).Format("2006-01-02")
	oldPath := filepath.Join(dir, oldDay+".txt")
	if err := os.WriteFile(oldPath, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	freshDay := time.Now().Format("2006-01-02")
	freshPath := filepath.Join(dir, freshDay+".txt")
	if err := os.WriteFile(freshPath, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(oldPath + ".gz"); err != nil {
		t.Error("Expected old daily file gzipped")
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("Expected old daily file removed after compression")
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Error("Expected fresh daily file untouched")
	}
}
