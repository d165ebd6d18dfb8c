package parser

import (
	"os"
	"testing"

	"signal-trader/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}
