// Package observability wires zap logging for the two ways the binary
// runs: human-facing CLI output on stderr and structured JSON for the
// server. Stdout stays clean because the MCP transport owns it.
package observability

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging profiles.
const (
	ProfileCLI        = "cli"
	ProfileStructured = "structured"
)

// CLILogger is the process-wide logger for command output. It defaults
// to a no-op logger so packages can log before InitCLILogger runs.
var CLILogger = zap.NewNop()

// InitCLILogger replaces CLILogger with a console logger on stderr.
func InitCLILogger(level string) error {
	logger, err := NewLogger(level, ProfileCLI)
	if err != nil {
		return err
	}
	CLILogger = logger
	return nil
}

// NewLogger builds a zap logger for the given level and profile. The
// CLI profile emits console lines without timestamps or caller info;
// structured emits production JSON. Both write to stderr.
func NewLogger(level, profile string) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(profile) {
	case ProfileCLI, "":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		encCfg.CallerKey = ""
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			lvl,
		)
		return zap.New(core), nil
	case ProfileStructured:
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		return cfg.Build()
	default:
		return nil, fmt.Errorf("unknown logging profile %q", profile)
	}
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}
