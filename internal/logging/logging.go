// Package logging builds the zap logger used across vidgrab.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents logger configuration.
type Config struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// New creates a logger from cfg. An unparsable level falls back to info.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	writer, err := openWriter(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	// Color codes only make sense on a terminal stream, never in a file.
	color := cfg.OutputPath == "" || cfg.OutputPath == "stdout" || cfg.OutputPath == "stderr"
	core := zapcore.NewCore(newEncoder(cfg.Format, color), writer, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// NewDefault is a console logger on stderr at info level.
func NewDefault() *zap.Logger {
	log, _ := New(Config{Level: "info", Format: "console", OutputPath: "stderr"})
	return log
}

func newEncoder(format string, color bool) zapcore.Encoder {
	if format == "json" {
		enc := zap.NewProductionEncoderConfig()
		enc.TimeKey = "timestamp"
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(enc)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	if color {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(enc)
}

var (
	lockedStdout = zapcore.Lock(os.Stdout)
	lockedStderr = zapcore.Lock(os.Stderr)
)

func openWriter(path string) (zapcore.WriteSyncer, error) {
	switch path {
	case "stdout":
		return lockedStdout, nil
	case "stderr", "":
		return lockedStderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}
