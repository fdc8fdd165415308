// Package logger builds the zap logger shared by the harvester: a console
// core on stdout and a JSON core on a rotated log file.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func EncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func options() []zap.Option {
	var stackTraceLevel zap.LevelEnablerFunc = func(level zapcore.Level) bool {
		return level >= zapcore.DPanicLevel
	}
	return []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(stackTraceLevel),
	}
}

// Rotator keeps at most three 50MB files.
func Rotator(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 3,
		LocalTime:  true,
		Compress:   true,
	}
}

func ConsoleCore(w zapcore.WriteSyncer, enabler zapcore.LevelEnabler) zapcore.Core {
	cfg := EncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), w, enabler)
}

// FileCore returns the core and a closer that must run before exit:
// lumberjack has no Sync.
func FileCore(path string, enabler zapcore.LevelEnabler) (zapcore.Core, io.Closer) {
	writer := Rotator(path)
	return zapcore.NewCore(zapcore.NewJSONEncoder(EncoderConfig()), zapcore.AddSync(writer), enabler), writer
}

// New logs to stdout and, when file is set, to file. level is a zap level
// name; debug forces the debug level.
func New(file, level string, debug bool) (*zap.Logger, io.Closer, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", level, err)
	}
	if debug {
		lvl = zapcore.DebugLevel
	}

	cores := []zapcore.Core{ConsoleCore(zapcore.Lock(os.Stdout), lvl)}
	var closer io.Closer = nopCloser{}
	if file != "" {
		core, c := FileCore(file, lvl)
		cores = append(cores, core)
		closer = c
	}
	return zap.New(zapcore.NewTee(cores...), options()...), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
