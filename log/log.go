// Package log provides the project-wide leveled logger. It is a thin
// facade over zap so that callers never carry a logger handle around;
// tests switch it off with SetLogger(name, SILENT).
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	SILENT = "silent"
	ERROR  = "error"
	INFO   = "info"
	DEBUG  = "debug"
)

var std *zap.SugaredLogger

func init() {
	SetLogger("densitree", INFO)
}

// SetLogger replaces the global logger with a named one at the given
// level. Unknown levels fall back to INFO.
func SetLogger(name, level string) {
	if level == SILENT {
		std = zap.NewNop().Sugar()
		return
	}

	var lvl zapcore.Level
	switch level {
	case DEBUG:
		lvl = zapcore.DebugLevel
	case ERROR:
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		std = zap.NewNop().Sugar()
		return
	}
	std = logger.Named(name).Sugar()
}

func GetLogger() *zap.SugaredLogger { return std }

func Debug(args ...interface{})                 { std.Debug(args...) }
func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Info(args ...interface{})                  { std.Info(args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Error(args ...interface{})                 { std.Error(args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { std.Fatalf(format, args...) }
