package logger

import (
	"os"
	"path/filepath"

	"github.com/joeydtaylor/steeze-jrtc/pkg/manifest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func ensureLogDir(dir string) string {
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// NewLog builds a JSON logger writing to <dir>/<name> (rotated) and, unless
// disabled, to stdout.
func NewLog(cfg manifest.Log, name string) *zap.Logger {
	dir := ensureLogDir(cfg.Dir)

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zap.InfoLevel
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
	})

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, level),
	}
	if !cfg.NoConsole {
		console := zapcore.Lock(os.Stdout)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), console, level))
	}
	return zap.New(zapcore.NewTee(cores...))
}
