package logger

import (
	"github.com/joeydtaylor/steeze-jrtc/pkg/manifest"
	"go.uber.org/zap"
)

func ProvideLogger(cfg manifest.Config) *zap.Logger { return NewLog(cfg.Log, "system.log") }

func ProvideLoggerMiddleware(cfg manifest.Config) *Middleware {
	return NewMiddleware(NewLog(cfg.Log, "http-access.log"), cfg.Log.BodyPaths)
}
