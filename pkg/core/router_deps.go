package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	httpx "github.com/joeydtaylor/steeze-jrtc/pkg/transport/httpx"
	"go.uber.org/zap"
)

type BuildDeps struct {
	LogMW       *logger.Middleware // optional access log
	Metrics     http.Handler       // optional; mounted at MetricsPath
	MetricsPath string
	Router      httpx.Router

	Registry  *app.Registry
	Callbacks native.Callbacks
	Mem       native.Allocator
	Lookup    app.LookupFunc // nil => os.LookupEnv
	BodyLimit int64          // 0 => unlimited
	Log       *zap.Logger
}
