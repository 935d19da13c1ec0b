package bridge

import (
	"net/http"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	"go.uber.org/zap"
)

type options struct {
	log         *zap.Logger
	accessLog   *logger.Middleware
	mem         native.Allocator
	lookup      app.LookupFunc
	host        string
	bodyLimit   int64
	metrics     http.Handler
	metricsPath string
	tlsCert     string
	tlsKey      string
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

func WithAccessLog(m *logger.Middleware) Option { return func(o *options) { o.accessLog = m } }

// WithAllocator sets where native strings are allocated. The C library
// passes its C-heap allocator; the default keeps them in Go memory.
func WithAllocator(mem native.Allocator) Option { return func(o *options) { o.mem = mem } }

func WithEnvLookup(fn app.LookupFunc) Option { return func(o *options) { o.lookup = fn } }

// WithHost restricts the listen address; default is all interfaces.
func WithHost(host string) Option { return func(o *options) { o.host = host } }

func WithBodyLimit(n int64) Option { return func(o *options) { o.bodyLimit = n } }

// WithMetrics mounts h (usually promhttp) at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(o *options) { o.metricsPath, o.metrics = path, h }
}

// WithTLS serves HTTPS (TLS 1.3) from the PEM files certFile and keyFile.
// A pair that fails to load makes Start report the error through Err.
func WithTLS(certFile, keyFile string) Option {
	return func(o *options) { o.tlsCert, o.tlsKey = certFile, keyFile }
}

func defaultOptions() options {
	return options{
		log: zap.L(),
		mem: native.NewHeapAllocator(),
	}
}
