// Package bridge controls one REST server instance from plain synchronous
// callers: New creates the handle, Start serves on it (blocking), and Stop
// shuts it down from any goroutine or foreign thread.
package bridge

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/core"
	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	"github.com/joeydtaylor/steeze-jrtc/pkg/transport/httpx"
	"go.uber.org/zap"
)

// ErrStopped is reported by Err when Start found the handle already stopped.
var ErrStopped = errors.New("bridge: handle stopped")

type state int

const (
	created state = iota
	running
	stopped
)

func (s state) String() string {
	switch s {
	case created:
		return "created"
	case running:
		return "running"
	default:
		return "stopped"
	}
}

// Handle is one server lifecycle: Created -> Running -> Stopped.
type Handle struct {
	opts options

	mu      sync.Mutex
	state   state
	srv     *http.Server
	api     *core.Server
	addr    net.Addr
	err     error
	reg     *app.Registry
	ready   chan struct{}
	settled sync.Once
}

// fatal terminates the process on host integration errors. Tests swap it.
var fatal = func(msg string) { zap.L().Fatal(msg) }

// New is create-handle.
func New(opts ...Option) *Handle {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return &Handle{opts: o, ready: make(chan struct{})}
}

// Ready is closed once the first Start attempt has settled, either
// listening (Addr non-nil) or failed (Err non-nil).
func (h *Handle) Ready() <-chan struct{} { return h.ready }

func (h *Handle) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Registry is the current run's registry, nil before Start.
func (h *Handle) Registry() *app.Registry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reg
}

func (h *Handle) settle(addr net.Addr, err error) {
	h.addr, h.err = addr, err
	h.settled.Do(func() { close(h.ready) })
}

// Start serves the app API on port until Stop. It blocks; callers that
// need it in the background dedicate a goroutine (or thread) to it.
// A nil handle or nil callbacks is logged and ignored.
func Start(h *Handle, port uint16, cbs *native.Callbacks) {
	if h == nil || cbs == nil {
		zap.L().Error("invalid server handle or callbacks pointer",
			zap.Bool("handle", h != nil),
			zap.Bool("callbacks", cbs != nil),
		)
		return
	}
	h.serve(port, *cbs)
}

func (h *Handle) serve(port uint16, cbs native.Callbacks) {
	log := h.opts.log.With(zap.Uint16("port", port))

	h.mu.Lock()
	if h.state != created {
		st := h.state
		if st == stopped {
			h.settle(nil, ErrStopped)
		}
		h.mu.Unlock()
		log.Warn("start ignored", zap.Stringer("state", st))
		return
	}

	var tlsCfg *tls.Config
	if h.opts.tlsCert != "" || h.opts.tlsKey != "" {
		pair, err := tls.LoadX509KeyPair(h.opts.tlsCert, h.opts.tlsKey)
		if err != nil {
			h.settle(nil, err)
			h.mu.Unlock()
			log.Error("tls keypair", zap.Error(err))
			return
		}
		tlsCfg = &tls.Config{
			MinVersion:   tls.VersionTLS13,
			MaxVersion:   tls.VersionTLS13,
			Certificates: []tls.Certificate{pair},
		}
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(h.opts.host, strconv.Itoa(int(port))))
	if err != nil {
		h.settle(nil, err)
		h.mu.Unlock()
		log.Error("listen failed", zap.Error(err))
		return
	}

	reg := app.NewRegistry()
	deps := core.BuildDeps{
		LogMW:       h.opts.accessLog,
		Metrics:     h.opts.metrics,
		MetricsPath: h.opts.metricsPath,
		Router:      httpx.NewChi(),
		Registry:    reg,
		Callbacks:   cbs,
		Mem:         h.opts.mem,
		Lookup:      h.opts.lookup,
		BodyLimit:   h.opts.bodyLimit,
		Log:         h.opts.log,
	}
	appSrv := core.NewServer(deps)
	srv := &http.Server{
		Handler:           appSrv.Routes(deps),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	h.srv, h.api, h.reg, h.state = srv, appSrv, reg, running
	h.settle(ln.Addr(), nil)
	h.mu.Unlock()

	if tlsCfg != nil {
		log.Info("server starting (TLS)", zap.String("addr", ln.Addr().String()))
		err = srv.ServeTLS(ln, "", "")
	} else {
		log.Info("server starting", zap.String("addr", ln.Addr().String()))
		err = srv.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", zap.Error(err))
		return
	}
	log.Info("server exited")
}

// Stop shuts the server down and returns once the shutdown has been
// issued: the listener is closed and open connections are dropped without
// a grace period. It works from any goroutine, on a handle that never
// started, and more than once. A nil handle is fatal.
func Stop(h *Handle) {
	if h == nil {
		fatal("null handle passed to bridge.Stop")
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.shutdown()
	}()
	<-done
}

func (h *Handle) shutdown() {
	h.mu.Lock()
	prev := h.state
	h.state = stopped
	srv, appSrv := h.srv, h.api
	h.mu.Unlock()

	log := h.opts.log
	switch {
	case prev == stopped:
		return
	case srv == nil:
		log.Info("stop before start; handle will not serve")
		return
	}

	log.Info("sending shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("shutdown", zap.Error(err))
	}
	// zero grace: whatever Shutdown left active is closed now
	if err := srv.Close(); err != nil {
		log.Warn("close", zap.Error(err))
	}
	// this run's registry is dropped with it
	appSrv.Retire()
	log.Info("shutdown signal sent")
}
