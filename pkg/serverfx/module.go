package serverfx

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/joeydtaylor/steeze-jrtc/pkg/bridge"
	"github.com/joeydtaylor/steeze-jrtc/pkg/core"
	"github.com/joeydtaylor/steeze-jrtc/pkg/manifest"
	"github.com/joeydtaylor/steeze-jrtc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-jrtc/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	"github.com/joeydtaylor/steeze-jrtc/pkg/simrt"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// ---------- Options ----------

type Options struct {
	Service         string // for logs only
	ManifestEnv     string // e.g. JRTC_MANIFEST
	DefaultManifest string // used when ManifestEnv is unset; may be absent
	ManifestPath    string // explicit path (CLI flag), wins over both
	TLSCertEnv      string // SSL_SERVER_CERTIFICATE
	TLSKeyEnv       string // SSL_SERVER_KEY
}

func DefaultOptions() Options {
	return Options{
		Service:         "jrtc-restd",
		ManifestEnv:     "JRTC_MANIFEST",
		DefaultManifest: "manifest.toml",
		TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:       "SSL_SERVER_KEY",
	}
}

// ---------- Config ----------

func provideConfig(o Options) (manifest.Config, error) {
	path := o.ManifestPath
	if path == "" {
		path = os.Getenv(o.ManifestEnv)
	}
	if path == "" {
		path = o.DefaultManifest
		// a missing default manifest means "run on defaults"
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return core.LoadConfig(path)
}

// ---------- Runtime + bridge ----------

func provideRuntime(mem native.Allocator, cfg manifest.Config, zl *zap.Logger) *simrt.Runtime {
	return simrt.New(mem, cfg.Runtime.MaxApps, zl.Named("runtime"))
}

type handleDeps struct {
	fx.In

	Opts    Options
	Cfg     manifest.Config
	Mem     native.Allocator
	LogMW   *logger.Middleware
	Metrics http.Handler `name:"metrics"`
	Log     *zap.Logger
}

func provideHandle(d handleDeps) *bridge.Handle {
	opts := []bridge.Option{
		bridge.WithLogger(d.Log.Named("rest")),
		bridge.WithAllocator(d.Mem),
		bridge.WithAccessLog(d.LogMW),
		bridge.WithBodyLimit(d.Cfg.Server.BodyLimitBytes),
	}
	if !d.Cfg.Metrics.Disabled {
		opts = append(opts, bridge.WithMetrics(d.Cfg.Metrics.Path, d.Metrics))
	}
	// HTTPS only when both files are present
	cert, key := os.Getenv(d.Opts.TLSCertEnv), os.Getenv(d.Opts.TLSKeyEnv)
	if fileExists(cert) && fileExists(key) {
		opts = append(opts, bridge.WithTLS(cert, key))
	}
	return bridge.New(opts...)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// ---------- Lifecycle ----------

type hookDeps struct {
	fx.In

	Opts    Options
	Cfg     manifest.Config
	Handle  *bridge.Handle
	Runtime *simrt.Runtime
	Log     *zap.Logger
}

func registerHooks(lc fx.Lifecycle, d hookDeps) {
	// bridge.Start/Stop log through the global logger for nil-argument errors
	zap.ReplaceGlobals(d.Log)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			cbs := d.Runtime.Callbacks()
			go bridge.Start(d.Handle, d.Cfg.Server.Port, &cbs)

			select {
			case <-d.Handle.Ready():
			case <-ctx.Done():
				return ctx.Err()
			}
			if err := d.Handle.Err(); err != nil {
				return err
			}
			d.Log.Info("server started",
				zap.String("service", d.Opts.Service),
				zap.String("addr", d.Handle.Addr().String()),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			d.Log.Info("server stopping", zap.String("service", d.Opts.Service))
			bridge.Stop(d.Handle)
			n := d.Runtime.UnloadAll()
			d.Log.Info("apps unloaded", zap.Int("count", n))
			_ = d.Log.Sync()
			return nil
		},
	})
}

// ---------- Public Fx module ----------

func Module(opts Options) fx.Option {
	return fx.Options(
		fx.Supply(opts),
		fx.Provide(provideConfig),

		logger.Module,
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),

		fx.Provide(fx.Annotate(metrics.ProvideMetrics, fx.ResultTags(`name:"metrics"`))),

		fx.Provide(fx.Annotate(native.NewHeapAllocator, fx.As(new(native.Allocator)))),
		fx.Provide(provideRuntime),
		fx.Provide(provideHandle),

		fx.Invoke(registerHooks),
	)
}
