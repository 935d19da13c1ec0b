//go:build cgo

// libjrtcrest exports the REST server to C hosts. Build with
//
//	go build -buildmode=c-shared -o libjrtcrest.so ./cmd/libjrtcrest
//
// and include jrtc_rest_server.h.
package main

/*
#include <stdlib.h>
#define JRTC_REST_TYPES_ONLY
#include "jrtc_rest_server.h"

static inline int call_load(int (*fn)(load_app_request_t), load_app_request_t* req) { return fn(*req); }
static inline int call_unload(int (*fn)(int), int id) { return fn(id); }
*/
import "C"

import (
	"os"
	"runtime"
	"runtime/cgo"
	"unsafe"

	"github.com/joeydtaylor/steeze-jrtc/pkg/bridge"
	"github.com/joeydtaylor/steeze-jrtc/pkg/core"
	"github.com/joeydtaylor/steeze-jrtc/pkg/manifest"
	"github.com/joeydtaylor/steeze-jrtc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-jrtc/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	"go.uber.org/zap"
)

// ManifestEnv optionally points the library at a manifest for logging,
// body limit and metrics settings. The port always comes from the host.
const ManifestEnv = "JRTC_MANIFEST"

// cAllocator keeps descriptor strings on the C heap.
type cAllocator struct{}

func cstr(c native.CStr) *C.char { return (*C.char)(unsafe.Pointer(uintptr(c))) }

func (cAllocator) CString(s string) native.CStr {
	return native.CStr(uintptr(unsafe.Pointer(C.CString(s))))
}
func (cAllocator) GoString(c native.CStr) string { return C.GoString(cstr(c)) }
func (cAllocator) Free(c native.CStr)            { C.free(unsafe.Pointer(cstr(c))) }

func loadConfig() (manifest.Config, error) {
	cfg, err := core.LoadConfig(os.Getenv(ManifestEnv))
	if err != nil {
		return manifest.Default(), err
	}
	return cfg, nil
}

//export jrtc_create_rest_server
func jrtc_create_rest_server() unsafe.Pointer {
	cfg, cfgErr := loadConfig()
	log := logger.ProvideLogger(cfg)
	zap.ReplaceGlobals(log)
	if cfgErr != nil {
		log.Warn("manifest not loaded; using defaults", zap.Error(cfgErr))
	}

	opts := []bridge.Option{
		bridge.WithLogger(log),
		bridge.WithAllocator(cAllocator{}),
		bridge.WithAccessLog(logger.ProvideLoggerMiddleware(cfg)),
		bridge.WithBodyLimit(cfg.Server.BodyLimitBytes),
	}
	if !cfg.Metrics.Disabled {
		opts = append(opts, bridge.WithMetrics(cfg.Metrics.Path, metrics.NewPromHttpHandler()))
	}

	// the handle lives in a C cell so the host only ever sees C memory
	cell := (*C.uintptr_t)(C.malloc(C.size_t(unsafe.Sizeof(C.uintptr_t(0)))))
	*cell = C.uintptr_t(cgo.NewHandle(bridge.New(opts...)))
	return unsafe.Pointer(cell)
}

func handleFrom(ptr unsafe.Pointer) *bridge.Handle {
	if ptr == nil {
		return nil
	}
	h, _ := cgo.Handle(*(*C.uintptr_t)(ptr)).Value().(*bridge.Handle)
	return h
}

//export jrtc_start_rest_server
func jrtc_start_rest_server(ptr unsafe.Pointer, port C.uint, callbacks *C.jrtc_rest_callbacks) {
	h := handleFrom(ptr)
	if h == nil || callbacks == nil {
		bridge.Start(h, 0, nil)
		return
	}
	p, err := toPort(uint64(port))
	if err != nil {
		zap.L().Error("invalid port", zap.Error(err))
		return
	}
	cbs := adapt(*callbacks)
	bridge.Start(h, p, &cbs)
}

//export jrtc_stop_rest_server
func jrtc_stop_rest_server(ptr unsafe.Pointer) {
	bridge.Stop(handleFrom(ptr))
}

// adapt wraps the host's function pointers; the struct is copied so the
// host may reuse its callbacks memory after start returns.
func adapt(cb C.jrtc_rest_callbacks) native.Callbacks {
	var out native.Callbacks
	if load := cb.load_app; load != nil {
		out.LoadApp = func(d *native.Descriptor) int32 {
			req := (*C.load_app_request_t)(C.calloc(1, C.size_t(unsafe.Sizeof(C.load_app_request_t{}))))
			defer C.free(unsafe.Pointer(req))

			var pin runtime.Pinner
			defer pin.Unpin()
			fill(req, d, &pin)
			return int32(C.call_load(load, req))
		}
	}
	if unload := cb.unload_app; unload != nil {
		out.UnloadApp = func(id int32) int32 {
			return int32(C.call_unload(unload, C.int(id)))
		}
	}
	return out
}

// fill copies d into req. The payload is passed without copying, so it is
// pinned for the duration of the call.
func fill(req *C.load_app_request_t, d *native.Descriptor, pin *runtime.Pinner) {
	if len(d.App) > 0 {
		pin.Pin(&d.App[0])
		req.app = (*C.char)(unsafe.Pointer(&d.App[0]))
	}
	req.app_size = C.size_t(len(d.App))
	req.app_name = cstr(d.AppName)
	req.runtime_us = C.uint32_t(d.RuntimeUs)
	req.deadline_us = C.uint32_t(d.DeadlineUs)
	req.period_us = C.uint32_t(d.PeriodUs)
	req.ioq_size = C.uint32_t(d.IoqSize)
	req.app_path = cstr(d.AppPath)
	req.app_type = cstr(d.AppType)

	for i, kv := range d.Params {
		if kv.Key == 0 {
			break
		}
		req.params[i].key, req.params[i].val = cstr(kv.Key), cstr(kv.Val)
	}
	for i, kv := range d.DeviceMapping {
		if kv.Key == 0 {
			break
		}
		req.device_mapping[i].key, req.device_mapping[i].val = cstr(kv.Key), cstr(kv.Val)
	}
	for i, m := range d.AppModules {
		if m == 0 {
			break
		}
		req.app_modules[i] = cstr(m)
	}
}

func main() {}
