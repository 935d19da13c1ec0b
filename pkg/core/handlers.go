// core/handlers.go
package core

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/codec"
	hmetrics "github.com/joeydtaylor/steeze-jrtc/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	httpx "github.com/joeydtaylor/steeze-jrtc/pkg/transport/httpx"
	"go.uber.org/zap"
)

// Server holds what the four app handlers share for one running service.
type Server struct {
	reg       *app.Registry
	cbs       native.Callbacks
	marshal   *app.Marshaller
	bodyLimit int64
	log       *zap.Logger
	now       func() time.Time

	// callMu admits one native call at a time; the runtime behind the
	// callbacks is not reentrant. The registry lock is never taken under it.
	callMu sync.Mutex

	// bookMu pairs registry mutations with the loaded-apps gauge so Retire
	// can take this server's entries out of the gauge exactly once.
	bookMu  sync.Mutex
	retired bool
}

func NewServer(d BuildDeps) *Server {
	l := d.Log
	if l == nil {
		l = zap.NewNop()
	}
	reg := d.Registry
	if reg == nil {
		reg = app.NewRegistry()
	}
	mem := d.Mem
	if mem == nil {
		mem = native.NewHeapAllocator()
	}
	return &Server{
		reg:       reg,
		cbs:       d.Callbacks,
		marshal:   &app.Marshaller{Mem: mem, Lookup: d.Lookup, Log: l},
		bodyLimit: d.BodyLimit,
		log:       l,
		now:       time.Now,
	}
}

// GET /app
func (s *Server) listApps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.reg.List(), http.StatusOK)
}

// GET /app/{id}
func (s *Server) getApp(w http.ResponseWriter, r *http.Request) {
	id, ok := appID(w, r)
	if !ok {
		return
	}
	st, found := s.reg.Find(id)
	if !found {
		writeDetails(w, statusOf(app.ErrNotFound), fmt.Sprintf("id = %d", id))
		return
	}
	writeJSON(w, st, http.StatusOK)
}

// POST /app
func (s *Server) loadApp(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if s.bodyLimit > 0 {
		body = http.MaxBytesReader(w, r.Body, s.bodyLimit)
	}
	var req app.LoadRequest
	if err := codec.JSON.Decode(body, &req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeDetails(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeDetails(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	d, release, err := s.marshal.Marshal(&req)
	if err != nil {
		s.log.Info("load request rejected", zap.String("app", req.AppName), zap.Error(err))
		writeError(w, err)
		return
	}
	defer release()

	if s.cbs.LoadApp == nil {
		s.log.Error("load_app callback not set")
		writeDetails(w, statusOf(app.ErrCallbackMissing), "load_app callback is not set")
		return
	}

	rc, took := s.callLoad(d)
	res := native.Classify(rc)
	hmetrics.ObserveNativeCall("load", res.String(), took)

	switch res {
	case native.ResultRejected:
		writeDetails(w, statusOf(app.ErrNativeRejected), "Bad request")
	case native.ResultFault:
		s.log.Error("native load failed", zap.String("app", req.AppName), zap.Int32("code", rc))
		writeDetails(w, statusOf(app.ErrNativeFault), "Internal server error")
	default:
		st := app.State{
			ID:        rc,
			Request:   req,
			StartTime: s.now().UTC().Format(time.RFC3339Nano),
		}
		s.book(func() bool { s.reg.Insert(st); return true }, 1)
		s.log.Info("app loaded", zap.Int32("id", rc), zap.String("app", req.AppName))
		writeJSON(w, st, http.StatusOK)
	}
}

// DELETE /app/{id}
func (s *Server) unloadApp(w http.ResponseWriter, r *http.Request) {
	id, ok := appID(w, r)
	if !ok {
		return
	}
	if s.cbs.UnloadApp == nil {
		s.log.Error("unload_app callback not set")
		writeDetails(w, statusOf(app.ErrCallbackMissing), "unload_app callback is not set")
		return
	}

	rc, took := s.callUnload(id)
	res := native.Classify(rc)
	hmetrics.ObserveNativeCall("unload", res.String(), took)

	switch res {
	case native.ResultRejected:
		// already gone on the native side
		w.WriteHeader(http.StatusNoContent)
	case native.ResultFault:
		s.log.Error("native unload failed", zap.Int32("id", id), zap.Int32("code", rc))
		writeDetails(w, statusOf(app.ErrNativeFault), "Internal server error")
	default:
		if !s.book(func() bool { return s.reg.Remove(id) }, -1) {
			s.log.Warn("native unload succeeded for an id missing from the registry", zap.Int32("id", id))
			writeDetails(w, statusOf(app.ErrNotFound), "App not found")
			return
		}
		s.log.Info("app unloaded", zap.Int32("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) callLoad(d *native.Descriptor) (int32, time.Duration) {
	s.callMu.Lock()
	defer s.callMu.Unlock()
	start := time.Now()
	rc := s.cbs.LoadApp(d)
	return rc, time.Since(start)
}

func (s *Server) callUnload(id int32) (int32, time.Duration) {
	s.callMu.Lock()
	defer s.callMu.Unlock()
	start := time.Now()
	rc := s.cbs.UnloadApp(id)
	return rc, time.Since(start)
}

// book runs a registry mutation and, when it reports a change, moves the
// gauge by delta unless the server is retired.
func (s *Server) book(mutate func() bool, delta int) bool {
	s.bookMu.Lock()
	defer s.bookMu.Unlock()
	changed := mutate()
	if changed && !s.retired {
		hmetrics.AddLoadedApps(delta)
	}
	return changed
}

// Retire removes this server's registry entries from the loaded-apps
// gauge. Later mutations no longer touch the gauge. It does not wait for
// native calls in flight.
func (s *Server) Retire() {
	s.bookMu.Lock()
	defer s.bookMu.Unlock()
	if s.retired {
		return
	}
	s.retired = true
	hmetrics.AddLoadedApps(-s.reg.Len())
}

func appID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	raw := httpx.Param(r, "id")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		writeDetails(w, http.StatusBadRequest, fmt.Sprintf("invalid app id %q", raw))
		return 0, false
	}
	return int32(id), true
}
