// Package simrt is an in-process stand-in for the native workload runtime.
// It accepts load descriptors through the same callback pair the C runtime
// exposes, so the daemon and tests can drive the REST bridge end to end.
package simrt

import (
	"context"
	"sync"

	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	"go.uber.org/zap"
)

// DefaultMaxApps mirrors the controller's slot table size.
const DefaultMaxApps = 64

const defaultAppName = "jrtc_app"

// Sched is the scheduling triple an app was loaded with.
type Sched struct {
	RuntimeUs  uint32
	DeadlineUs uint32
	PeriodUs   uint32
	Deadline   bool // deadline policy requested (DeadlineUs > 0)
}

// App is one loaded workload. Strings are copied out of the descriptor,
// so an App stays valid after the request's strings are released.
type App struct {
	ID            int32
	Name          string
	Path          string
	Type          string
	Size          int
	IoqSize       uint32
	Sched         Sched
	Params        []native.Pair
	DeviceMapping []native.Pair
	Modules       []string

	cancel context.CancelFunc
	done   chan struct{}
}

// Runtime owns a fixed table of app slots.
type Runtime struct {
	mem native.Allocator
	log *zap.Logger

	mu    sync.Mutex
	slots []*App
	next  int
}

// New returns a runtime with maxApps slots (DefaultMaxApps when <= 0).
// mem must be the allocator the descriptors' strings come from.
func New(mem native.Allocator, maxApps int, log *zap.Logger) *Runtime {
	if maxApps <= 0 {
		maxApps = DefaultMaxApps
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{mem: mem, log: log, slots: make([]*App, maxApps)}
}

// Callbacks exposes Load/Unload as the pair the REST bridge calls.
func (rt *Runtime) Callbacks() native.Callbacks {
	return native.Callbacks{LoadApp: rt.Load, UnloadApp: rt.Unload}
}

// Load returns the reserved id, or native.CodeRejected when the payload is
// empty, the path is already loaded, or every slot is taken.
func (rt *Runtime) Load(d *native.Descriptor) int32 {
	v := d.Read(rt.mem)
	if len(d.App) == 0 {
		rt.log.Error("invalid app data or size", zap.String("app", v.AppName))
		return native.CodeRejected
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if v.AppPath != "" && rt.pathLoadedLocked(v.AppPath) {
		rt.log.Error("app already loaded", zap.String("path", v.AppPath))
		return native.CodeRejected
	}
	slot := rt.reserveLocked()
	if slot < 0 {
		rt.log.Error("no free app slot", zap.String("app", v.AppName), zap.Int("max_apps", len(rt.slots)))
		return native.CodeRejected
	}

	a := &App{
		ID:      int32(slot),
		Name:    v.AppName,
		Path:    v.AppPath,
		Type:    v.AppType,
		Size:    v.AppSize,
		IoqSize: v.IoqSize,
		Sched: Sched{
			RuntimeUs:  v.RuntimeUs,
			DeadlineUs: v.DeadlineUs,
			PeriodUs:   v.PeriodUs,
			Deadline:   v.DeadlineUs > 0,
		},
		Params:        v.Params,
		DeviceMapping: v.DeviceMapping,
		Modules:       v.AppModules,
		done:          make(chan struct{}),
	}
	if a.Name == "" {
		a.Name = defaultAppName
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	rt.slots[slot] = a
	go rt.run(ctx, a)

	rt.log.Info("app loaded", zap.Int32("id", a.ID), zap.String("app", a.Name), zap.Int("size", a.Size))
	return a.ID
}

// run stands in for the app's worker thread; it lives until unload.
func (rt *Runtime) run(ctx context.Context, a *App) {
	defer close(a.done)
	<-ctx.Done()
}

// Unload stops the app and frees its slot: 0 on success, native.CodeRejected
// for an id that is out of range or not loaded.
func (rt *Runtime) Unload(id int32) int32 {
	rt.mu.Lock()
	if id < 0 || int(id) >= len(rt.slots) || rt.slots[id] == nil {
		rt.mu.Unlock()
		return native.CodeRejected
	}
	a := rt.slots[id]
	rt.slots[id] = nil
	rt.mu.Unlock()

	rt.log.Info("shutting down app", zap.Int32("id", id), zap.String("app", a.Name))
	a.cancel()
	<-a.done
	rt.log.Info("app shut down", zap.Int32("id", id), zap.String("app", a.Name))
	return 0
}

// UnloadAll unloads every loaded app and reports how many it unloaded.
func (rt *Runtime) UnloadAll() int {
	n := 0
	for id, c := 0, rt.capacity(); id < c; id++ {
		if rt.Unload(int32(id)) == 0 {
			n++
		}
	}
	return n
}

// Apps is a snapshot of loaded apps ordered by id.
func (rt *Runtime) Apps() []App {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]App, 0, len(rt.slots))
	for _, a := range rt.slots {
		if a != nil {
			cp := *a
			cp.cancel, cp.done = nil, nil
			out = append(out, cp)
		}
	}
	return out
}

func (rt *Runtime) capacity() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.slots)
}

func (rt *Runtime) pathLoadedLocked(path string) bool {
	for _, a := range rt.slots {
		if a != nil && a.Path == path {
			return true
		}
	}
	return false
}

// reserveLocked scans round-robin from the slot after the last reservation.
func (rt *Runtime) reserveLocked() int {
	n := len(rt.slots)
	for i := 0; i < n; i++ {
		idx := (rt.next + i) % n
		if rt.slots[idx] == nil {
			rt.next = (idx + 1) % n
			return idx
		}
	}
	return -1
}
