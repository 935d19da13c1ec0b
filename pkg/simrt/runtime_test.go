package simrt

import (
	"testing"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	rt  *Runtime
	mem *native.HeapAllocator
	m   *app.Marshaller
}

func newFixture(t *testing.T, maxApps int) *fixture {
	t.Helper()
	mem := native.NewHeapAllocator()
	log := zaptest.NewLogger(t)
	return &fixture{
		rt:  New(mem, maxApps, log),
		mem: mem,
		m:   &app.Marshaller{Mem: mem, Lookup: func(string) (string, bool) { return "", false }, Log: log},
	}
}

func (f *fixture) load(t *testing.T, req app.LoadRequest) int32 {
	t.Helper()
	d, release, err := f.m.Marshal(&req)
	require.NoError(t, err)
	defer release()
	return f.rt.Load(d)
}

func TestLoadCopiesDescriptor(t *testing.T) {
	f := newFixture(t, 4)
	id := f.load(t, app.LoadRequest{
		App:        []byte{1, 2, 3},
		AppName:    "sensor",
		AppPath:    "/apps/sensor.so",
		DeadlineUs: 500,
		PeriodUs:   1000,
		IoqSize:    8,
		AppParams:  map[string]string{"b": "2", "a": "1"},
		AppModules: []string{"m1"},
	})
	require.Equal(t, int32(0), id)
	assert.Zero(t, f.mem.Live(), "descriptor strings must be released after the call")

	apps := f.rt.Apps()
	require.Len(t, apps, 1)
	a := apps[0]
	assert.Equal(t, "sensor", a.Name)
	assert.Equal(t, "/apps/sensor.so", a.Path)
	assert.Equal(t, 3, a.Size)
	assert.True(t, a.Sched.Deadline)
	assert.Equal(t, []native.Pair{{Key: "a", Val: "1"}, {Key: "b", Val: "2"}}, a.Params)
	assert.Equal(t, []string{"m1"}, a.Modules)
}

func TestLoadDefaultsName(t *testing.T) {
	f := newFixture(t, 2)
	require.GreaterOrEqual(t, f.load(t, app.LoadRequest{App: []byte{1}}), int32(0))
	assert.Equal(t, "jrtc_app", f.rt.Apps()[0].Name)
}

func TestLoadRejects(t *testing.T) {
	f := newFixture(t, 2)

	assert.Equal(t, native.CodeRejected, f.load(t, app.LoadRequest{AppName: "empty"}))

	require.Equal(t, int32(0), f.load(t, app.LoadRequest{App: []byte{1}, AppPath: "/a"}))
	assert.Equal(t, native.CodeRejected, f.load(t, app.LoadRequest{App: []byte{1}, AppPath: "/a"}), "duplicate path")

	require.Equal(t, int32(1), f.load(t, app.LoadRequest{App: []byte{1}}))
	assert.Equal(t, native.CodeRejected, f.load(t, app.LoadRequest{App: []byte{1}}), "table full")
}

func TestReserveRoundRobin(t *testing.T) {
	f := newFixture(t, 3)
	req := app.LoadRequest{App: []byte{1}}

	assert.Equal(t, int32(0), f.load(t, req))
	assert.Equal(t, int32(1), f.load(t, req))
	assert.Equal(t, int32(0), f.rt.Unload(0))
	// next scan starts after slot 1
	assert.Equal(t, int32(2), f.load(t, req))
	assert.Equal(t, int32(0), f.load(t, req))
}

func TestUnload(t *testing.T) {
	f := newFixture(t, 2)
	id := f.load(t, app.LoadRequest{App: []byte{1}, AppPath: "/p"})
	require.Equal(t, int32(0), id)

	assert.Equal(t, int32(0), f.rt.Unload(id))
	assert.Equal(t, native.CodeRejected, f.rt.Unload(id))
	assert.Equal(t, native.CodeRejected, f.rt.Unload(-1))
	assert.Equal(t, native.CodeRejected, f.rt.Unload(99))

	// path is free again
	assert.GreaterOrEqual(t, f.load(t, app.LoadRequest{App: []byte{1}, AppPath: "/p"}), int32(0))
}

func TestUnloadAll(t *testing.T) {
	f := newFixture(t, 8)
	for i := 0; i < 5; i++ {
		require.GreaterOrEqual(t, f.load(t, app.LoadRequest{App: []byte{1}}), int32(0))
	}
	assert.Equal(t, 5, f.rt.UnloadAll())
	assert.Empty(t, f.rt.Apps())
	assert.Equal(t, 0, f.rt.UnloadAll())
}

func TestCallbacksRoundTrip(t *testing.T) {
	f := newFixture(t, 2)
	cbs := f.rt.Callbacks()
	d, release, err := f.m.Marshal(&app.LoadRequest{App: []byte{9}, AppName: "cb"})
	require.NoError(t, err)
	id := cbs.LoadApp(d)
	release()

	assert.Equal(t, native.ResultOK, native.Classify(id))
	assert.Equal(t, native.ResultOK, native.Classify(cbs.UnloadApp(id)))
	assert.Equal(t, native.ResultRejected, native.Classify(cbs.UnloadApp(id)))
}
