// pkg/app/marshal.go
package app

import (
	"sort"
	"strconv"

	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	"go.uber.org/zap"
)

// Marshaller turns a LoadRequest into a native.Descriptor whose strings
// live in Mem until the returned release func runs.
type Marshaller struct {
	Mem    native.Allocator
	Lookup LookupFunc // nil => os.LookupEnv
	Log    *zap.Logger
}

// Marshal builds the descriptor for one native call. On error nothing is
// left allocated and no descriptor is returned. On success the caller must
// run release once the native call has returned.
func (m *Marshaller) Marshal(req *LoadRequest) (d *native.Descriptor, release func(), err error) {
	arena := native.NewArena(m.Mem)
	defer func() {
		if err != nil {
			arena.Release()
		}
	}()

	d = &native.Descriptor{
		App:        req.App,
		RuntimeUs:  req.RuntimeUs,
		DeadlineUs: req.DeadlineUs,
		PeriodUs:   req.PeriodUs,
		IoqSize:    req.IoqSize,
	}

	if d.AppName, err = cstr(arena, "app_name", req.AppName); err != nil {
		return nil, nil, err
	}
	if req.AppPath != "" {
		if d.AppPath, err = cstr(arena, "app_path", req.AppPath); err != nil {
			return nil, nil, err
		}
	}
	if req.AppType != "" {
		if d.AppType, err = cstr(arena, "app_type", req.AppType); err != nil {
			return nil, nil, err
		}
	}

	if err = m.fillPairs(arena, "app_params", req.AppParams, d.Params[:]); err != nil {
		return nil, nil, err
	}
	if err = m.fillPairs(arena, "device_mapping", req.DeviceMapping, d.DeviceMapping[:]); err != nil {
		return nil, nil, err
	}

	mods := req.AppModules
	if len(mods) > len(d.AppModules) {
		m.dropped("app_modules", len(mods)-len(d.AppModules))
		mods = mods[:len(d.AppModules)]
	}
	for i, mod := range mods {
		field := "app_modules[" + strconv.Itoa(i) + "]"
		if d.AppModules[i], err = cstr(arena, field, ExpandEnv(mod, m.Lookup)); err != nil {
			return nil, nil, err
		}
	}

	return d, arena.Release, nil
}

// fillPairs lays a mapping into dst in ascending key order; values are
// environment-expanded, keys are not.
func (m *Marshaller) fillPairs(arena *native.Arena, name string, src map[string]string, dst []native.KeyValue) error {
	if len(src) == 0 {
		return nil
	}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > len(dst) {
		m.dropped(name, len(keys)-len(dst))
		keys = keys[:len(dst)]
	}

	for i, k := range keys {
		field := name + "[" + k + "]"
		kc, err := cstr(arena, field, k)
		if err != nil {
			return err
		}
		vc, err := cstr(arena, field, ExpandEnv(src[k], m.Lookup))
		if err != nil {
			return err
		}
		dst[i] = native.KeyValue{Key: kc, Val: vc}
	}
	return nil
}

func (m *Marshaller) dropped(field string, n int) {
	if m.Log != nil {
		m.Log.Warn("truncating collection to native capacity",
			zap.String("field", field),
			zap.Int("dropped", n),
		)
	}
}

func cstr(arena *native.Arena, field, s string) (native.CStr, error) {
	c, err := arena.CString(s)
	if err != nil {
		return 0, &MalformedFieldError{Field: field, Err: err}
	}
	return c, nil
}
