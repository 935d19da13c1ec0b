// pkg/native/descriptor.go
package native

// Fixed capacities of the arrays inside load_app_request_t.
const (
	MaxAppParams     = 255
	MaxDeviceMapping = 255
	MaxAppModules    = 255
)

// CStr is an opaque reference to a null-terminated native string.
// The zero value is NULL.
type CStr uintptr

// KeyValue mirrors app_param_key_value_pair_t.
type KeyValue struct {
	Key CStr
	Val CStr
}

// Descriptor is the Go mirror of load_app_request_t, built for exactly one
// native load call. App aliases the caller's payload; it is never copied.
type Descriptor struct {
	App []byte

	AppName    CStr
	RuntimeUs  uint32
	DeadlineUs uint32
	PeriodUs   uint32
	IoqSize    uint32

	AppPath CStr
	AppType CStr

	Params        [MaxAppParams]KeyValue
	DeviceMapping [MaxDeviceMapping]KeyValue
	AppModules    [MaxAppModules]CStr
}

// AppSize is the payload length handed across the boundary.
func (d *Descriptor) AppSize() int { return len(d.App) }

// Pair is a decoded KeyValue.
type Pair struct {
	Key string
	Val string
}

// View is a Go-side copy of everything a descriptor references.
// Consumers that outlive the native call (simulated runtimes, tests) read
// through it instead of holding CStr values.
type View struct {
	AppSize       int
	AppName       string
	RuntimeUs     uint32
	DeadlineUs    uint32
	PeriodUs      uint32
	IoqSize       uint32
	AppPath       string
	AppType       string
	Params        []Pair
	DeviceMapping []Pair
	AppModules    []string
}

// Read decodes d using mem. Array slots stop at the first NULL key
// (or NULL module), which is how the native side walks them.
func (d *Descriptor) Read(mem Allocator) View {
	v := View{
		AppSize:    len(d.App),
		AppName:    goString(mem, d.AppName),
		RuntimeUs:  d.RuntimeUs,
		DeadlineUs: d.DeadlineUs,
		PeriodUs:   d.PeriodUs,
		IoqSize:    d.IoqSize,
		AppPath:    goString(mem, d.AppPath),
		AppType:    goString(mem, d.AppType),
	}
	v.Params = readPairs(mem, d.Params[:])
	v.DeviceMapping = readPairs(mem, d.DeviceMapping[:])
	for _, m := range d.AppModules {
		if m == 0 {
			break
		}
		v.AppModules = append(v.AppModules, mem.GoString(m))
	}
	return v
}

func readPairs(mem Allocator, kvs []KeyValue) []Pair {
	var out []Pair
	for _, kv := range kvs {
		if kv.Key == 0 {
			break
		}
		out = append(out, Pair{Key: mem.GoString(kv.Key), Val: goString(mem, kv.Val)})
	}
	return out
}

func goString(mem Allocator, c CStr) string {
	if c == 0 {
		return ""
	}
	return mem.GoString(c)
}
