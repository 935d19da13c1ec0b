package native

// LoadFunc is the host's load_app. It must not retain d or anything d
// references after it returns.
type LoadFunc func(d *Descriptor) int32

// UnloadFunc is the host's unload_app.
type UnloadFunc func(id int32) int32

// Callbacks is the pair handed to the bridge at start. Either member may be
// nil; handlers answer 500 for a missing one.
type Callbacks struct {
	LoadApp   LoadFunc
	UnloadApp UnloadFunc
}

// Result classifies a native return code.
type Result int

const (
	ResultOK       Result = iota // >= 0
	ResultRejected               // -1
	ResultFault                  // <= -2
)

const (
	// CodeRejected is "bad request" on load and "already absent" on unload.
	CodeRejected int32 = -1
	// CodeFault is the conventional internal-failure code; anything below
	// CodeRejected is treated the same.
	CodeFault int32 = -2
)

func Classify(rc int32) Result {
	switch {
	case rc == CodeRejected:
		return ResultRejected
	case rc < CodeRejected:
		return ResultFault
	default:
		return ResultOK
	}
}

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultRejected:
		return "rejected"
	default:
		return "fault"
	}
}
