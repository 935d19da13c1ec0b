package native

import (
	"errors"
	"strings"
)

// ErrEmbeddedNUL is returned when a string cannot be null-terminated.
var ErrEmbeddedNUL = errors.New("string contains an embedded NUL byte")

// Arena owns every native string allocated for one native call.
// Release frees them all exactly once; it is safe to call more than once.
// An Arena is used by a single goroutine.
type Arena struct {
	mem      Allocator
	owned    []CStr
	released bool
}

func NewArena(mem Allocator) *Arena { return &Arena{mem: mem} }

// CString allocates s and records ownership.
func (a *Arena) CString(s string) (CStr, error) {
	if a.released {
		return 0, errors.New("native: arena already released")
	}
	if strings.IndexByte(s, 0) >= 0 {
		return 0, ErrEmbeddedNUL
	}
	c := a.mem.CString(s)
	a.owned = append(a.owned, c)
	return c, nil
}

// Len is the number of strings currently owned.
func (a *Arena) Len() int { return len(a.owned) }

func (a *Arena) Release() {
	if a.released {
		return
	}
	a.released = true
	for _, c := range a.owned {
		a.mem.Free(c)
	}
	a.owned = nil
}
