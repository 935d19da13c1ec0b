package native

import (
	"fmt"
	"sync"
)

// Allocator hands out native strings. Implementations: HeapAllocator (Go
// memory, used in-process and in tests) and the C-heap allocator in
// cmd/libjrtcrest.
type Allocator interface {
	// CString copies s into a new null-terminated buffer. s must not
	// contain NUL; callers go through Arena, which checks.
	CString(s string) CStr
	// GoString copies the string at c back into Go memory.
	GoString(c CStr) string
	// Free releases c. Every CString result is freed exactly once.
	Free(c CStr)
}

// HeapAllocator keeps native strings in Go memory and tracks every live
// buffer, so misuse (double free, leak) is observable.
type HeapAllocator struct {
	mu     sync.Mutex
	next   CStr
	live   map[CStr][]byte
	allocs int
	frees  int
}

func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{live: make(map[CStr][]byte)}
}

func (h *HeapAllocator) CString(s string) CStr {
	buf := make([]byte, len(s)+1)
	copy(buf, s)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	c := h.next
	h.live[c] = buf
	h.allocs++
	return c
}

func (h *HeapAllocator) GoString(c CStr) string {
	h.mu.Lock()
	buf, ok := h.live[c]
	h.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("native: read of freed or unknown string %#x", uintptr(c)))
	}
	return string(buf[:len(buf)-1])
}

func (h *HeapAllocator) Free(c CStr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.live[c]; !ok {
		panic(fmt.Sprintf("native: double free of %#x", uintptr(c)))
	}
	delete(h.live, c)
	h.frees++
}

// Live is the number of strings allocated and not yet freed.
func (h *HeapAllocator) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// Stats returns lifetime allocation and free counts.
func (h *HeapAllocator) Stats() (allocs, frees int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocs, h.frees
}
