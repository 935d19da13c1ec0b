package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaReleaseFreesEachStringOnce(t *testing.T) {
	mem := NewHeapAllocator()
	a := NewArena(mem)

	for _, s := range []string{"a", "", "bcd"} {
		_, err := a.CString(s)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 3, mem.Live())

	a.Release()
	a.Release()

	allocs, frees := mem.Stats()
	assert.Equal(t, 3, allocs)
	assert.Equal(t, 3, frees)
	assert.Zero(t, mem.Live())
}

func TestArenaRejectsEmbeddedNUL(t *testing.T) {
	mem := NewHeapAllocator()
	a := NewArena(mem)

	_, err := a.CString("ab\x00c")
	require.ErrorIs(t, err, ErrEmbeddedNUL)
	assert.Zero(t, a.Len())
	assert.Zero(t, mem.Live())
}

func TestArenaRefusesAllocationAfterRelease(t *testing.T) {
	a := NewArena(NewHeapAllocator())
	a.Release()
	_, err := a.CString("late")
	assert.Error(t, err)
}

func TestHeapAllocatorRoundTrip(t *testing.T) {
	mem := NewHeapAllocator()
	c := mem.CString("hello")
	assert.NotZero(t, c)
	assert.Equal(t, "hello", mem.GoString(c))
	mem.Free(c)
	assert.Panics(t, func() { mem.Free(c) })
	assert.Panics(t, func() { _ = mem.GoString(c) })
}

func TestDescriptorReadStopsAtNull(t *testing.T) {
	mem := NewHeapAllocator()
	a := NewArena(mem)
	defer a.Release()

	cs := func(s string) CStr {
		c, err := a.CString(s)
		require.NoError(t, err)
		return c
	}

	d := &Descriptor{App: []byte{1, 2, 3}, AppName: cs("demo"), PeriodUs: 10}
	d.Params[0] = KeyValue{Key: cs("k1"), Val: cs("v1")}
	d.Params[1] = KeyValue{Key: cs("k2")}
	d.Params[3] = KeyValue{Key: cs("unreachable"), Val: cs("x")}
	d.AppModules[0] = cs("mod")

	v := d.Read(mem)
	assert.Equal(t, 3, v.AppSize)
	assert.Equal(t, "demo", v.AppName)
	assert.Equal(t, "", v.AppPath)
	assert.Equal(t, uint32(10), v.PeriodUs)
	assert.Equal(t, []Pair{{"k1", "v1"}, {"k2", ""}}, v.Params)
	assert.Empty(t, v.DeviceMapping)
	assert.Equal(t, []string{"mod"}, v.AppModules)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ResultOK, Classify(0))
	assert.Equal(t, ResultOK, Classify(17))
	assert.Equal(t, ResultRejected, Classify(-1))
	assert.Equal(t, ResultFault, Classify(-2))
	assert.Equal(t, ResultFault, Classify(-1<<31))
	assert.Equal(t, "fault", ResultFault.String())
}
