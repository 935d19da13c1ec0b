package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []int32{5, 1, 3} {
		r.Insert(State{ID: id})
	}

	ids := func() []int32 {
		var out []int32
		for _, s := range r.List() {
			out = append(out, s.ID)
		}
		return out
	}
	assert.Equal(t, []int32{5, 1, 3}, ids())

	assert.True(t, r.Remove(1))
	assert.False(t, r.Remove(1))
	assert.Equal(t, []int32{5, 3}, ids())
	assert.Equal(t, 2, r.Len())
}

func TestRegistryFind(t *testing.T) {
	r := NewRegistry()
	r.Insert(State{ID: 7, Request: LoadRequest{AppName: "seven"}, StartTime: "now"})

	s, ok := r.Find(7)
	require.True(t, ok)
	assert.Equal(t, "seven", s.Request.AppName)

	_, ok = r.Find(8)
	assert.False(t, ok)
}

func TestRegistryListIsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Insert(State{ID: 1})
	snap := r.List()
	r.Insert(State{ID: 2})
	snap[0].ID = 99

	assert.Len(t, snap, 1)
	_, ok := r.Find(1)
	assert.True(t, ok)
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			r.Insert(State{ID: id})
			_, _ = r.Find(id)
			_ = r.List()
		}(int32(i))
	}
	wg.Wait()
	require.Equal(t, n, r.Len())

	for i := 0; i < n; i += 2 {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			assert.True(t, r.Remove(id))
		}(int32(i))
	}
	wg.Wait()
	assert.Equal(t, n/2, r.Len())
}
