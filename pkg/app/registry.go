package app

import "sync"

// Registry is the ordered set of loaded apps for one running service.
// Every operation runs under one mutex; ids come from the native runtime
// and are unique, so Insert does not check.
type Registry struct {
	mu   sync.Mutex
	apps []State
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Insert(s State) {
	r.mu.Lock()
	r.apps = append(r.apps, s)
	r.mu.Unlock()
}

// Remove drops the first entry with id and reports whether there was one.
func (r *Registry) Remove(id int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.apps {
		if r.apps[i].ID == id {
			r.apps = append(r.apps[:i], r.apps[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) Find(id int32) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.apps {
		if s.ID == id {
			return s, true
		}
	}
	return State{}, false
}

// List returns a copy in insertion order.
func (r *Registry) List() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.apps))
	copy(out, r.apps)
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}
