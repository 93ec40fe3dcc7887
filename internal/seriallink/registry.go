package seriallink

import "sync"

// Registry is the set of currently active links. Each bus controller owns
// one registry and injects it into every Open call, replacing what would
// otherwise be process-wide shared state.
type Registry struct {
	mu    sync.Mutex
	links []*Link
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) add(l *Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, l)
}

func (r *Registry) remove(l *Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.links {
		if existing == l {
			r.links = append(r.links[:i], r.links[i+1:]...)
			return
		}
	}
}

// ByEID returns the active link holding eid, or nil.
func (r *Registry) ByEID(eid int) *Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.EID() == eid {
			return l
		}
	}
	return nil
}

// All returns a snapshot of the active links.
func (r *Registry) All() []*Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Link, len(r.links))
	copy(out, r.links)
	return out
}

// Len returns the number of active links.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}
