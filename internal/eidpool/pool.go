package eidpool

import (
	"errors"
	"sort"
	"sync"
)

// ErrExhausted is returned when no candidate EID remains unallocated.
var ErrExhausted = errors.New("eidpool: all candidate EIDs are allocated")

// Pool tracks which endpoint IDs are currently assigned to live serial
// links. The zero value is not usable; create pools with New.
//
// Allocation is deterministic: the lowest available candidate wins.
type Pool struct {
	mu        sync.Mutex
	allocated map[int]bool
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{
		allocated: make(map[int]bool),
	}
}

// Allocate picks the lowest EID from candidates that is not already
// allocated, marks it allocated and returns it. Returns ErrExhausted when
// every candidate is taken.
func (p *Pool) Allocate(candidates []int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	best := -1
	for _, eid := range candidates {
		if p.allocated[eid] {
			continue
		}
		if best == -1 || eid < best {
			best = eid
		}
	}
	if best == -1 {
		return 0, ErrExhausted
	}

	p.allocated[best] = true
	return best, nil
}

// Release returns eid to the pool. Releasing an EID that is not allocated
// is a no-op, so callers can release unconditionally on teardown paths.
func (p *Pool) Release(eid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.allocated, eid)
}

// Allocated returns a sorted snapshot of the currently allocated EIDs.
func (p *Pool) Allocated() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	eids := make([]int, 0, len(p.allocated))
	for eid := range p.allocated {
		eids = append(eids, eid)
	}
	sort.Ints(eids)
	return eids
}
