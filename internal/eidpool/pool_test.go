package eidpool

import (
	"errors"
	"reflect"
	"testing"
)

func TestAllocate_LowestFirst(t *testing.T) {
	p := New()
	candidates := []int{12, 8, 10}

	got, err := p.Allocate(candidates)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if got != 8 {
		t.Errorf("Allocate() = %d, want 8", got)
	}

	got, err = p.Allocate(candidates)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if got != 10 {
		t.Errorf("second Allocate() = %d, want 10", got)
	}
}

func TestAllocate_Exhausted(t *testing.T) {
	p := New()
	candidates := []int{8, 9}

	for i := 0; i < 2; i++ {
		if _, err := p.Allocate(candidates); err != nil {
			t.Fatalf("Allocate() #%d error: %v", i+1, err)
		}
	}

	_, err := p.Allocate(candidates)
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Allocate() error = %v, want ErrExhausted", err)
	}
}

func TestAllocate_EmptyCandidates(t *testing.T) {
	p := New()

	_, err := p.Allocate(nil)
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Allocate(nil) error = %v, want ErrExhausted", err)
	}
}

func TestRelease_MakesEidAvailableAgain(t *testing.T) {
	p := New()
	candidates := []int{8, 9}

	eid, err := p.Allocate(candidates)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}

	p.Release(eid)

	got, err := p.Allocate(candidates)
	if err != nil {
		t.Fatalf("Allocate() after Release error: %v", err)
	}
	if got != eid {
		t.Errorf("Allocate() after Release = %d, want %d", got, eid)
	}
}

func TestRelease_UnallocatedIsNoop(t *testing.T) {
	p := New()

	p.Release(42) // must not panic or corrupt state

	if got := p.Allocated(); len(got) != 0 {
		t.Errorf("Allocated() = %v, want empty", got)
	}
}

func TestAllocated_SortedSnapshot(t *testing.T) {
	p := New()
	for _, eid := range []int{20, 8, 15} {
		if _, err := p.Allocate([]int{eid}); err != nil {
			t.Fatalf("Allocate(%d) error: %v", eid, err)
		}
	}

	want := []int{8, 15, 20}
	if got := p.Allocated(); !reflect.DeepEqual(got, want) {
		t.Errorf("Allocated() = %v, want %v", got, want)
	}
}

func TestAllocate_NeverLeavesCandidateSet(t *testing.T) {
	p := New()
	candidates := []int{8, 9, 10, 11}
	allowed := map[int]bool{8: true, 9: true, 10: true, 11: true}

	for i := 0; i < len(candidates); i++ {
		eid, err := p.Allocate(candidates)
		if err != nil {
			t.Fatalf("Allocate() #%d error: %v", i+1, err)
		}
		if !allowed[eid] {
			t.Fatalf("Allocate() returned %d, outside candidate set", eid)
		}
	}

	for _, eid := range p.Allocated() {
		if !allowed[eid] {
			t.Errorf("Allocated() contains %d, outside candidate set", eid)
		}
	}
}
