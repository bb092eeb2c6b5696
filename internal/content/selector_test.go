package content

import (
	"context"
	"testing"
	"time"

	"github.com/five82/lectern/internal/moodle"
)

type gatedResolver struct {
	gates map[int]chan struct{}
}

func (r *gatedResolver) Resolve(_ context.Context, sel Selection) Directive {
	if gate, ok := r.gates[sel.Module.ID]; ok {
		<-gate
	}
	return Directive{Kind: KindHTML, ModuleID: sel.Module.ID}
}

func TestSelector_LatestSelectionWins(t *testing.T) {
	gateA := make(chan struct{})
	s := NewSelector(&gatedResolver{gates: map[int]chan struct{}{1: gateA}})

	type result struct {
		d       Directive
		adopted bool
	}
	aDone := make(chan result, 1)
	go func() {
		d, ok := s.Select(context.Background(), Selection{Module: moodle.Module{ID: 1}})
		aDone <- result{d, ok}
	}()

	// Wait until A has taken its sequence number.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.Lock()
		seq := s.seq
		s.mu.Unlock()
		if seq == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("selection A never started")
		}
		time.Sleep(time.Millisecond)
	}

	dB, okB := s.Select(context.Background(), Selection{Module: moodle.Module{ID: 2}})
	if !okB || dB.ModuleID != 2 {
		t.Fatalf("B = %#v adopted=%v, want adopted", dB, okB)
	}

	close(gateA)
	a := <-aDone
	if a.adopted {
		t.Fatal("stale selection A was adopted")
	}

	cur, ok := s.Current()
	if !ok || cur.ModuleID != 2 {
		t.Fatalf("Current = %#v, want module 2", cur)
	}
}

func TestSelector_Reset(t *testing.T) {
	s := NewSelector(&gatedResolver{})
	s.Select(context.Background(), Selection{Module: moodle.Module{ID: 1}})
	s.Reset()
	if _, ok := s.Current(); ok {
		t.Fatal("Current ok after Reset")
	}
}
