package slab

import (
	"sync"
	"testing"
)

func TestClaimReleaseRoundTrip(t *testing.T) {
	p := NewIntegratorPool()
	ws := p.Claim()
	if ws == nil {
		t.Fatal("expected non-nil claim on fresh pool")
	}
	if p.InUse() != 1 {
		t.Errorf("expected 1 in use, got %d", p.InUse())
	}
	p.Release(ws)
	if p.InUse() != 0 {
		t.Errorf("expected 0 in use after release, got %d", p.InUse())
	}
}

func TestSlotDistinctAcrossConcurrentClaims(t *testing.T) {
	p := NewIntegratorPool()
	a := p.Claim()
	b := p.Claim()
	if a.Slot() == b.Slot() {
		t.Errorf("expected distinct slots for concurrent claims, both got %d", a.Slot())
	}
	if a.Slot() < 0 || a.Slot() >= IntegratorPoolCapacity {
		t.Errorf("slot %d out of range [0,%d)", a.Slot(), IntegratorPoolCapacity)
	}
	p.Release(a)
	p.Release(b)
}

func TestClaimZeroesScratch(t *testing.T) {
	p := NewIntegratorPool()
	ws := p.Claim()
	ws.Scratch[0] = 42
	p.Release(ws)
	ws2 := p.Claim()
	if ws2.Scratch[0] != 0 {
		t.Errorf("expected zeroed scratch on re-claim, got %f", ws2.Scratch[0])
	}
}

func TestPoolExhaustion(t *testing.T) {
	p := NewIntegratorPool()
	var claimed []*Workspace
	for i := 0; i < IntegratorPoolCapacity; i++ {
		ws := p.Claim()
		if ws == nil {
			t.Fatalf("unexpected exhaustion at claim %d", i)
		}
		claimed = append(claimed, ws)
	}
	if !p.IsExhausted() {
		t.Error("expected pool to report exhausted")
	}
	if p.Claim() != nil {
		t.Error("expected nil claim on exhausted pool")
	}
	p.Release(claimed[0])
	if p.IsExhausted() {
		t.Error("expected pool to no longer be exhausted after one release")
	}
	if p.Claim() == nil {
		t.Error("expected successful claim after release")
	}
}

func TestReleaseForeignPointerIgnored(t *testing.T) {
	p1 := NewIntegratorPool()
	p2 := NewIntegratorPool()
	ws := p1.Claim()
	p2.Release(ws) // must be a no-op
	if p1.InUse() != 1 {
		t.Errorf("expected p1 claim to remain held, got InUse=%d", p1.InUse())
	}
	if p2.InUse() != 0 {
		t.Errorf("expected p2 untouched, got InUse=%d", p2.InUse())
	}
}

func TestReleaseNilIsSafe(t *testing.T) {
	p := NewIntegratorPool()
	p.Release(nil) // must not panic
}

func TestDoubleReleaseIsSafe(t *testing.T) {
	p := NewIntegratorPool()
	ws := p.Claim()
	p.Release(ws)
	p.Release(ws) // second release: slot already clear, must not panic or corrupt
	if p.InUse() != 0 {
		t.Errorf("expected 0 in use, got %d", p.InUse())
	}
}

func TestValidateNeverAddressesBeyondCapacity(t *testing.T) {
	p := NewIntegratorPool()
	for i := 0; i < IntegratorPoolCapacity; i++ {
		p.Claim()
	}
	if !p.Validate() {
		t.Error("expected pool to validate with all slots claimed")
	}
}

func TestConcurrentClaimReleaseNoDoubleAssignment(t *testing.T) {
	p := NewIntegratorPool()
	var wg sync.WaitGroup
	results := make(chan *Workspace, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws := p.Claim()
			results <- ws
			if ws != nil {
				p.Release(ws)
			}
		}()
	}
	wg.Wait()
	close(results)
	if p.InUse() != 0 {
		t.Errorf("expected pool drained after all goroutines release, got %d", p.InUse())
	}
}

func TestClebschPoolAttachesAndDetachesLUT(t *testing.T) {
	sentinel := "clebsch-lut"
	cp := NewClebschPool(sentinel)
	ws := cp.Claim()
	if ws == nil {
		t.Fatal("expected non-nil claim")
	}
	if ws.LUT != sentinel {
		t.Errorf("expected LUT attached on claim, got %v", ws.LUT)
	}
	cp.Release(ws)
	if ws.LUT != nil {
		t.Errorf("expected LUT detached on release, got %v", ws.LUT)
	}
}

func TestClebschPoolCapacity(t *testing.T) {
	cp := NewClebschPool(nil)
	var claimed []*ClebschWorkspace
	for i := 0; i < ClebschPoolCapacity; i++ {
		ws := cp.Claim()
		if ws == nil {
			t.Fatalf("unexpected exhaustion at claim %d", i)
		}
		claimed = append(claimed, ws)
	}
	if cp.Claim() != nil {
		t.Error("expected nil claim beyond capacity")
	}
	_ = claimed
}
