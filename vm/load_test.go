package vm

import (
	"testing"

	"github.com/joshlong90/Virtual-Memory/defs"
	"github.com/joshlong90/Virtual-Memory/mem"
)

// TestLoaderCycle exercises the full loader cycle end to end: a region
// declared {R, X} becomes writable during load, a write installs a DIRTY
// PTE, and after CompleteLoad the region is read-only again, the PTE is
// no longer DIRTY, the TLB is empty, and the bytes written during load
// are still readable.
func TestLoaderCycle(t *testing.T) {
	as, fa, tlb, _ := newTestAS(4)
	as.DefineRegion(0x00400000, PAGE_SIZE, true, false, true) // {R, X}

	if err := as.PrepareLoad(); err != 0 {
		t.Fatalf("PrepareLoad failed: %v", err)
	}
	if as.regions.head.Perms != RF_R|RF_W {
		t.Fatalf("region not widened to {R,W} during load")
	}

	if err := VmFault(as, defs.VM_FAULT_WRITE, 0x00400000); err != 0 {
		t.Fatalf("write fault during load failed: %v", err)
	}
	pte := as.Pagetable.Lookup(0x00400000)
	if pte&PTE_DIRTY == 0 {
		t.Fatalf("page installed during load is not DIRTY")
	}

	pg := mem.Pg2bytes(fa.Dmap(mem.Pa_t(pte & PTE_FRAME_MASK)))
	pg[0], pg[1], pg[2] = 0xAA, 0xBB, 0xCC

	tlb.writes = nil
	if err := as.CompleteLoad(); err != 0 {
		t.Fatalf("CompleteLoad failed: %v", err)
	}

	if as.regions.head.Perms != RF_R|RF_X {
		t.Fatalf("region permissions not restored to {R,X}")
	}
	if pte := as.Pagetable.Lookup(0x00400000); pte&PTE_DIRTY != 0 {
		t.Fatalf("PTE still DIRTY after CompleteLoad")
	}
	if len(tlb.writes) != NUM_TLB {
		t.Fatalf("CompleteLoad did not invalidate the whole TLB (%d writes)", len(tlb.writes))
	}

	if err := VmFault(as, defs.VM_FAULT_READ, 0x00400000); err != 0 {
		t.Fatalf("read after load failed: %v", err)
	}
	readPte := as.Pagetable.Lookup(0x00400000)
	readPg := mem.Pg2bytes(fa.Dmap(mem.Pa_t(readPte & PTE_FRAME_MASK)))
	if readPg[0] != 0xAA || readPg[1] != 0xBB || readPg[2] != 0xCC {
		t.Fatalf("bytes written during load did not survive: %v", readPg[:3])
	}
}

func TestCompleteLoadRestoresPermissionsEvenWithoutFaults(t *testing.T) {
	as, _, _, _ := newTestAS(2)
	as.DefineRegion(0x00400000, PAGE_SIZE, true, true, false) // {R, W}: declared writable

	as.PrepareLoad()
	if err := as.CompleteLoad(); err != 0 {
		t.Fatalf("CompleteLoad failed: %v", err)
	}
	if as.regions.head.Perms != RF_R|RF_W {
		t.Fatalf("permissions not restored to the originally declared set")
	}
}
