package vm

import (
	"sync"

	"github.com/joshlong90/Virtual-Memory/defs"
	"github.com/joshlong90/Virtual-Memory/mem"
)

// AddrSpace_t is the top-level owning object: it owns the level-1 page
// table (via Pagetable) and the region list, and is associated with at
// most one running process at a time. The embedded mutex follows Biscuit's
// Vm_t locking convention (Lock_pmap/Unlock_pmap around every operation);
// no two threads ever actually contend for one address space in practice,
// but the lock still documents which operations must not interleave and
// costs nothing on the uncontended path.
type AddrSpace_t struct {
	sync.Mutex

	Pagetable *Pagetable_t
	regions   regionList

	Fa  FrameAllocator
	Tlb Tlb
	Cpu Cpu
}

// Create allocates an empty address space: no regions, an empty level-1
// table. Record and level-1 allocation go through Go's built-in allocator,
// which has no observable failure mode on a hosted runtime, so this never
// returns a non-zero Err_t; the return value is kept for symmetry with the
// package's fallible operations (Copy, DefineRegion, VmFault, ...).
func Create(fa FrameAllocator, tlb Tlb, cpu Cpu) (*AddrSpace_t, defs.Err_t) {
	as := &AddrSpace_t{
		Pagetable: NewPagetable(nil),
		Fa:        fa,
		Tlb:       tlb,
		Cpu:       cpu,
	}
	return as, 0
}

// DefineRegion declares a new mapped range within the address space.
func (as *AddrSpace_t) DefineRegion(vaddr, memsize uint32, r, w, x bool) defs.Err_t {
	as.Lock()
	defer as.Unlock()
	var perms Perm_t
	if r {
		perms |= RF_R
	}
	if w {
		perms |= RF_W
	}
	if x {
		perms |= RF_X
	}
	_, err := as.regions.defineRegion(vaddr, memsize, perms)
	return err
}

// DefineStack declares the fixed-size, read/write stack region ending
// exactly at USERSTACK. Returns the initial stack pointer.
func (as *AddrSpace_t) DefineStack() (uint32, defs.Err_t) {
	as.Lock()
	defer as.Unlock()
	memsize := uint32(STACK_NPAGES) * PAGE_SIZE
	vaddr := USERSTACK - memsize
	if _, err := as.regions.defineRegion(vaddr, memsize, RF_R|RF_W); err != 0 {
		return 0, err
	}
	return USERSTACK, 0
}

// Destroy releases every frame referenced by a non-zero PTE, every
// allocated level-2 table, and the region list. There is nothing further
// to free for the level-1 table or the AddrSpace_t record itself, since
// both are ordinary Go-allocated memory reclaimed by the garbage
// collector once unreferenced, so Destroy's job ends there.
func (as *AddrSpace_t) Destroy() {
	as.Lock()
	defer as.Unlock()

	pt := as.Pagetable
	for i1 := 0; i1 < TABLE_SIZE; i1++ {
		l2 := pt.l1[i1]
		if l2 == nil {
			continue
		}
		for i2 := 0; i2 < TABLE_SIZE; i2++ {
			if l2[i2] != 0 {
				as.Fa.FreeFrame(mem.Pa_t(l2[i2] & PTE_FRAME_MASK))
				l2[i2] = 0
			}
		}
		pt.l1[i1] = nil
	}
	as.regions = regionList{}
}

// Activate invalidates every TLB entry under masked interrupts, so that a
// context switch into this address space never reuses a stale mapping
// left behind by the previous one.
func (as *AddrSpace_t) Activate() {
	invalidateAll(as.Tlb, as.Cpu)
}

// Deactivate has the same effect as Activate: both simply invalidate the
// whole TLB, leaving nothing cached that could be mistaken for a mapping
// belonging to whichever address space runs next.
func (as *AddrSpace_t) Deactivate() {
	invalidateAll(as.Tlb, as.Cpu)
}

func invalidateAll(tlb Tlb, cpu Cpu) {
	spl := cpu.SplHigh()
	for i := 0; i < NUM_TLB; i++ {
		tlb.Write(i, TLBHI_INVALID(i), TLBLO_INVALID())
	}
	cpu.SplX(spl)
}

// Copy produces a deep copy of the receiver for use on process fork: the
// region list is duplicated preserving order and permissions, and every
// non-empty PTE gets a fresh frame holding a copy of the old frame's
// contents. On any allocation failure the partially built address space
// is fully destroyed before returning the error, so the caller never has
// to clean up a half-built copy.
func (as *AddrSpace_t) Copy() (*AddrSpace_t, defs.Err_t) {
	as.Lock()
	defer as.Unlock()

	newas, _ := Create(as.Fa, as.Tlb, as.Cpu)

	for cur := as.regions.head; cur != nil; cur = cur.next {
		r, err := newas.regions.defineRegion(cur.Vbase, cur.Npages*PAGE_SIZE, cur.Perms)
		if err != 0 {
			newas.Destroy()
			return nil, err
		}
		r.savedPerms = cur.savedPerms
		r.loading = cur.loading
	}

	pt := as.Pagetable
	for i1 := 0; i1 < TABLE_SIZE; i1++ {
		l2 := pt.l1[i1]
		if l2 == nil {
			continue
		}
		for i2 := 0; i2 < TABLE_SIZE; i2++ {
			old := l2[i2]
			if old == 0 {
				continue
			}
			vaddr := uint32(i1)<<22 | uint32(i2)<<12

			newpa, ok := as.Fa.AllocFrame()
			if !ok {
				newas.Destroy()
				return nil, defs.ENOMEM
			}
			*newas.Fa.Dmap(newpa) = *as.Fa.Dmap(mem.Pa_t(old & PTE_FRAME_MASK))

			entry := Pte_t(newpa) | (old & (PTE_VALID | PTE_DIRTY))
			if err := newas.Pagetable.Insert(vaddr, entry); err != 0 {
				as.Fa.FreeFrame(newpa)
				newas.Destroy()
				return nil, err
			}
		}
	}

	return newas, 0
}
