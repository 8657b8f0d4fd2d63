package vm

import "github.com/joshlong90/Virtual-Memory/defs"

// Pagetable_t is the two-level sparse mapping from virtual page number to
// PTE: a fixed 1024-entry level-1 table of owning pointers to
// lazily-allocated level-2 tables.
type Pagetable_t struct {
	l1   [TABLE_SIZE]*L2Table_t
	Heap TableAllocator
}

// NewPagetable returns a zero-initialized page table. heap may be nil, in
// which case GoHeap is used.
func NewPagetable(heap TableAllocator) *Pagetable_t {
	if heap == nil {
		heap = GoHeap{}
	}
	return &Pagetable_t{Heap: heap}
}

// indices splits a virtual address into its level-1 index (bits [31:22])
// and level-2 index (bits [21:12]).
func indices(vaddr uint32) (i1, i2 uint32) {
	i1 = (vaddr >> 22) & (TABLE_SIZE - 1)
	i2 = (vaddr >> 12) & (TABLE_SIZE - 1)
	return
}

// Insert stores entry at the slot for vaddr, allocating the level-2 table
// if it doesn't exist yet. It overwrites any prior PTE without freeing the
// frame it referenced; that is the caller's problem. Neither caller ever
// overwrites: the fault path only inserts after a Lookup miss, and Copy
// only inserts into the fresh page table it is building.
func (pt *Pagetable_t) Insert(vaddr uint32, entry Pte_t) defs.Err_t {
	i1, i2 := indices(vaddr)
	if pt.l1[i1] == nil {
		tbl, ok := pt.Heap.AllocTable()
		if !ok {
			return defs.ENOMEM
		}
		pt.l1[i1] = tbl
	}
	pt.l1[i1][i2] = entry
	return 0
}

// Lookup returns the PTE stored for vaddr, or 0 if no level-2 table or no
// PTE exists at that slot. Lookup never allocates.
func (pt *Pagetable_t) Lookup(vaddr uint32) Pte_t {
	i1, i2 := indices(vaddr)
	if pt.l1[i1] == nil {
		return 0
	}
	return pt.l1[i1][i2]
}

// Update clears the DIRTY bit on every existing PTE in
// [vbase, vbase+npages*PAGE_SIZE). It is one-directional by design, because
// it is only ever used to downgrade a page from writable to read-only
// after a program load; toggling would let a stale DIRTY bit come back.
// Absent level-2 tables are skipped by jumping straight to the next 4 MiB
// boundary rather than probing every page.
func (pt *Pagetable_t) Update(vbase uint32, npages uint32) defs.Err_t {
	vend := vbase + npages*PAGE_SIZE
	if vend > KSEG_BASE {
		return defs.EINVAL
	}
	for v := vbase; v < vend; {
		i1, _ := indices(v)
		if pt.l1[i1] == nil {
			v = (v &^ (fourMiB - 1)) + fourMiB
			continue
		}
		_, i2 := indices(v)
		if e := pt.l1[i1][i2]; e != 0 {
			pt.l1[i1][i2] = e &^ PTE_DIRTY
		}
		v += PAGE_SIZE
	}
	return 0
}

// l2Count returns the number of allocated level-2 tables, used by tests to
// verify address-space teardown.
func (pt *Pagetable_t) l2Count() int {
	n := 0
	for _, t := range pt.l1 {
		if t != nil {
			n++
		}
	}
	return n
}
