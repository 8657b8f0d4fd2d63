package vm

import "github.com/joshlong90/Virtual-Memory/defs"

// Region_t is a single defined virtual-address range: a page-aligned base,
// a page count, and a permission set. savedPerms and loading hold the
// bookkeeping prepare_load/complete_load need; a dedicated field is
// behaviorally identical to (and more idiomatic than) encoding the saved
// permissions by shifting them into unused bits of a single word.
type Region_t struct {
	Vbase      uint32
	Npages     uint32
	Perms      Perm_t
	savedPerms Perm_t
	loading    bool
	next       *Region_t
}

// Contains reports whether vaddr falls within the region.
func (r *Region_t) Contains(vaddr uint32) bool {
	end := r.Vbase + r.Npages*PAGE_SIZE
	return vaddr >= r.Vbase && vaddr < end
}

// regionList is the singly linked, insertion-ordered sequence of regions
// an address space defines. Appending walks to the tail; region counts per
// address space are small, so there is no benefit to tracking a tail
// pointer.
type regionList struct {
	head *Region_t
}

func (rl *regionList) append(r *Region_t) {
	if rl.head == nil {
		rl.head = r
		return
	}
	cur := rl.head
	for cur.next != nil {
		cur = cur.next
	}
	cur.next = r
}

// find returns the first region containing vaddr, in list (insertion)
// order. The first match wins if a caller ever defines overlapping
// regions; this package does not reject overlap itself.
func (rl *regionList) find(vaddr uint32) *Region_t {
	for cur := rl.head; cur != nil; cur = cur.next {
		if cur.Contains(vaddr) {
			return cur
		}
	}
	return nil
}

// defineRegion records a new region: page-align the range outward, reject
// an all-zero permission set, and append to the list tail.
func (rl *regionList) defineRegion(vaddr, memsize uint32, perms Perm_t) (*Region_t, defs.Err_t) {
	if perms == 0 {
		return nil, defs.EINVAL
	}

	// widen [vaddr, vaddr+memsize) out to whole pages.
	end := vaddr + memsize
	base := vaddr &^ (PAGE_SIZE - 1)
	end = (end + PAGE_SIZE - 1) &^ (PAGE_SIZE - 1)
	npages := (end - base) / PAGE_SIZE

	r := &Region_t{Vbase: base, Npages: npages, Perms: perms}
	rl.append(r)
	return r, 0
}
