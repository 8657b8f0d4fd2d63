package vm

import "github.com/joshlong90/Virtual-Memory/defs"

// PrepareLoad widens every region to {R, W} for the duration of a program
// load, saving the declared permissions so CompleteLoad can restore them.
// A dedicated field for the saved permissions is behaviorally identical to
// encoding them by shifting into unused bits of a single word, and is the
// idiomatic choice once the region record is an ordinary Go struct rather
// than a single scarce machine word.
func (as *AddrSpace_t) PrepareLoad() defs.Err_t {
	as.Lock()
	defer as.Unlock()
	for cur := as.regions.head; cur != nil; cur = cur.next {
		cur.savedPerms = cur.Perms
		cur.loading = true
		cur.Perms = RF_R | RF_W
	}
	return 0
}

// CompleteLoad restores each region's declared permissions and, for any
// region that is not writable, clears DIRTY on whatever PTEs the load
// already installed; a writable page left behind by the load must not
// stay writable once the region reverts to read-only. It then invalidates
// the whole TLB so no stale writable entry can be reused.
func (as *AddrSpace_t) CompleteLoad() defs.Err_t {
	as.Lock()
	defer as.Unlock()
	for cur := as.regions.head; cur != nil; cur = cur.next {
		if !cur.loading {
			continue
		}
		cur.Perms = cur.savedPerms
		cur.loading = false
		if cur.Perms&RF_W == 0 {
			if err := as.Pagetable.Update(cur.Vbase, cur.Npages); err != 0 {
				return err
			}
		}
	}
	invalidateAll(as.Tlb, as.Cpu)
	return 0
}
