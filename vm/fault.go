package vm

import (
	"github.com/joshlong90/Virtual-Memory/defs"
	"github.com/joshlong90/Virtual-Memory/mem"
)

// tlbhiVpageMask masks a faulting address down to its virtual page number
// for the TLB high word.
const tlbhiVpageMask = PAGE_FRAME_MASK

// VmFault is the TLB-miss fault path. as is the current process's address
// space; in a C kernel this would be looked up implicitly from curproc,
// but here it is an explicit parameter, and a nil as covers the "no
// current process or no active address space" case exactly.
func VmFault(as *AddrSpace_t, kind defs.Faulttype_t, faultaddr uint32) defs.Err_t {
	if kind == defs.VM_FAULT_READONLY {
		// a write to a non-DIRTY PTE is a permission violation, never a
		// refill opportunity; writable regions must never produce this.
		return defs.EFAULT
	}
	if kind != defs.VM_FAULT_READ && kind != defs.VM_FAULT_WRITE {
		return defs.EINVAL
	}
	if as == nil {
		return defs.EFAULT
	}
	return as.fault(faultaddr)
}

func (as *AddrSpace_t) fault(faultaddr uint32) defs.Err_t {
	as.Lock()
	defer as.Unlock()

	vaddr := faultaddr &^ (PAGE_SIZE - 1)

	if pte := as.Pagetable.Lookup(vaddr); pte != 0 {
		as.tlbRandomWrite(vaddr, pte)
		return 0
	}

	reg := as.regions.find(faultaddr)
	if reg == nil {
		return defs.EFAULT
	}

	pa, ok := as.Fa.AllocFrame()
	if !ok {
		return defs.ENOMEM
	}
	mem.Zero(as.Fa.Dmap(pa))

	entry := Pte_t(pa) | PTE_VALID
	if reg.Perms&RF_W != 0 {
		entry |= PTE_DIRTY
	}

	if err := as.Pagetable.Insert(vaddr, entry); err != 0 {
		as.Fa.FreeFrame(pa)
		return err
	}

	as.tlbRandomWrite(vaddr, entry)
	return 0
}

// tlbRandomWrite is the TLB programmer: raise the local CPU's priority to
// the highest level, issue the one TLB write, restore the prior level. No
// allocation or lock acquisition is reachable between SplHigh and SplX;
// the window encloses exactly the hardware write.
func (as *AddrSpace_t) tlbRandomWrite(vaddr uint32, entry Pte_t) {
	hi := vaddr & tlbhiVpageMask
	spl := as.Cpu.SplHigh()
	as.Tlb.Random(hi, uint32(entry))
	as.Cpu.SplX(spl)
}
