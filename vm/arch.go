// Package vm implements the per-process address-space object, the
// two-level page table, and the TLB-miss fault path for a software-managed
// MIPS-like TLB, after the pattern of Biscuit's vm/mem packages.
package vm

import "github.com/joshlong90/Virtual-Memory/mem"

// Architecture constants.
const (
	PAGE_SIZE       = mem.PGSIZE
	PAGE_FRAME_MASK = uint32(0xFFFFF000)
	TABLE_SIZE      = 1024
	KSEG_BASE       = uint32(0x80000000)
	USERSTACK       = KSEG_BASE
	STACK_NPAGES    = 16
	NUM_TLB         = 64

	fourMiB = TABLE_SIZE * PAGE_SIZE
)

// Pte_t is a single page-table entry: a TLB-low word. Bits follow the MIPS
// R3000 convention: frame number in [31:12], DIRTY at bit 10, VALID at bit
// 9. Zero means "no mapping."
type Pte_t uint32

const (
	PTE_VALID      Pte_t = 1 << 9
	PTE_DIRTY      Pte_t = 1 << 10
	PTE_FRAME_MASK Pte_t = Pte_t(PAGE_FRAME_MASK)
)

// Perm_t is the 3-bit permission set a region carries: {R, W, X}. Named
// after OS/161's RF_R/RF_W/RF_X region-flag macros.
type Perm_t uint8

const (
	RF_R Perm_t = 1 << 0
	RF_W Perm_t = 1 << 1
	RF_X Perm_t = 1 << 2
)

// TLBHI_INVALID and TLBLO_INVALID produce a TLB entry guaranteed never to
// match a user virtual address. Each index gets a distinct high word (an
// otherwise-unused kernel address derived from the slot number) so that
// invalidating every slot can never create two entries with the same high
// word, which hardware TLBs reject.
func TLBHI_INVALID(index int) uint32 {
	return KSEG_BASE + uint32(index)*uint32(PAGE_SIZE)
}

func TLBLO_INVALID() uint32 {
	return 0
}

// FrameAllocator is the physical frame allocator: alloc_frame/free_frame
// supplied by whatever kernel links this package in. Dmap is the kernel
// direct map used to zero-fill and copy frame contents without installing
// a user mapping.
type FrameAllocator interface {
	AllocFrame() (mem.Pa_t, bool)
	FreeFrame(mem.Pa_t)
	Dmap(mem.Pa_t) *mem.Pg_t
}

// Tlb is the hardware TLB write interface: tlb_random refills a random
// slot (the fault path), Write installs a specific slot (used only to
// invalidate every entry on activate/deactivate/complete_load).
type Tlb interface {
	Random(hi, lo uint32)
	Write(index int, hi, lo uint32)
}

// Cpu controls the local CPU's interrupt priority. SplHigh raises it to
// the highest level and returns the previous level; SplX restores it.
// Named after OS/161's splhigh()/splx().
type Cpu interface {
	SplHigh() int
	SplX(int)
}

// L2Table_t is a level-2 page table: 1024 PTEs covering a 4 MiB span.
type L2Table_t [TABLE_SIZE]Pte_t

// TableAllocator is the kernel heap allocator, restricted to the one thing
// the page-table store needs from it: a fresh, zeroed level-2 table.
// Modeling it as an interface, rather than a bare `new(L2Table_t)`, makes
// the out-of-memory path on insert actually testable.
type TableAllocator interface {
	AllocTable() (*L2Table_t, bool)
}

// GoHeap is the default TableAllocator: ordinary Go allocation, which has
// no observable failure mode on a hosted runtime. Tests that need to
// exercise insert's out-of-memory path substitute a failing TableAllocator.
type GoHeap struct{}

func (GoHeap) AllocTable() (*L2Table_t, bool) {
	return new(L2Table_t), true
}
