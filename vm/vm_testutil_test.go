package vm

import "github.com/joshlong90/Virtual-Memory/mem"

// fakeTlb and fakeCpu are the test doubles for the hardware collaborators:
// a real kernel wires up actual TLB instructions and actual
// interrupt-priority registers, but this package's tests only need to
// observe what vm asked the hardware to do.

type tlbWrite struct {
	index  int // -1 for Random
	hi, lo uint32
}

type fakeTlb struct {
	writes []tlbWrite
}

func (f *fakeTlb) Random(hi, lo uint32) {
	f.writes = append(f.writes, tlbWrite{index: -1, hi: hi, lo: lo})
}

func (f *fakeTlb) Write(index int, hi, lo uint32) {
	f.writes = append(f.writes, tlbWrite{index: index, hi: hi, lo: lo})
}

func (f *fakeTlb) last() tlbWrite {
	return f.writes[len(f.writes)-1]
}

// fakeCpu tracks the current interrupt priority level (1 while raised)
// and calls onRaise each time priority is raised, so tests can observe
// what had already happened at the moment the raised-priority window
// opened.
type fakeCpu struct {
	level        int
	raisedDuring bool
	onRaise      func()
}

func (f *fakeCpu) SplHigh() int {
	prev := f.level
	f.level = 1
	if f.onRaise != nil {
		f.onRaise()
	}
	return prev
}

func (f *fakeCpu) SplX(prev int) {
	f.level = prev
}

func newTestAS(nframes int) (*AddrSpace_t, *mem.Allocator_t, *fakeTlb, *fakeCpu) {
	fa := mem.NewAllocator(nframes)
	tlb := &fakeTlb{}
	cpu := &fakeCpu{}
	as, _ := Create(fa, tlb, cpu)
	return as, fa, tlb, cpu
}
