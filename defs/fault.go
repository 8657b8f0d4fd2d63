package defs

// Faulttype_t is the fault-kind enum the synchronous exception dispatcher
// decodes from the trap cause before calling into vm.VmFault. Named after
// OS/161's VM_FAULT_* constants.
type Faulttype_t int

const (
	VM_FAULT_READONLY Faulttype_t = iota
	VM_FAULT_READ
	VM_FAULT_WRITE
)
