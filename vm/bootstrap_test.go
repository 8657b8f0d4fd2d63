package vm

import "testing"

func TestBootstrapIsNoop(t *testing.T) {
	Bootstrap()
}

func TestTlbShootdownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("TlbShootdown did not panic")
		}
	}()
	TlbShootdown(&Shootdown_t{Vaddr: 0x00400000, Npages: 1})
}
