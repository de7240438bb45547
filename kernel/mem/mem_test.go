package mem

import "testing"

func TestSizePages(t *testing.T) {
	specs := []struct {
		size     Size
		expPages uint64
	}{
		{1023 * Kb, 256},
		{1024 * Kb, 256},
		{1 * Byte, 1},
		{0, 0},
	}

	for specIndex, spec := range specs {
		if got := spec.size.Pages(); got != spec.expPages {
			t.Errorf("[spec %d] expected Pages(%d bytes) to equal %d; got %d", specIndex, spec.size, spec.expPages, got)
		}
	}
}

func TestPhysAddrRounding(t *testing.T) {
	specs := []struct {
		addr    PhysAddr
		expDown PhysAddr
		expUp   PhysAddr
	}{
		{0, 0, 0},
		{1, 0, PhysAddr(PageSize)},
		{PhysAddr(PageSize), PhysAddr(PageSize), PhysAddr(PageSize)},
		{PhysAddr(PageSize) + 1, PhysAddr(PageSize), PhysAddr(2 * PageSize)},
	}

	for specIndex, spec := range specs {
		if got := spec.addr.RoundDown(); got != spec.expDown {
			t.Errorf("[spec %d] expected RoundDown(%d) to equal %d; got %d", specIndex, spec.addr, spec.expDown, got)
		}
		if got := spec.addr.RoundUp(); got != spec.expUp {
			t.Errorf("[spec %d] expected RoundUp(%d) to equal %d; got %d", specIndex, spec.addr, spec.expUp, got)
		}
	}
}

func TestPhysAddrFrame(t *testing.T) {
	if got := PhysAddr(0x2000).Frame(); got != 2 {
		t.Errorf("expected frame 2; got %d", got)
	}
}
