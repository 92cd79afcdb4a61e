package memory

import "testing"

func TestRAMWrapsToPowerOfTwo(t *testing.T) {
	r, err := NewRAM(256)
	if err != nil {
		t.Fatalf("NewRAM: %v", err)
	}
	r.Write(0x00FF, 0x42)
	if got := r.Read(0x01FF); got != 0x42 {
		t.Errorf("Read(0x01FF) = %#02x, want 0x42 (should alias 0x00FF)", got)
	}
}

func TestRAMRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := NewRAM(100); err == nil {
		t.Error("NewRAM(100) succeeded, want error (not a power of 2)")
	}
}

func TestROMReadOnly(t *testing.T) {
	rom := NewROM([]uint8{0xAA, 0xBB, 0xCC, 0xDD}, 0xE000)
	if got := rom.Read(0xE001); got != 0xBB {
		t.Errorf("Read(0xE001) = %#02x, want 0xBB", got)
	}
	rom.Write(0xE001, 0x00)
	if got := rom.Read(0xE001); got != 0xBB {
		t.Errorf("Write should be a no-op on ROM, Read(0xE001) = %#02x, want 0xBB", got)
	}
}

func TestROMWrapsOutsideImage(t *testing.T) {
	rom := NewROM([]uint8{0x01, 0x02}, 0xA000)
	if got := rom.Read(0xA002); got != 0x01 {
		t.Errorf("Read(0xA002) = %#02x, want 0x01 (wraps modulo image length)", got)
	}
}

func TestColorRAMMasksToLowNibble(t *testing.T) {
	c := NewColorRAM()
	c.Write(0x00, 0xFF)
	if got := c.Read(0x00); got != 0x0F {
		t.Errorf("Read(0) = %#02x, want 0x0F (only low nibble stored)", got)
	}
}

func TestColorRAMAliasesAcross1K(t *testing.T) {
	c := NewColorRAM()
	c.Write(0x000, 0x05)
	if got := c.Read(0x400); got != 0x05 {
		t.Errorf("Read(0x400) = %#02x, want 0x05 (aliases 0x000 across 1024 entries)", got)
	}
}

func TestInvalidAddressError(t *testing.T) {
	err := InvalidAddress{Chip: "VIC", Addr: 0xD02F}
	if err.Error() == "" {
		t.Error("InvalidAddress.Error() returned empty string")
	}
}
