package vic

import "testing"

type fakeMem struct {
	ram      [65536]uint8
	color    [1024]uint8
	bank     uint16
	irqCount int
}

func (f *fakeMem) ReadVICMem(bankRelative uint16) uint8 {
	bankRelative &= 0x3FFF
	if bankRelative >= 0x1000 && bankRelative < 0x2000 {
		return 0x00 // no CHARGEN image in this fake; tests only need RAM fallback.
	}
	return f.ram[(f.bank+bankRelative)&0xFFFF]
}
func (f *fakeMem) Raw() []uint8          { return f.ram[:] }
func (f *fakeMem) ColorRAMRaw() []uint8  { return f.color[:] }
func (f *fakeMem) VICBank() uint16       { return f.bank }
func (f *fakeMem) TriggerIRQ()           { f.irqCount++ }

func TestRasterAdvancesAndWraps(t *testing.T) {
	mem := &fakeMem{}
	c := Init(&ChipDef{Mode: PAL, Mem: mem})
	for i := 0; i < PAL.CyclesPerLine; i++ {
		c.Tick(1)
	}
	if got := c.Read(0xD012); got != 1 {
		t.Errorf("raster line after one line's worth of cycles = %d, want 1", got)
	}

	// Advance through the rest of the frame, wrapping back to line 0.
	for line := 1; line < PAL.TotalLines; line++ {
		c.Tick(PAL.CyclesPerLine)
	}
	if got := c.Read(0xD012); got != 0 {
		t.Errorf("raster line after full frame = %d, want 0 (wrapped)", got)
	}
	if !c.ReadyFrame() {
		t.Error("ReadyFrame() = false after a full frame of ticks")
	}
}

func TestRasterIRQFiresAtCompareLine(t *testing.T) {
	mem := &fakeMem{}
	c := Init(&ChipDef{Mode: PAL, Mem: mem})
	c.Write(0xD01A, 0x01) // enable raster IRQ
	c.Write(0xD012, 0x05) // compare at line 5

	for line := 0; line < 5; line++ {
		c.Tick(PAL.CyclesPerLine)
	}
	if mem.irqCount == 0 {
		t.Error("TriggerIRQ was never called reaching the compare line")
	}
	if c.Read(0xD019)&0x01 == 0 {
		t.Error("raster interrupt flag ($D019 bit 0) not set at compare line")
	}
}

func TestRasterCompareLatchSurvivesRasterAdvance(t *testing.T) {
	mem := &fakeMem{}
	c := Init(&ChipDef{Mode: PAL, Mem: mem})
	c.Write(0xD01A, 0x01)
	c.Write(0xD011, 0x80) // compare bit 8
	c.Write(0xD012, 0x2C) // compare = 300

	for line := 0; line < 10; line++ {
		c.Tick(PAL.CyclesPerLine)
	}
	// Rewriting a $D011 control bit mid-frame must not pick up the raster
	// count the chip has been writing back into $D012 every line.
	c.Write(0xD011, 0x90)
	for line := 10; line < 299; line++ {
		c.Tick(PAL.CyclesPerLine)
	}
	if mem.irqCount != 0 {
		t.Fatalf("raster IRQ fired %d times before the compare line", mem.irqCount)
	}
	c.Tick(PAL.CyclesPerLine)
	if mem.irqCount != 1 {
		t.Errorf("raster IRQ count at line 300 = %d, want exactly 1", mem.irqCount)
	}
}

func TestD019WriteOneToClear(t *testing.T) {
	mem := &fakeMem{}
	c := Init(&ChipDef{Mode: PAL, Mem: mem})
	c.Write(0xD01A, 0x01)
	c.Write(0xD012, 0x01)
	c.Tick(PAL.CyclesPerLine)
	if c.Read(0xD019)&0x01 == 0 {
		t.Fatal("expected raster IRQ flag set")
	}
	c.Write(0xD019, 0x01)
	if c.Read(0xD019)&0x01 != 0 {
		t.Error("$D019 bit 0 still set after write-1-to-clear")
	}
}

func TestRegisterFileRoundTrips(t *testing.T) {
	mem := &fakeMem{}
	c := Init(&ChipDef{Mode: PAL, Mem: mem})
	c.Write(0xD020, 0x06)
	if got := c.Read(0xD020); got != 0x06 {
		t.Errorf("Read($D020) = %#02x, want 0x06", got)
	}
}

func TestSpriteSpriteCollision(t *testing.T) {
	mem := &fakeMem{}
	c := Init(&ChipDef{Mode: PAL, Mem: mem})
	c.Write(0xD011, 0x10) // display enabled
	c.Write(0xD015, 0x03) // sprites 0 and 1 enabled
	c.Write(0xD000, 0)    // sprite 0 X
	c.Write(0xD001, 0)    // sprite 0 Y
	c.Write(0xD002, 0)    // sprite 1 X (same position -> guaranteed overlap)
	c.Write(0xD003, 0)    // sprite 1 Y

	screenBase := 0 // D018 left at power-on default, so screen base is bank 0.
	mem.ram[screenBase+0x3F8] = 0x10 // sprite 0 pointer -> data block at 0x10*64=0x400
	mem.ram[screenBase+0x3F9] = 0x11 // sprite 1 pointer -> data block at 0x11*64=0x440
	for i := 0; i < 3; i++ {
		mem.ram[0x400+i] = 0xFF
		mem.ram[0x440+i] = 0xFF
	}

	for line := 0; line < PAL.TotalLines; line++ {
		c.Tick(PAL.CyclesPerLine)
	}

	if c.Read(0xD01E) == 0 {
		t.Error("sprite-sprite collision register ($D01E) is zero, want overlapping sprites 0 and 1 flagged")
	}
}
