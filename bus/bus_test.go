package bus

import (
	"testing"

	"github.com/ToolSynth/c64/vic"
)

func testRoms() RomImages {
	kernal := make([]uint8, 8192)
	basic := make([]uint8, 8192)
	chargen := make([]uint8, 4096)
	for i := range kernal {
		kernal[i] = 0x11
	}
	for i := range basic {
		basic[i] = 0x22
	}
	for i := range chargen {
		chargen[i] = 0x33
	}
	return RomImages{Kernal: kernal, Basic: basic, Chargen: chargen}
}

func TestNewRejectsWrongSizedRoms(t *testing.T) {
	roms := testRoms()
	roms.Kernal = roms.Kernal[:100]
	if _, err := New(roms, vic.PAL, false); err == nil {
		t.Fatal("New succeeded with a truncated KERNAL image, want RomLoadError")
	}
}

func TestDefaultBankingExposesAllThreeRoms(t *testing.T) {
	b, err := New(testRoms(), vic.PAL, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := b.Read(0xE000); got != 0x11 {
		t.Errorf("Read(0xE000) = %#02x, want 0x11 (KERNAL)", got)
	}
	if got := b.Read(0xA000); got != 0x22 {
		t.Errorf("Read(0xA000) = %#02x, want 0x22 (BASIC)", got)
	}
	b.Write(0x0001, 0x33) // CHAREN=0: CHARGEN visible at $D000
	if got := b.Read(0xD000); got != 0x33 {
		t.Errorf("Read(0xD000) after CHAREN=0 = %#02x, want 0x33 (CHARGEN)", got)
	}
}

func TestROMWritesShadowToRAM(t *testing.T) {
	b, err := New(testRoms(), vic.PAL, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Write(0xE000, 0xAB) // targets KERNAL space, must be redirected to RAM
	if got := b.Read(0xE000); got != 0x11 {
		t.Errorf("Read(0xE000) after shadow write = %#02x, want 0x11 (ROM reads win over the RAM shadow)", got)
	}
	b.Write(0x0001, 0x30) // LORAM=HIRAM=0: both ROMs switched out, $E000 now RAM
	if got := b.Read(0xE000); got != 0xAB {
		t.Errorf("Read(0xE000) with ROMs banked out = %#02x, want 0xAB (the earlier shadow write)", got)
	}
}

func TestIOPortReadBack(t *testing.T) {
	b, err := New(testRoms(), vic.PAL, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Write(0x0001, 0x35)
	if got := b.Read(0x0001); got != 0x35 {
		t.Errorf("Read(0x0001) = %#02x, want 0x35", got)
	}
}

func TestVICBankFollowsCIA2PortA(t *testing.T) {
	b, err := New(testRoms(), vic.PAL, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.CIA2.Write(0x02, 0x03) // DDRA: bits 0-1 output
	b.CIA2.Write(0x00, 0x00) // value 00 -> inverted -> bank 3 ($C000)
	if got := b.VICBank(); got != 0xC000 {
		t.Errorf("VICBank() = %#04x, want 0xC000", got)
	}
	b.CIA2.Write(0x00, 0x03) // value 11 -> inverted -> bank 0
	if got := b.VICBank(); got != 0x0000 {
		t.Errorf("VICBank() = %#04x, want 0x0000", got)
	}
}

func TestReadVICMemChargenWindowIgnoresCharen(t *testing.T) {
	b, err := New(testRoms(), vic.PAL, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// CPU-side CHAREN=1 hides CHARGEN from the CPU, but the VIC's own
	// bank-relative view always sees it in the $1000-$1FFF window.
	b.Write(0x0001, 0x37)
	if got := b.ReadVICMem(0x1000); got != 0x33 {
		t.Errorf("ReadVICMem(0x1000) = %#02x, want 0x33 (CHARGEN)", got)
	}
}

func TestReadVICMemAddsBankForRAM(t *testing.T) {
	b, err := New(testRoms(), vic.PAL, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.CIA2.Write(0x02, 0x03)
	b.CIA2.Write(0x00, 0x00) // bank 3: $C000
	b.ram.Write(0xC500, 0x77)
	if got := b.ReadVICMem(0x0500); got != 0x77 {
		t.Errorf("ReadVICMem(0x0500) at bank 3 = %#02x, want 0x77", got)
	}
}

func TestIRQRaisedAggregatesChips(t *testing.T) {
	b, err := New(testRoms(), vic.PAL, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.IRQRaised() {
		t.Fatal("IRQRaised() = true before any chip has an interrupt pending")
	}
	b.CIA1.Write(0x04, 0x01)
	b.CIA1.Write(0x05, 0x00)
	b.CIA1.Write(0x0E, 0x11)
	b.CIA1.Tick(1)
	if !b.IRQRaised() {
		t.Error("IRQRaised() = false after CIA1 Timer A underflow, want true")
	}
}
