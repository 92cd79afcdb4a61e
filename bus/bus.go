// Package bus ties together RAM, the three ROM images, ColorRAM, VIC-II,
// SID and the two CIAs behind a single Read/Write entry point, routed by
// the PLA address decoder. It is the one place that understands the full
// C64 memory map; every chip gets a narrow, non-owning handle back to it
// (see Raiser) rather than a full reference, so ownership stays a tree with
// the Bus at its root, matching the "avoid cyclic ownership" guidance that
// governed the teacher's own atari2600.controller/VCS split.
package bus

import (
	"fmt"
	"log"

	"github.com/ToolSynth/c64/cia"
	"github.com/ToolSynth/c64/memory"
	"github.com/ToolSynth/c64/pla"
	"github.com/ToolSynth/c64/sid"
	"github.com/ToolSynth/c64/vic"
)

// RomImages bundles the three ROM images a Bus is constructed from. Tests
// construct this directly with in-memory byte slices rather than opening
// files; c64.Init is the only caller that reads real files from disk.
type RomImages struct {
	Kernal  []uint8 // must be exactly 8192 bytes
	Basic   []uint8 // must be exactly 8192 bytes
	Chargen []uint8 // must be exactly 4096 bytes
}

// RomLoadError reports a missing or wrong-sized ROM image.
type RomLoadError struct {
	Name string
	Got  int
	Want int
}

func (e RomLoadError) Error() string {
	return fmt.Sprintf("rom %s: got %d bytes, want %d", e.Name, e.Got, e.Want)
}

// Bus is the C64 memory map: RAM, ROM, ColorRAM and the four I/O chips,
// arbitrated by the PLA decoder according to the CPU I/O port at $0001.
type Bus struct {
	ram       *memory.RAM
	kernalROM *memory.ROM
	basicROM  *memory.ROM
	charROM   *memory.ROM
	colorRAM  *memory.ColorRAM

	VIC  *vic.Chip
	SID  *sid.Chip
	CIA1 *cia.Chip
	CIA2 *cia.Chip

	bits pla.Bits // last value written to $0001, decoded

	debug bool
}

var _ memory.Bank = (*Bus)(nil)

// New constructs a Bus from in-memory ROM images and powers on every chip.
// Use this (rather than a file-based constructor) from tests; c64.Init is
// the one caller that reads ROM bytes off disk before calling this.
func New(roms RomImages, mode vic.Mode, debug bool) (*Bus, error) {
	if len(roms.Kernal) != 8192 {
		return nil, RomLoadError{Name: "kernal", Got: len(roms.Kernal), Want: 8192}
	}
	if len(roms.Basic) != 8192 {
		return nil, RomLoadError{Name: "basic", Got: len(roms.Basic), Want: 8192}
	}
	if len(roms.Chargen) != 4096 {
		return nil, RomLoadError{Name: "chargen", Got: len(roms.Chargen), Want: 4096}
	}

	ram, err := memory.NewRAM(1 << 16)
	if err != nil {
		return nil, fmt.Errorf("can't allocate RAM: %w", err)
	}

	b := &Bus{
		ram:       ram,
		kernalROM: memory.NewROM(roms.Kernal, 0xE000),
		basicROM:  memory.NewROM(roms.Basic, 0xA000),
		charROM:   memory.NewROM(roms.Chargen, 0x1000),
		colorRAM:  memory.NewColorRAM(),
		SID:       sid.Init(),
		debug:     debug,
	}
	b.VIC = vic.Init(&vic.ChipDef{Mode: mode, Mem: b})
	b.CIA1 = cia.Init(&cia.ChipDef{Name: "CIA1", Raiser: b, Debug: debug})
	b.CIA2 = cia.Init(&cia.ChipDef{Name: "CIA2", Raiser: b, Debug: debug})
	b.PowerOn()
	return b, nil
}

// PowerOn implements memory.Bank: resets RAM and ColorRAM contents and the
// bank-control bits to the CPU reset default ($37: LORAM=HIRAM=1, CHAREN=1).
func (b *Bus) PowerOn() {
	b.ram.PowerOn()
	b.colorRAM.PowerOn()
	b.bits = pla.FromValue(0x37)
	b.ram.Write(0x0001, 0x37)
}

// Read implements memory.Bank, routing through the PLA decoder. ROM reads
// return the ROM byte (the canonical hardware behavior spec.md's Open
// Questions section asks for, over the unconditional always-shadow-RAM
// choice the original source made).
func (b *Bus) Read(addr uint16) uint8 {
	switch pla.Decode(addr, b.bits) {
	case pla.OwnerKernalROM:
		return b.kernalROM.Read(addr)
	case pla.OwnerBasicROM:
		return b.basicROM.Read(addr)
	case pla.OwnerCharROM:
		return b.charROM.Read(addr)
	case pla.OwnerVIC:
		return b.VIC.Read(addr)
	case pla.OwnerSID:
		return b.SID.Read(addr)
	case pla.OwnerColorRAM:
		return b.colorRAM.Read(addr)
	case pla.OwnerCIA1:
		return b.CIA1.Read(addr)
	case pla.OwnerCIA2:
		return b.CIA2.Read(addr)
	default:
		return b.ram.Read(addr)
	}
}

// Write implements memory.Bank. $0001 is special-cased: it updates the
// bank-control bits atomically with the underlying RAM byte, so reads
// immediately after observe the new banking as spec.md's bus invariant
// requires. Any other write whose decoded owner is a ROM is redirected to
// shadow RAM at the same address.
func (b *Bus) Write(addr uint16, val uint8) {
	if addr == 0x0001 {
		b.bits = pla.FromValue(val)
		b.ram.Write(addr, val)
		return
	}

	switch pla.Decode(addr, b.bits) {
	case pla.OwnerKernalROM, pla.OwnerBasicROM, pla.OwnerCharROM:
		b.ram.Write(addr, val)
	case pla.OwnerVIC:
		b.VIC.Write(addr, val)
	case pla.OwnerSID:
		b.SID.Write(addr, val)
	case pla.OwnerColorRAM:
		b.colorRAM.Write(addr, val)
	case pla.OwnerCIA1:
		b.CIA1.Write(addr, val)
	case pla.OwnerCIA2:
		b.CIA2.Write(addr, val)
	default:
		b.ram.Write(addr, val)
	}
}

// Raw implements memory.Bank, exposing the 64KiB flat RAM array for the
// VIC-II renderer's bank-relative reads.
func (b *Bus) Raw() []uint8 { return b.ram.Raw() }

// ColorRAM exposes the color RAM bank directly.
func (b *Bus) ColorRAM() *memory.ColorRAM { return b.colorRAM }

// ColorRAMRaw implements vic.Mem, exposing the 1024-nibble color RAM as a
// flat byte slice for the renderer's per-cell color lookups.
func (b *Bus) ColorRAMRaw() []uint8 { return b.colorRAM.Raw() }

// ReadVICMem reads character/glyph data at a VIC-bank-relative offset (the
// "read_chargen" path: offsets $1000-$1FFF within the current bank always
// see CHARGEN regardless of the CPU's CHAREN bit, since the VIC and CPU have
// independent views of memory through the same physical chip select lines;
// everything else is plain RAM at bank+offset). Glyph and sprite data are
// read through here; screen codes and sprite pointers are never
// CHARGEN-shadowed, so the VIC reads those directly through Raw() at an
// address it has already added VICBank() into itself.
func (b *Bus) ReadVICMem(bankRelative uint16) uint8 {
	bankRelative &= 0x3FFF
	if bankRelative >= 0x1000 && bankRelative < 0x2000 {
		return b.charROM.Read(0x1000 + (bankRelative & 0x0FFF))
	}
	return b.ram.Read(b.VICBank() + bankRelative)
}

// VICBank reports the 16KiB VIC-II address window selected by CIA2 port A
// bits 0-1 (inverted: 00 selects the highest bank).
func (b *Bus) VICBank() uint16 {
	return uint16((^b.CIA2.ReadPortA())&0x03) << 14
}

// TriggerIRQ is called by VIC/CIA chips whenever their own state transitions
// into an interrupt-asserting condition. The actual IRQ line sampled by the
// CPU is level-driven (see IRQRaised): this hook exists for symmetry with
// the chips' own debug logging and so no chip needs a wider view of the Bus
// than "somewhere to report this event".
func (b *Bus) TriggerIRQ() {
	if b.debug {
		log.Println("bus: IRQ line asserted")
	}
}

// IRQRaised implements irq.Sender for the CPU's IRQ input: true whenever any
// chip's interrupt-flag register currently holds an enabled, unacknowledged
// condition. It is level-triggered, matching real 6510 wiring: an
// interrupt handler that doesn't acknowledge its source will be re-entered
// the instant RTI clears the I flag.
func (b *Bus) IRQRaised() bool {
	return b.CIA1.InterruptPending() || b.CIA2.InterruptPending() || b.VIC.InterruptPending()
}

// NMIRaised implements irq.Sender for the CPU's NMI input. No chip in this
// core drives NMI (no cartridge/RESTORE-key line is modeled), so this is
// always false; it exists as the seam a future host collaborator (RESTORE
// key, cartridge FREEZE line) would hang off.
func (b *Bus) NMIRaised() bool { return false }

// irqSender and nmiSender adapt Bus's two distinct interrupt lines to the
// single-method irq.Sender interface the CPU expects for each input.
type irqSender struct{ b *Bus }

func (s irqSender) Raised() bool { return s.b.IRQRaised() }

type nmiSender struct{ b *Bus }

func (s nmiSender) Raised() bool { return s.b.NMIRaised() }

// IRQ returns an irq.Sender wired to this Bus's aggregated IRQ line.
func (b *Bus) IRQ() irqSender { return irqSender{b} }

// NMI returns an irq.Sender wired to this Bus's NMI line.
func (b *Bus) NMI() nmiSender { return nmiSender{b} }
