// Package cia implements the 6526 Complex Interface Adapter used twice in a
// C64 (CIA1 drives the keyboard matrix and joystick port 1, CIA2 drives the
// serial bus, joystick port 2, and the VIC-II bank select latch). Both
// instances share one design: port A/B with DDR latches, two independent
// down-counting timers, and a combined interrupt-flag register.
package cia

import (
	"log"

	"github.com/ToolSynth/c64/io"
)

// IRQRaiser is the non-owning handle back to whatever aggregates this
// chip's interrupt line (bus.Bus in production, a stub in tests).
type IRQRaiser interface {
	TriggerIRQ()
}

// Timer is one of a CIA's two independent down-counters. value is kept as
// a signed 32-bit intermediate (spec calls for "signed 17-bit"; int32 gives
// headroom without any wraparound surprise) so underflow can be detected
// with a simple comparison before reloading.
type Timer struct {
	value   int32
	reload  uint16
	running bool
	irqBit  uint8
	pending bool
	control uint8
}

func (t *Timer) lowByte() uint8  { return uint8(t.value) }
func (t *Timer) highByte() uint8 { return uint8(t.value >> 8) }

func (t *Timer) writeReloadLow(v uint8) {
	t.reload = (t.reload & 0xFF00) | uint16(v)
}

func (t *Timer) writeReloadHigh(v uint8) {
	t.reload = (t.reload & 0x00FF) | (uint16(v) << 8)
}

// writeControl applies a CRA/CRB write: bit 4 (FORCE LOAD) copies reload
// into the live countdown immediately; bit 0 (START) gates running. The
// whole byte is latched so a guest reading CRA/CRB back sees what it wrote.
func (t *Timer) writeControl(v uint8) {
	if v&0x10 != 0 {
		t.value = int32(t.reload)
	}
	t.running = v&0x01 != 0
	t.control = v
}

func (t *Timer) controlRegister() uint8 { return t.control }

// tick subtracts delta from the countdown while running, reloading and
// flagging an interrupt on underflow (value <= 0), per spec.md 4.4.
func (t *Timer) tick(delta int) {
	if !t.running {
		return
	}
	t.value -= int32(delta)
	if t.value <= 0 {
		t.value += int32(t.reload)
		t.pending = true
	}
}

// Chip implements one CIA's full register file: ports, DDRs, two timers and
// the combined interrupt-flag register.
type Chip struct {
	name   string
	raiser IRQRaiser
	debug  bool

	ddrA, ddrB     uint8
	latchA, latchB uint8
	inputA, inputB io.Port8

	timerA, timerB Timer
	interruptFlags uint8
}

// ChipDef configures a Chip at construction.
type ChipDef struct {
	Name   string
	Raiser IRQRaiser
	// InputA/InputB supply external port state on bits where the DDR marks
	// the pin as input (keyboard matrix columns, joystick lines). Both may
	// be nil; undriven input bits then read as pulled-up 1s.
	InputA, InputB io.Port8
	Debug          bool
}

// Init constructs a powered-on Chip.
func Init(def *ChipDef) *Chip {
	c := &Chip{
		name:   def.Name,
		raiser: def.Raiser,
		inputA: def.InputA,
		inputB: def.InputB,
		debug:  def.Debug,
	}
	c.timerA.irqBit = 0
	c.timerB.irqBit = 1
	c.PowerOn()
	return c
}

// PowerOn resets port latches to all-high (matching the pull-ups seen
// before any software has configured the DDRs) and clears both timers.
func (c *Chip) PowerOn() {
	c.ddrA, c.ddrB = 0, 0
	c.latchA, c.latchB = 0xFF, 0xFF
	c.timerA = Timer{irqBit: 0}
	c.timerB = Timer{irqBit: 1}
	c.interruptFlags = 0
}

func readPort(ddr, latch uint8, input io.Port8) uint8 {
	out := latch & ddr
	if input != nil {
		out |= input.Input() &^ ddr
	} else {
		out |= ^ddr
	}
	return out
}

// ReadPortA returns the current value of port A accounting for DDR and any
// external input source. Exported because CIA2 port A also feeds the
// VIC-II bank-select latch (bus.Bus.VICBank).
func (c *Chip) ReadPortA() uint8 { return readPort(c.ddrA, c.latchA, c.inputA) }

// ReadPortB returns the current value of port B, same rules as ReadPortA.
func (c *Chip) ReadPortB() uint8 { return readPort(c.ddrB, c.latchB, c.inputB) }

func (c *Chip) writePortA(v uint8) { c.latchA = (c.latchA &^ c.ddrA) | (v & c.ddrA) }
func (c *Chip) writePortB(v uint8) { c.latchB = (c.latchB &^ c.ddrB) | (v & c.ddrB) }

// Read implements memory.Bank-shaped register access (through bus.Bus,
// which narrows the full 16-bit address to this chip's 16-register space).
func (c *Chip) Read(addr uint16) uint8 {
	switch addr & 0x0F {
	case 0x00:
		return c.ReadPortA()
	case 0x01:
		return c.ReadPortB()
	case 0x02:
		return c.ddrA
	case 0x03:
		return c.ddrB
	case 0x04:
		return c.timerA.lowByte()
	case 0x05:
		return c.timerA.highByte()
	case 0x06:
		return c.timerB.lowByte()
	case 0x07:
		return c.timerB.highByte()
	case 0x0D:
		return c.interruptFlags
	case 0x0E:
		return c.timerA.controlRegister()
	case 0x0F:
		return c.timerB.controlRegister()
	default:
		return 0x00
	}
}

// Write implements register access for the same 16-register space as Read.
func (c *Chip) Write(addr uint16, val uint8) {
	switch addr & 0x0F {
	case 0x00:
		c.writePortA(val)
	case 0x01:
		c.writePortB(val)
	case 0x02:
		c.ddrA = val
	case 0x03:
		c.ddrB = val
	case 0x04:
		c.timerA.writeReloadLow(val)
	case 0x05:
		c.timerA.writeReloadHigh(val)
	case 0x06:
		c.timerB.writeReloadLow(val)
	case 0x07:
		c.timerB.writeReloadHigh(val)
	case 0x0D:
		// Write-1-to-clear: a set bit in val clears the matching flag.
		c.interruptFlags &^= val
	case 0x0E:
		c.timerA.writeControl(val)
	case 0x0F:
		c.timerB.writeControl(val)
	}
	if c.debug {
		log.Printf("%s: write $%02X <- $%02X", c.name, addr&0x0F, val)
	}
}

// Tick advances both timers by delta cycles and raises the Bus IRQ line the
// instant either one underflows, reloading it in the same step.
func (c *Chip) Tick(delta int) {
	c.timerA.tick(delta)
	c.timerB.tick(delta)

	if c.timerA.pending {
		c.interruptFlags |= 1 << c.timerA.irqBit
		c.timerA.pending = false
		c.raiser.TriggerIRQ()
	}
	if c.timerB.pending {
		c.interruptFlags |= 1 << c.timerB.irqBit
		c.timerB.pending = false
		c.raiser.TriggerIRQ()
	}
}

// InterruptPending reports whether this chip currently holds any
// unacknowledged interrupt flag, i.e. whether it is asserting the shared
// IRQ line.
func (c *Chip) InterruptPending() bool { return c.interruptFlags != 0 }
