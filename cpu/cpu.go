// Package cpu implements the MOS 6510: the documented 6502 instruction set
// plus the CPU I/O port shadow at $0000/$0001. Unlike a per-tick state
// machine, Step executes one full instruction per call and returns the
// number of cycles it cost, matching the single-threaded cooperative step
// loop the rest of the core is built around.
package cpu

import (
	"errors"
	"fmt"

	"github.com/ToolSynth/c64/irq"
	"github.com/ToolSynth/c64/memory"
)

// errUnknownOpcode is execute's internal signal for a byte outside the
// documented instruction set; Step converts it to InvalidOpcode with the
// fetch PC attached.
var errUnknownOpcode = errors.New("unknown opcode")

const (
	NMIVector   = uint16(0xFFFA)
	ResetVector = uint16(0xFFFC)
	IRQVector   = uint16(0xFFFE)

	PNegative  = uint8(0x80)
	POverflow  = uint8(0x40)
	PUnused    = uint8(0x20) // Always reads as 1.
	PBreak     = uint8(0x10) // Set by Reset and in the copy pushed by BRK/PHP; PLP/RTI clear it.
	PDecimal   = uint8(0x08)
	PInterrupt = uint8(0x04)
	PZero      = uint8(0x02)
	PCarry     = uint8(0x01)
)

// InvalidOpcode is raised when Step decodes a byte outside the documented
// 151-opcode set. Fatal: guest programs never observe this as a trapped
// exception, it halts the emulator.
type InvalidOpcode struct {
	Opcode uint8
	PC     uint16
}

func (e InvalidOpcode) Error() string {
	return fmt.Sprintf("invalid opcode $%02X at $%04X", e.Opcode, e.PC)
}

// StackUnderflow is raised by RTS/PLA/PLP when SP is already $FF before the
// pull, i.e. the guest program popped more than it pushed.
type StackUnderflow struct {
	Op string
}

func (e StackUnderflow) Error() string {
	return fmt.Sprintf("stack underflow during %s", e.Op)
}

// Chip is a 6510: 6502 registers plus the I/O port shadow used by the bus's
// PLA decoder.
type Chip struct {
	A, X, Y uint8
	S       uint8
	P       uint8
	PC      uint16

	ioPort uint8 // last value written to $0001, mirrored for debug/introspection.

	bus memory.Bank
	irq irq.Sender
	nmi irq.Sender

	prevNMI bool

	Cycles uint64
}

// ChipDef configures a Chip at construction.
type ChipDef struct {
	Bus memory.Bank
	Irq irq.Sender
	Nmi irq.Sender
}

// Init constructs a Chip and performs power-on reset.
func Init(def *ChipDef) (*Chip, error) {
	if def.Bus == nil {
		return nil, fmt.Errorf("cpu.Init: Bus must not be nil")
	}
	c := &Chip{bus: def.Bus, irq: def.Irq, nmi: def.Nmi}
	c.Reset()
	return c, nil
}

// Reset matches the component design's power-on sequence: SP=$FF, A=X=Y=0,
// P=$34, $0001 written with the default bank value $37, PC loaded from the
// reset vector.
func (c *Chip) Reset() {
	c.S = 0xFF
	c.A, c.X, c.Y = 0, 0, 0
	c.P = PUnused | PBreak | PInterrupt
	c.ioPort = 0x37
	c.bus.Write(0x0001, 0x37)
	c.PC = c.read16(ResetVector)
}

func (c *Chip) read(addr uint16) uint8 { return c.bus.Read(addr) }

func (c *Chip) write(addr uint16, v uint8) {
	if addr == 0x0001 {
		c.ioPort = v
	}
	c.bus.Write(addr, v)
}
func (c *Chip) read16(addr uint16) uint16 {
	lo := c.read(addr)
	hi := c.read(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

// IOPort returns the shadow copy of the last value written to $0001, the
// three low bits of which drive the PLA's bank selection.
func (c *Chip) IOPort() uint8 { return c.ioPort }

func (c *Chip) fetch() uint8 {
	v := c.read(c.PC)
	c.PC++
	return v
}

func (c *Chip) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(lo) | uint16(hi)<<8
}

func pageCrossed(base, addr uint16) bool { return base&0xFF00 != addr&0xFF00 }

func (c *Chip) push(v uint8) {
	c.write(0x0100+uint16(c.S), v)
	c.S--
}

func (c *Chip) pop() uint8 {
	c.S++
	return c.read(0x0100 + uint16(c.S))
}

func (c *Chip) popChecked(op string) (uint8, error) {
	if c.S == 0xFF {
		return 0, StackUnderflow{Op: op}
	}
	return c.pop(), nil
}

// Step executes one interrupt-service or instruction step and returns the
// number of cycles it consumed. IRQ/NMI are sampled here, before the next
// opcode fetch, never mid-instruction, per the core's ordering guarantee.
func (c *Chip) Step() (int, error) {
	if c.nmi != nil {
		cur := c.nmi.Raised()
		edge := cur && !c.prevNMI
		c.prevNMI = cur
		if edge {
			cycles := c.serviceInterrupt(NMIVector)
			c.Cycles += uint64(cycles)
			return cycles, nil
		}
	}
	if c.irq != nil && c.irq.Raised() && c.P&PInterrupt == 0 {
		cycles := c.serviceInterrupt(IRQVector)
		c.Cycles += uint64(cycles)
		return cycles, nil
	}

	pc := c.PC
	op := c.fetch()
	cycles, err := c.execute(op)
	if err != nil {
		if errors.Is(err, errUnknownOpcode) {
			return 0, InvalidOpcode{Opcode: op, PC: pc}
		}
		return 0, err
	}
	c.Cycles += uint64(cycles)
	return cycles, nil
}

// serviceInterrupt pushes PC/P and loads PC from vector, per the component
// design's irq()/nmi() sequences.
func (c *Chip) serviceInterrupt(vector uint16) int {
	c.push(uint8(c.PC >> 8))
	c.push(uint8(c.PC))
	push := c.P | PUnused
	push &^= PBreak
	c.push(push)
	c.P |= PInterrupt
	c.PC = c.read16(vector)
	return 7
}

// --- flag helpers, grounded on the teacher's zeroCheck/negativeCheck/
// carryCheck/overflowCheck but operating on explicit values rather than
// a shared opVal field. ---

func (c *Chip) zeroCheck(v uint8) {
	c.P &^= PZero
	if v == 0 {
		c.P |= PZero
	}
}

func (c *Chip) negativeCheck(v uint8) {
	c.P &^= PNegative
	if v&PNegative != 0 {
		c.P |= PNegative
	}
}

func (c *Chip) carryCheck(res uint16) {
	c.P &^= PCarry
	if res >= 0x100 {
		c.P |= PCarry
	}
}

func (c *Chip) setCarry(v bool) {
	c.P &^= PCarry
	if v {
		c.P |= PCarry
	}
}

func (c *Chip) overflowCheck(a, m, res uint8) {
	c.P &^= POverflow
	if (a^res)&(m^res)&0x80 != 0 {
		c.P |= POverflow
	}
}

func (c *Chip) setReg(reg *uint8, v uint8) {
	*reg = v
	c.zeroCheck(v)
	c.negativeCheck(v)
}

// --- addressing modes: each returns the effective address and whether an
// indexed read crossed a page, per the component design's page-crossing
// rule. ---

func (c *Chip) addrImmediate() uint16 {
	addr := c.PC
	c.PC++
	return addr
}

func (c *Chip) addrZP() uint16 { return uint16(c.fetch()) }

func (c *Chip) addrZPX() uint16 { return uint16(c.fetch() + c.X) }

func (c *Chip) addrZPY() uint16 { return uint16(c.fetch() + c.Y) }

func (c *Chip) addrAbs() uint16 { return c.fetch16() }

func (c *Chip) addrAbsX() (uint16, bool) {
	base := c.fetch16()
	addr := base + uint16(c.X)
	return addr, pageCrossed(base, addr)
}

func (c *Chip) addrAbsY() (uint16, bool) {
	base := c.fetch16()
	addr := base + uint16(c.Y)
	return addr, pageCrossed(base, addr)
}

// addrIndX implements (zp,X): preindexed indirect.
func (c *Chip) addrIndX() uint16 {
	zp := c.fetch() + c.X
	lo := c.read(uint16(zp))
	hi := c.read(uint16(zp + 1))
	return uint16(lo) | uint16(hi)<<8
}

// addrIndY implements (zp),Y: postindexed indirect.
func (c *Chip) addrIndY() (uint16, bool) {
	zp := c.fetch()
	lo := c.read(uint16(zp))
	hi := c.read(uint16(zp + 1))
	base := uint16(lo) | uint16(hi)<<8
	addr := base + uint16(c.Y)
	return addr, pageCrossed(base, addr)
}

// --- shift/rotate helpers shared by accumulator and memory forms. ---

func (c *Chip) asl(v uint8) uint8 {
	c.carryCheck(uint16(v) << 1)
	r := v << 1
	c.zeroCheck(r)
	c.negativeCheck(r)
	return r
}

func (c *Chip) lsr(v uint8) uint8 {
	c.setCarry(v&0x01 != 0)
	r := v >> 1
	c.zeroCheck(r)
	c.negativeCheck(r)
	return r
}

func (c *Chip) rol(v uint8) uint8 {
	carryIn := c.P & PCarry
	c.setCarry(v&0x80 != 0)
	r := (v << 1) | carryIn
	c.zeroCheck(r)
	c.negativeCheck(r)
	return r
}

func (c *Chip) ror(v uint8) uint8 {
	carryIn := c.P & PCarry
	c.setCarry(v&0x01 != 0)
	r := (v >> 1) | (carryIn << 7)
	c.zeroCheck(r)
	c.negativeCheck(r)
	return r
}

func (c *Chip) bit(v uint8) {
	c.zeroCheck(c.A & v)
	c.negativeCheck(v)
	c.P &^= POverflow
	if v&POverflow != 0 {
		c.P |= POverflow
	}
}

func (c *Chip) compare(reg, v uint8) {
	r := reg - v
	c.zeroCheck(r)
	c.negativeCheck(r)
	c.setCarry(reg >= v)
}

// adc implements ADC, grounded on the teacher's iADC: the BCD fixup
// algorithm is unchanged, just parameterised on v instead of a shared
// opVal field.
func (c *Chip) adc(v uint8) {
	carry := c.P & PCarry

	if c.P&PDecimal != 0 {
		aL := (c.A & 0x0F) + (v & 0x0F) + carry
		if aL >= 0x0A {
			aL = ((aL + 0x06) & 0x0F) + 0x10
		}
		sum := uint16(c.A&0xF0) + uint16(v&0xF0) + uint16(aL)
		if sum >= 0xA0 {
			sum += 0x60
		}
		res := uint8(sum & 0xFF)
		seq := (c.A & 0xF0) + (v & 0xF0) + aL
		bin := c.A + v + carry
		c.overflowCheck(c.A, v, seq)
		c.carryCheck(sum)
		c.negativeCheck(seq)
		c.zeroCheck(bin)
		c.A = res
		return
	}

	sum := c.A + v + carry
	c.overflowCheck(c.A, v, sum)
	c.carryCheck(uint16(c.A) + uint16(v) + uint16(carry))
	c.setReg(&c.A, sum)
}

// sbc implements SBC: decimal mode follows the teacher's iSBC fixup;
// binary mode reuses adc with the operand ones-complemented, which the
// component design notes yields identical observable results.
func (c *Chip) sbc(v uint8) {
	if c.P&PDecimal != 0 {
		carry := c.P & PCarry
		aL := int8(c.A&0x0F) - int8(v&0x0F) + int8(carry) - 1
		if aL < 0 {
			aL = ((aL - 0x06) & 0x0F) - 0x10
		}
		sum := int16(c.A&0xF0) - int16(v&0xF0) + int16(aL)
		if sum < 0x0000 {
			sum -= 0x60
		}
		res := uint8(sum & 0xFF)

		b := c.A + ^v + carry
		c.overflowCheck(c.A, ^v, b)
		c.negativeCheck(b)
		c.carryCheck(uint16(c.A) + uint16(^v) + uint16(carry))
		c.zeroCheck(b)
		c.A = res
		return
	}
	c.adc(^v)
}

// branch reads the relative operand, applies it when cond is true, and
// returns the instruction's total cycle cost including the taken/page-cross
// penalties the component design specifies.
func (c *Chip) branch(cond bool) int {
	offset := int8(c.fetch())
	if !cond {
		return 2
	}
	oldPC := c.PC
	newPC := uint16(int32(c.PC) + int32(offset))
	c.PC = newPC
	if pageCrossed(oldPC, newPC) {
		return 4
	}
	return 3
}

// execute dispatches a single documented opcode and returns its cycle
// cost. Any opcode not in the documented 151-instruction set is reported as
// an error by the caller (Step), which wraps it in InvalidOpcode with PC
// context.
func (c *Chip) execute(op uint8) (int, error) {
	switch op {

	// --- load/store ---
	case 0xA9: // LDA #i
		c.setReg(&c.A, c.read(c.addrImmediate()))
		return 2, nil
	case 0xA5: // LDA d
		c.setReg(&c.A, c.read(c.addrZP()))
		return 3, nil
	case 0xB5: // LDA d,x
		c.setReg(&c.A, c.read(c.addrZPX()))
		return 4, nil
	case 0xAD: // LDA a
		c.setReg(&c.A, c.read(c.addrAbs()))
		return 4, nil
	case 0xBD: // LDA a,x
		addr, cross := c.addrAbsX()
		c.setReg(&c.A, c.read(addr))
		return cycles(4, cross), nil
	case 0xB9: // LDA a,y
		addr, cross := c.addrAbsY()
		c.setReg(&c.A, c.read(addr))
		return cycles(4, cross), nil
	case 0xA1: // LDA (d,x)
		c.setReg(&c.A, c.read(c.addrIndX()))
		return 6, nil
	case 0xB1: // LDA (d),y
		addr, cross := c.addrIndY()
		c.setReg(&c.A, c.read(addr))
		return cycles(5, cross), nil

	case 0xA2: // LDX #i
		c.setReg(&c.X, c.read(c.addrImmediate()))
		return 2, nil
	case 0xA6: // LDX d
		c.setReg(&c.X, c.read(c.addrZP()))
		return 3, nil
	case 0xB6: // LDX d,y
		c.setReg(&c.X, c.read(c.addrZPY()))
		return 4, nil
	case 0xAE: // LDX a
		c.setReg(&c.X, c.read(c.addrAbs()))
		return 4, nil
	case 0xBE: // LDX a,y
		addr, cross := c.addrAbsY()
		c.setReg(&c.X, c.read(addr))
		return cycles(4, cross), nil

	case 0xA0: // LDY #i
		c.setReg(&c.Y, c.read(c.addrImmediate()))
		return 2, nil
	case 0xA4: // LDY d
		c.setReg(&c.Y, c.read(c.addrZP()))
		return 3, nil
	case 0xB4: // LDY d,x
		c.setReg(&c.Y, c.read(c.addrZPX()))
		return 4, nil
	case 0xAC: // LDY a
		c.setReg(&c.Y, c.read(c.addrAbs()))
		return 4, nil
	case 0xBC: // LDY a,x
		addr, cross := c.addrAbsX()
		c.setReg(&c.Y, c.read(addr))
		return cycles(4, cross), nil

	case 0x85: // STA d
		c.write(c.addrZP(), c.A)
		return 3, nil
	case 0x95: // STA d,x
		c.write(c.addrZPX(), c.A)
		return 4, nil
	case 0x8D: // STA a
		c.write(c.addrAbs(), c.A)
		return 4, nil
	case 0x9D: // STA a,x
		addr, _ := c.addrAbsX()
		c.write(addr, c.A)
		return 5, nil
	case 0x99: // STA a,y
		addr, _ := c.addrAbsY()
		c.write(addr, c.A)
		return 5, nil
	case 0x81: // STA (d,x)
		c.write(c.addrIndX(), c.A)
		return 6, nil
	case 0x91: // STA (d),y
		addr, _ := c.addrIndY()
		c.write(addr, c.A)
		return 6, nil

	case 0x86: // STX d
		c.write(c.addrZP(), c.X)
		return 3, nil
	case 0x96: // STX d,y
		c.write(c.addrZPY(), c.X)
		return 4, nil
	case 0x8E: // STX a
		c.write(c.addrAbs(), c.X)
		return 4, nil

	case 0x84: // STY d
		c.write(c.addrZP(), c.Y)
		return 3, nil
	case 0x94: // STY d,x
		c.write(c.addrZPX(), c.Y)
		return 4, nil
	case 0x8C: // STY a
		c.write(c.addrAbs(), c.Y)
		return 4, nil

	// --- arithmetic ---
	case 0x69: // ADC #i
		c.adc(c.read(c.addrImmediate()))
		return 2, nil
	case 0x65: // ADC d
		c.adc(c.read(c.addrZP()))
		return 3, nil
	case 0x75: // ADC d,x
		c.adc(c.read(c.addrZPX()))
		return 4, nil
	case 0x6D: // ADC a
		c.adc(c.read(c.addrAbs()))
		return 4, nil
	case 0x7D: // ADC a,x
		addr, cross := c.addrAbsX()
		c.adc(c.read(addr))
		return cycles(4, cross), nil
	case 0x79: // ADC a,y
		addr, cross := c.addrAbsY()
		c.adc(c.read(addr))
		return cycles(4, cross), nil
	case 0x61: // ADC (d,x)
		c.adc(c.read(c.addrIndX()))
		return 6, nil
	case 0x71: // ADC (d),y
		addr, cross := c.addrIndY()
		c.adc(c.read(addr))
		return cycles(5, cross), nil

	case 0xE9: // SBC #i
		c.sbc(c.read(c.addrImmediate()))
		return 2, nil
	case 0xE5: // SBC d
		c.sbc(c.read(c.addrZP()))
		return 3, nil
	case 0xF5: // SBC d,x
		c.sbc(c.read(c.addrZPX()))
		return 4, nil
	case 0xED: // SBC a
		c.sbc(c.read(c.addrAbs()))
		return 4, nil
	case 0xFD: // SBC a,x
		addr, cross := c.addrAbsX()
		c.sbc(c.read(addr))
		return cycles(4, cross), nil
	case 0xF9: // SBC a,y
		addr, cross := c.addrAbsY()
		c.sbc(c.read(addr))
		return cycles(4, cross), nil
	case 0xE1: // SBC (d,x)
		c.sbc(c.read(c.addrIndX()))
		return 6, nil
	case 0xF1: // SBC (d),y
		addr, cross := c.addrIndY()
		c.sbc(c.read(addr))
		return cycles(5, cross), nil

	case 0xC9: // CMP #i
		c.compare(c.A, c.read(c.addrImmediate()))
		return 2, nil
	case 0xC5: // CMP d
		c.compare(c.A, c.read(c.addrZP()))
		return 3, nil
	case 0xD5: // CMP d,x
		c.compare(c.A, c.read(c.addrZPX()))
		return 4, nil
	case 0xCD: // CMP a
		c.compare(c.A, c.read(c.addrAbs()))
		return 4, nil
	case 0xDD: // CMP a,x
		addr, cross := c.addrAbsX()
		c.compare(c.A, c.read(addr))
		return cycles(4, cross), nil
	case 0xD9: // CMP a,y
		addr, cross := c.addrAbsY()
		c.compare(c.A, c.read(addr))
		return cycles(4, cross), nil
	case 0xC1: // CMP (d,x)
		c.compare(c.A, c.read(c.addrIndX()))
		return 6, nil
	case 0xD1: // CMP (d),y
		addr, cross := c.addrIndY()
		c.compare(c.A, c.read(addr))
		return cycles(5, cross), nil

	case 0xE0: // CPX #i
		c.compare(c.X, c.read(c.addrImmediate()))
		return 2, nil
	case 0xE4: // CPX d
		c.compare(c.X, c.read(c.addrZP()))
		return 3, nil
	case 0xEC: // CPX a
		c.compare(c.X, c.read(c.addrAbs()))
		return 4, nil

	case 0xC0: // CPY #i
		c.compare(c.Y, c.read(c.addrImmediate()))
		return 2, nil
	case 0xC4: // CPY d
		c.compare(c.Y, c.read(c.addrZP()))
		return 3, nil
	case 0xCC: // CPY a
		c.compare(c.Y, c.read(c.addrAbs()))
		return 4, nil

	case 0x24: // BIT d
		c.bit(c.read(c.addrZP()))
		return 3, nil
	case 0x2C: // BIT a
		c.bit(c.read(c.addrAbs()))
		return 4, nil

	// --- logical ---
	case 0x29: // AND #i
		c.setReg(&c.A, c.A&c.read(c.addrImmediate()))
		return 2, nil
	case 0x25: // AND d
		c.setReg(&c.A, c.A&c.read(c.addrZP()))
		return 3, nil
	case 0x35: // AND d,x
		c.setReg(&c.A, c.A&c.read(c.addrZPX()))
		return 4, nil
	case 0x2D: // AND a
		c.setReg(&c.A, c.A&c.read(c.addrAbs()))
		return 4, nil
	case 0x3D: // AND a,x
		addr, cross := c.addrAbsX()
		c.setReg(&c.A, c.A&c.read(addr))
		return cycles(4, cross), nil
	case 0x39: // AND a,y
		addr, cross := c.addrAbsY()
		c.setReg(&c.A, c.A&c.read(addr))
		return cycles(4, cross), nil
	case 0x21: // AND (d,x)
		c.setReg(&c.A, c.A&c.read(c.addrIndX()))
		return 6, nil
	case 0x31: // AND (d),y
		addr, cross := c.addrIndY()
		c.setReg(&c.A, c.A&c.read(addr))
		return cycles(5, cross), nil

	case 0x09: // ORA #i
		c.setReg(&c.A, c.A|c.read(c.addrImmediate()))
		return 2, nil
	case 0x05: // ORA d
		c.setReg(&c.A, c.A|c.read(c.addrZP()))
		return 3, nil
	case 0x15: // ORA d,x
		c.setReg(&c.A, c.A|c.read(c.addrZPX()))
		return 4, nil
	case 0x0D: // ORA a
		c.setReg(&c.A, c.A|c.read(c.addrAbs()))
		return 4, nil
	case 0x1D: // ORA a,x
		addr, cross := c.addrAbsX()
		c.setReg(&c.A, c.A|c.read(addr))
		return cycles(4, cross), nil
	case 0x19: // ORA a,y
		addr, cross := c.addrAbsY()
		c.setReg(&c.A, c.A|c.read(addr))
		return cycles(4, cross), nil
	case 0x01: // ORA (d,x)
		c.setReg(&c.A, c.A|c.read(c.addrIndX()))
		return 6, nil
	case 0x11: // ORA (d),y
		addr, cross := c.addrIndY()
		c.setReg(&c.A, c.A|c.read(addr))
		return cycles(5, cross), nil

	case 0x49: // EOR #i
		c.setReg(&c.A, c.A^c.read(c.addrImmediate()))
		return 2, nil
	case 0x45: // EOR d
		c.setReg(&c.A, c.A^c.read(c.addrZP()))
		return 3, nil
	case 0x55: // EOR d,x
		c.setReg(&c.A, c.A^c.read(c.addrZPX()))
		return 4, nil
	case 0x4D: // EOR a
		c.setReg(&c.A, c.A^c.read(c.addrAbs()))
		return 4, nil
	case 0x5D: // EOR a,x
		addr, cross := c.addrAbsX()
		c.setReg(&c.A, c.A^c.read(addr))
		return cycles(4, cross), nil
	case 0x59: // EOR a,y
		addr, cross := c.addrAbsY()
		c.setReg(&c.A, c.A^c.read(addr))
		return cycles(4, cross), nil
	case 0x41: // EOR (d,x)
		c.setReg(&c.A, c.A^c.read(c.addrIndX()))
		return 6, nil
	case 0x51: // EOR (d),y
		addr, cross := c.addrIndY()
		c.setReg(&c.A, c.A^c.read(addr))
		return cycles(5, cross), nil

	// --- shifts/rotates ---
	case 0x0A: // ASL A
		c.A = c.asl(c.A)
		return 2, nil
	case 0x06: // ASL d
		addr := c.addrZP()
		c.write(addr, c.asl(c.read(addr)))
		return 5, nil
	case 0x16: // ASL d,x
		addr := c.addrZPX()
		c.write(addr, c.asl(c.read(addr)))
		return 6, nil
	case 0x0E: // ASL a
		addr := c.addrAbs()
		c.write(addr, c.asl(c.read(addr)))
		return 6, nil
	case 0x1E: // ASL a,x
		addr, _ := c.addrAbsX()
		c.write(addr, c.asl(c.read(addr)))
		return 7, nil

	case 0x4A: // LSR A
		c.A = c.lsr(c.A)
		return 2, nil
	case 0x46: // LSR d
		addr := c.addrZP()
		c.write(addr, c.lsr(c.read(addr)))
		return 5, nil
	case 0x56: // LSR d,x
		addr := c.addrZPX()
		c.write(addr, c.lsr(c.read(addr)))
		return 6, nil
	case 0x4E: // LSR a
		addr := c.addrAbs()
		c.write(addr, c.lsr(c.read(addr)))
		return 6, nil
	case 0x5E: // LSR a,x
		addr, _ := c.addrAbsX()
		c.write(addr, c.lsr(c.read(addr)))
		return 7, nil

	case 0x2A: // ROL A
		c.A = c.rol(c.A)
		return 2, nil
	case 0x26: // ROL d
		addr := c.addrZP()
		c.write(addr, c.rol(c.read(addr)))
		return 5, nil
	case 0x36: // ROL d,x
		addr := c.addrZPX()
		c.write(addr, c.rol(c.read(addr)))
		return 6, nil
	case 0x2E: // ROL a
		addr := c.addrAbs()
		c.write(addr, c.rol(c.read(addr)))
		return 6, nil
	case 0x3E: // ROL a,x
		addr, _ := c.addrAbsX()
		c.write(addr, c.rol(c.read(addr)))
		return 7, nil

	case 0x6A: // ROR A
		c.A = c.ror(c.A)
		return 2, nil
	case 0x66: // ROR d
		addr := c.addrZP()
		c.write(addr, c.ror(c.read(addr)))
		return 5, nil
	case 0x76: // ROR d,x
		addr := c.addrZPX()
		c.write(addr, c.ror(c.read(addr)))
		return 6, nil
	case 0x6E: // ROR a
		addr := c.addrAbs()
		c.write(addr, c.ror(c.read(addr)))
		return 6, nil
	case 0x7E: // ROR a,x
		addr, _ := c.addrAbsX()
		c.write(addr, c.ror(c.read(addr)))
		return 7, nil

	// --- increment/decrement ---
	case 0xE6: // INC d
		addr := c.addrZP()
		v := c.read(addr) + 1
		c.write(addr, v)
		c.zeroCheck(v)
		c.negativeCheck(v)
		return 5, nil
	case 0xF6: // INC d,x
		addr := c.addrZPX()
		v := c.read(addr) + 1
		c.write(addr, v)
		c.zeroCheck(v)
		c.negativeCheck(v)
		return 6, nil
	case 0xEE: // INC a
		addr := c.addrAbs()
		v := c.read(addr) + 1
		c.write(addr, v)
		c.zeroCheck(v)
		c.negativeCheck(v)
		return 6, nil
	case 0xFE: // INC a,x
		addr, _ := c.addrAbsX()
		v := c.read(addr) + 1
		c.write(addr, v)
		c.zeroCheck(v)
		c.negativeCheck(v)
		return 7, nil

	case 0xC6: // DEC d
		addr := c.addrZP()
		v := c.read(addr) - 1
		c.write(addr, v)
		c.zeroCheck(v)
		c.negativeCheck(v)
		return 5, nil
	case 0xD6: // DEC d,x
		addr := c.addrZPX()
		v := c.read(addr) - 1
		c.write(addr, v)
		c.zeroCheck(v)
		c.negativeCheck(v)
		return 6, nil
	case 0xCE: // DEC a
		addr := c.addrAbs()
		v := c.read(addr) - 1
		c.write(addr, v)
		c.zeroCheck(v)
		c.negativeCheck(v)
		return 6, nil
	case 0xDE: // DEC a,x
		addr, _ := c.addrAbsX()
		v := c.read(addr) - 1
		c.write(addr, v)
		c.zeroCheck(v)
		c.negativeCheck(v)
		return 7, nil

	case 0xE8: // INX
		c.setReg(&c.X, c.X+1)
		return 2, nil
	case 0xC8: // INY
		c.setReg(&c.Y, c.Y+1)
		return 2, nil
	case 0xCA: // DEX
		c.setReg(&c.X, c.X-1)
		return 2, nil
	case 0x88: // DEY
		c.setReg(&c.Y, c.Y-1)
		return 2, nil

	// --- branches ---
	case 0x10: // BPL
		return c.branch(c.P&PNegative == 0), nil
	case 0x30: // BMI
		return c.branch(c.P&PNegative != 0), nil
	case 0x50: // BVC
		return c.branch(c.P&POverflow == 0), nil
	case 0x70: // BVS
		return c.branch(c.P&POverflow != 0), nil
	case 0x90: // BCC
		return c.branch(c.P&PCarry == 0), nil
	case 0xB0: // BCS
		return c.branch(c.P&PCarry != 0), nil
	case 0xD0: // BNE
		return c.branch(c.P&PZero == 0), nil
	case 0xF0: // BEQ
		return c.branch(c.P&PZero != 0), nil

	// --- flag ops ---
	case 0x18: // CLC
		c.P &^= PCarry
		return 2, nil
	case 0x38: // SEC
		c.P |= PCarry
		return 2, nil
	case 0xD8: // CLD
		c.P &^= PDecimal
		return 2, nil
	case 0xF8: // SED
		c.P |= PDecimal
		return 2, nil
	case 0x58: // CLI
		c.P &^= PInterrupt
		return 2, nil
	case 0x78: // SEI
		c.P |= PInterrupt
		return 2, nil
	case 0xB8: // CLV
		c.P &^= POverflow
		return 2, nil

	// --- transfers ---
	case 0xAA: // TAX
		c.setReg(&c.X, c.A)
		return 2, nil
	case 0xA8: // TAY
		c.setReg(&c.Y, c.A)
		return 2, nil
	case 0x8A: // TXA
		c.setReg(&c.A, c.X)
		return 2, nil
	case 0x98: // TYA
		c.setReg(&c.A, c.Y)
		return 2, nil
	case 0xBA: // TSX
		c.setReg(&c.X, c.S)
		return 2, nil
	case 0x9A: // TXS
		c.S = c.X // TXS does not touch flags.
		return 2, nil

	// --- stack ---
	case 0x48: // PHA
		c.push(c.A)
		return 3, nil
	case 0x68: // PLA
		v, err := c.popChecked("PLA")
		if err != nil {
			return 0, err
		}
		c.setReg(&c.A, v)
		return 4, nil
	case 0x08: // PHP
		c.push(c.P | PUnused | PBreak)
		return 3, nil
	case 0x28: // PLP
		v, err := c.popChecked("PLP")
		if err != nil {
			return 0, err
		}
		c.P = (v &^ PBreak) | PUnused
		return 4, nil

	// --- control ---
	case 0x4C: // JMP a
		c.PC = c.addrAbs()
		return 3, nil
	case 0x6C: // JMP (a)
		ptr := c.addrAbs()
		lo := c.read(ptr)
		var hi uint8
		if ptr&0x00FF == 0x00FF {
			// The 6502 page-wrap bug: the high byte is fetched from the
			// start of the same page instead of the next page.
			hi = c.read(ptr & 0xFF00)
		} else {
			hi = c.read(ptr + 1)
		}
		c.PC = uint16(lo) | uint16(hi)<<8
		return 5, nil
	case 0x20: // JSR a
		addr := c.addrAbs()
		ret := c.PC - 1
		c.push(uint8(ret >> 8))
		c.push(uint8(ret))
		c.PC = addr
		return 6, nil
	case 0x60: // RTS
		lo, err := c.popChecked("RTS")
		if err != nil {
			return 0, err
		}
		hi := c.pop()
		c.PC = (uint16(hi)<<8 | uint16(lo)) + 1
		return 6, nil
	case 0x40: // RTI
		p, err := c.popChecked("RTI")
		if err != nil {
			return 0, err
		}
		lo := c.pop()
		hi := c.pop()
		c.P = (p &^ PBreak) | PUnused
		c.PC = uint16(hi)<<8 | uint16(lo)
		return 6, nil
	case 0x00: // BRK
		// Skip the padding byte. I is set before the status is pushed so
		// the stored copy reflects it, unlike a hardware IRQ/NMI.
		c.PC++
		c.P |= PInterrupt
		c.push(uint8(c.PC >> 8))
		c.push(uint8(c.PC))
		c.push(c.P | PUnused | PBreak)
		c.PC = c.read16(IRQVector)
		return 7, nil
	case 0xEA: // NOP
		return 2, nil

	default:
		return 0, errUnknownOpcode
	}
}

func cycles(base int, pageCross bool) int {
	if pageCross {
		return base + 1
	}
	return base
}
