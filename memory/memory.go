// Package memory defines the basic interfaces for working with a 6502
// family memory map. Since each implementation that is emulated has
// specific mappings (including shadowed regions) this is defined as an
// interface, with RAM/ROM/ColorRAM concrete Banks that the C64 PLA chooses
// between.
package memory

import (
	"fmt"
	"math/rand"
	"time"
)

// Bank is a single addressable memory device.
type Bank interface {
	// Read returns the data byte stored at addr.
	Read(addr uint16) uint8
	// Write updates addr with the new value. For ROM this is a no-op; the
	// PLA is responsible for redirecting ROM-targeted writes to shadow RAM
	// before they ever reach a ROM Bank.
	Write(addr uint16, val uint8)
	// PowerOn performs power-on reset of the memory.
	PowerOn()
	// Raw exposes the underlying byte slice for bulk reads. Used by the
	// VIC-II renderer, which walks screen/color/character memory
	// byte-by-byte far more often than the CPU ever touches it.
	Raw() []uint8
}

// InvalidAddress indicates an internal contract violation: a chip was asked
// to read or write a register index outside its defined range. This always
// indicates a bug in the emulator itself, never a guest program fault.
type InvalidAddress struct {
	Chip string
	Addr uint16
}

func (e InvalidAddress) Error() string {
	return fmt.Sprintf("%s: address %#04x out of range", e.Chip, e.Addr)
}

// RAM implements a flat, fully read/write byte array.
type RAM struct {
	data []uint8
}

// NewRAM creates a R/W RAM bank of the given size. Size must be a power of
// two; addressing aliases (wraps) if a larger address is presented.
func NewRAM(size int) (*RAM, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("invalid size: %d must be a power of 2", size)
	}
	return &RAM{data: make([]uint8, size)}, nil
}

// Read implements Bank.
func (r *RAM) Read(addr uint16) uint8 {
	return r.data[int(addr)&(len(r.data)-1)]
}

// Write implements Bank.
func (r *RAM) Write(addr uint16, val uint8) {
	r.data[int(addr)&(len(r.data)-1)] = val
}

// PowerOn implements Bank. Real C64 RAM powers on to a pseudo-random
// fill pattern; matched here rather than zeroing so guest code that
// (incorrectly) depends on zeroed RAM fails the way it would on hardware.
func (r *RAM) PowerOn() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range r.data {
		r.data[i] = uint8(rnd.Intn(256))
	}
}

// Raw implements Bank.
func (r *RAM) Raw() []uint8 { return r.data }

// ROM is a fixed-size, read-only image. Writes are always a no-op; the PLA
// is expected to redirect ROM-targeted writes to shadow RAM before a write
// ever reaches a ROM Bank (see bus.Bus.Write).
type ROM struct {
	data   []uint8
	origin uint16
}

// NewROM creates a ROM bank from the given image, addressed starting at
// origin. Reads outside [origin, origin+len(image)) wrap modulo len(image).
func NewROM(image []uint8, origin uint16) *ROM {
	data := make([]uint8, len(image))
	copy(data, image)
	return &ROM{data: data, origin: origin}
}

// Read implements Bank.
func (r *ROM) Read(addr uint16) uint8 {
	off := int(addr-r.origin) % len(r.data)
	if off < 0 {
		off += len(r.data)
	}
	return r.data[off]
}

// Write implements Bank. ROM is immutable from the bus's perspective.
func (r *ROM) Write(addr uint16, val uint8) {}

// PowerOn implements Bank. ROM contents never change on power-on.
func (r *ROM) PowerOn() {}

// Raw implements Bank.
func (r *ROM) Raw() []uint8 { return r.data }

// ColorRAM is the C64's 1KiB of 4-bit-wide static RAM at $D800-$DBFF. Only
// the low nibble of each byte is meaningful; the high nibble reads back as
// whatever was last written to it on real hardware is open bus noise, but
// this emulator simply masks it to zero for determinism.
type ColorRAM struct {
	data [1024]uint8
}

// NewColorRAM creates a powered-on ColorRAM bank.
func NewColorRAM() *ColorRAM {
	c := &ColorRAM{}
	c.PowerOn()
	return c
}

// Read implements Bank, aliasing across the 1024-entry space.
func (c *ColorRAM) Read(addr uint16) uint8 {
	return c.data[int(addr)&0x3FF] & 0x0F
}

// Write implements Bank, masking to the low nibble.
func (c *ColorRAM) Write(addr uint16, val uint8) {
	c.data[int(addr)&0x3FF] = val & 0x0F
}

// PowerOn implements Bank.
func (c *ColorRAM) PowerOn() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range c.data {
		c.data[i] = uint8(rnd.Intn(16))
	}
}

// Raw implements Bank.
func (c *ColorRAM) Raw() []uint8 { return c.data[:] }
