// Package vic implements the VIC-II video controller: raster-line timing
// and IRQ, the 47-register file at $D000-$D02E, text-mode rendering into an
// indexed framebuffer, and 8-sprite rendering with expansion and collision
// masks. Sub-cycle accuracy (bad-line stealing, sprite DMA stealing) is
// deliberately not modeled.
package vic

import "github.com/ToolSynth/c64/memory"

// Mem is the narrow, non-owning view the VIC needs of the rest of the
// machine: bank-relative character memory (with the CHARGEN shadow baked
// in), raw RAM for direct screen-code and sprite-pointer access, color RAM, the current
// bank selection, and a place to report a raised interrupt.
type Mem interface {
	ReadVICMem(bankRelative uint16) uint8
	Raw() []uint8
	ColorRAMRaw() []uint8
	VICBank() uint16
	TriggerIRQ()
}

// Mode is a PAL/NTSC timing and framebuffer-geometry configuration, fixed
// at construction.
type Mode struct {
	Name          string
	TotalLines    int
	CyclesPerLine int
	Width         int
	Height        int
}

// PAL is the 312-line, 63-cycles-per-line European timing.
var PAL = Mode{Name: "PAL", TotalLines: 312, CyclesPerLine: 63, Width: 403, Height: 312}

// NTSC is the 263-line, 65-cycles-per-line timing.
var NTSC = Mode{Name: "NTSC", TotalLines: 263, CyclesPerLine: 65, Width: 403, Height: 263}

// Palette is the 16-entry C64 RGB palette, one entry per nibble value a
// framebuffer pixel can hold. Taken from the reference implementation's
// color table rather than any single "true" hardware measurement, since the
// real VIC-II's output is luma/chroma, not digital RGB.
var Palette = [16][3]uint8{
	{0x00, 0x00, 0x00}, // black
	{0xFF, 0xFF, 0xFF}, // white
	{0x68, 0x37, 0x2B}, // red
	{0x70, 0xA4, 0xB2}, // cyan
	{0x6F, 0x3D, 0x86}, // purple
	{0x58, 0x8D, 0x43}, // green
	{0x35, 0x28, 0x79}, // blue
	{0xB8, 0xC7, 0x6F}, // yellow
	{0x6F, 0x4F, 0x25}, // orange
	{0x43, 0x39, 0x00}, // brown
	{0x9A, 0x67, 0x59}, // light red
	{0x44, 0x44, 0x44}, // dark grey
	{0x6C, 0x6C, 0x6C}, // grey
	{0x9A, 0xD2, 0x84}, // light green
	{0x6C, 0x5E, 0xB5}, // light blue
	{0x95, 0x95, 0x95}, // light grey
}

const (
	regCount     = 0x2F
	innerWidth   = 320
	innerHeight  = 200
	spriteWidth  = 24
	spriteHeight = 21
)

// Chip implements the register file, raster advance and rendering.
type Chip struct {
	mem  Mem
	mode Mode

	regs [regCount]uint8

	currentLine   int
	cycleBucket   int
	rasterIRQLine int
	readyFrame    bool

	frame        []uint8
	isBackground []bool
	spriteTouch  []uint8

	offX, offY int
}

// ChipDef configures a Chip at construction.
type ChipDef struct {
	Mode Mode
	Mem  Mem
}

// Init constructs a powered-on Chip sized for Mode.
func Init(def *ChipDef) *Chip {
	c := &Chip{
		mem:  def.Mem,
		mode: def.Mode,
	}
	c.frame = make([]uint8, c.mode.Width*c.mode.Height)
	c.isBackground = make([]bool, c.mode.Width*c.mode.Height)
	c.spriteTouch = make([]uint8, c.mode.Width*c.mode.Height)
	c.offX = (c.mode.Width - innerWidth) / 2
	c.offY = (c.mode.Height - innerHeight) / 2
	c.PowerOn()
	return c
}

// PowerOn clears the register file and raster state.
func (c *Chip) PowerOn() {
	for i := range c.regs {
		c.regs[i] = 0
	}
	c.currentLine = 0
	c.cycleBucket = 0
	c.rasterIRQLine = 0
	c.readyFrame = false
}

// Read returns the register at addr (masked to the 47-entry file; unused
// indices above $2E read back as $FF, matching the floating-bus behaviour
// of the real chip).
func (c *Chip) Read(addr uint16) uint8 {
	c.checkWindow(addr)
	idx := addr & 0x3F
	if int(idx) >= regCount {
		return 0xFF
	}
	return c.regs[idx]
}

// checkWindow asserts the bus routed an address inside the VIC's $D000-$D3FF
// window. A violation is an emulator bug, never a guest-program fault.
func (c *Chip) checkWindow(addr uint16) {
	if addr < 0xD000 || addr > 0xD3FF {
		panic(memory.InvalidAddress{Chip: "VIC-II", Addr: addr})
	}
}

// Write updates the register at addr. $D019 is write-1-to-clear; $D011 and
// $D012 additionally recompute the latched raster compare line.
func (c *Chip) Write(addr uint16, val uint8) {
	c.checkWindow(addr)
	idx := addr & 0x3F
	if int(idx) >= regCount {
		return
	}
	if idx == 0x19 {
		c.regs[0x19] &^= val
		return
	}
	c.regs[idx] = val
	// The compare line is latched from the written values here, not
	// re-derived from the registers later: the raster advance overwrites
	// $D012 and the $D011 MSB with the current line every scanline.
	switch idx {
	case 0x11:
		c.rasterIRQLine = (c.rasterIRQLine & 0xFF) | (int(val&0x80) << 1)
	case 0x12:
		c.rasterIRQLine = (c.rasterIRQLine &^ 0xFF) | int(val)
	}
}

// InterruptPending reports whether any enabled VIC interrupt source
// currently holds its flag set.
func (c *Chip) InterruptPending() bool {
	return c.regs[0x19]&c.regs[0x1A] != 0
}

// ReadyFrame reports whether a full frame has completed since the last
// call to ClearReadyFrame, mirroring the core's single-flag handoff to the
// host display thread.
func (c *Chip) ReadyFrame() bool { return c.readyFrame }

// ClearReadyFrame acknowledges the current frame, as the host does after
// copying the framebuffer.
func (c *Chip) ClearReadyFrame() { c.readyFrame = false }

// Framebuffer returns the indexed framebuffer (one palette index 0-15 per
// byte), width-major, width()*height() bytes.
func (c *Chip) Framebuffer() []uint8 { return c.frame }

// Width is the framebuffer width in pixels for this Chip's Mode.
func (c *Chip) Width() int { return c.mode.Width }

// Height is the framebuffer height in pixels for this Chip's Mode.
func (c *Chip) Height() int { return c.mode.Height }

// Tick advances the raster by delta cycles, one scanline per CyclesPerLine
// consumed, firing the raster IRQ and rendering the frame exactly as
// described in the component design.
func (c *Chip) Tick(delta int) {
	c.cycleBucket += delta
	for c.cycleBucket >= c.mode.CyclesPerLine {
		c.cycleBucket -= c.mode.CyclesPerLine
		c.advanceLine()
	}
}

func (c *Chip) advanceLine() {
	c.currentLine = (c.currentLine + 1) % c.mode.TotalLines
	if c.currentLine == 0 {
		c.drawFrame()
		c.readyFrame = true
	}

	c.regs[0x12] = uint8(c.currentLine)
	if c.currentLine > 0xFF {
		c.regs[0x11] |= 0x80
	} else {
		c.regs[0x11] &^= 0x80
	}

	if c.currentLine == c.rasterIRQLine && c.regs[0x1A]&0x01 != 0 {
		c.regs[0x19] |= 0x01
		c.mem.TriggerIRQ()
	}
}

// Named accessors over the raw control registers, in place of open-coded
// bit formulas at every use site.

func (c *Chip) displayEnabled() bool { return c.regs[0x11]&0x10 != 0 }

func (c *Chip) borderColor() uint8     { return c.regs[0x20] & 0x0F }
func (c *Chip) backgroundColor() uint8 { return c.regs[0x21] & 0x0F }

// screenMemPtr is the bank-relative base of screen memory from $D018 bits 4-7.
func (c *Chip) screenMemPtr() int { return int((c.regs[0x18]>>4)&0x0F) * 0x400 }

// charMemPtr is the bank-relative base of character memory from $D018 bits 1-3.
func (c *Chip) charMemPtr() int { return int((c.regs[0x18]>>1)&0x07) * 0x800 }

func (c *Chip) idx(x, y int) (int, bool) {
	if x < 0 || x >= c.mode.Width || y < 0 || y >= c.mode.Height {
		return 0, false
	}
	return y*c.mode.Width + x, true
}

// drawFrame renders one full frame, matching the rendering steps in the
// component design: border/background fill, text-mode characters, then
// sprites with collision tracking.
func (c *Chip) drawFrame() {
	if !c.displayEnabled() {
		return
	}

	border := c.borderColor()
	bg := c.backgroundColor()
	for i := range c.frame {
		c.frame[i] = border
		c.isBackground[i] = true
	}
	for y := 0; y < innerHeight; y++ {
		for x := 0; x < innerWidth; x++ {
			if i, ok := c.idx(c.offX+x, c.offY+y); ok {
				c.frame[i] = bg
			}
		}
	}

	bank := c.mem.VICBank()
	screenBase := int(bank) + c.screenMemPtr()
	charBase := c.charMemPtr()

	ram := c.mem.Raw()
	color := c.mem.ColorRAMRaw()

	for row := 0; row < 25; row++ {
		for col := 0; col < 40; col++ {
			cellIdx := row*40 + col
			code := ram[(screenBase+cellIdx)&0xFFFF]
			colorNibble := color[cellIdx&0x3FF] & 0x0F
			for bitRow := 0; bitRow < 8; bitRow++ {
				glyph := c.mem.ReadVICMem(uint16(charBase + int(code)*8 + bitRow))
				for bit := 0; bit < 8; bit++ {
					if glyph&(0x80>>uint(bit)) == 0 {
						continue
					}
					px := c.offX + col*8 + bit
					py := c.offY + row*8 + bitRow
					if i, ok := c.idx(px, py); ok {
						c.frame[i] = colorNibble
						c.isBackground[i] = false
					}
				}
			}
		}
	}

	c.drawSprites(screenBase, ram)
}

// drawSprites renders the 8 sprites over the character layer. Sprite
// coordinates are native framebuffer positions (the border is addressable),
// and sprite data is fetched through the same bank-relative view as glyphs,
// so a sprite pointer into the $1000-$1FFF window reads CHARGEN.
func (c *Chip) drawSprites(screenBase int, ram []uint8) {
	for i := range c.spriteTouch {
		c.spriteTouch[i] = 0
	}

	var spriteSprite, spriteBg uint8
	enable := c.regs[0x15]
	xMSB := c.regs[0x10]
	expandX := c.regs[0x1D]
	expandY := c.regs[0x17]
	behind := c.regs[0x1B]

	for s := 0; s < 8; s++ {
		bit := uint8(1) << uint(s)
		if enable&bit == 0 {
			continue
		}

		x := int(c.regs[2*s])
		if xMSB&bit != 0 {
			x |= 0x100
		}
		y := int(c.regs[2*s+1])
		colorNibble := c.regs[0x27+s] & 0x0F
		scaleX, scaleY := 1, 1
		if expandX&bit != 0 {
			scaleX = 2
		}
		if expandY&bit != 0 {
			scaleY = 2
		}
		behindBG := behind&bit != 0

		pointer := ram[(screenBase+0x3F8+s)&0xFFFF]
		dataBlock := int(pointer) * 64

		for row := 0; row < spriteHeight; row++ {
			for col := 0; col < spriteWidth/8; col++ {
				b := c.mem.ReadVICMem(uint16(dataBlock + row*3 + col))
				for bitPos := 0; bitPos < 8; bitPos++ {
					if b&(0x80>>uint(bitPos)) == 0 {
						continue
					}
					spriteCol := col*8 + bitPos
					for sy := 0; sy < scaleY; sy++ {
						for sx := 0; sx < scaleX; sx++ {
							px := x + spriteCol*scaleX + sx
							py := y + row*scaleY + sy
							i, ok := c.idx(px, py)
							if !ok {
								continue
							}
							if c.spriteTouch[i] != 0 {
								spriteSprite |= bit
							}
							if !c.isBackground[i] && behindBG {
								spriteBg |= bit
							}
							if !behindBG || c.isBackground[i] {
								c.frame[i] = colorNibble
							}
							c.spriteTouch[i] |= bit
						}
					}
				}
			}
		}
	}

	c.regs[0x1E] = spriteSprite
	c.regs[0x1F] = spriteBg
}
