// Package c64 is the main logic for pulling together a Commodore 64
// emulator core. The actual chips are implemented in other packages; this
// package loads ROM images, wires the Bus and CPU together, and drives the
// cooperative step loop that keeps VIC-II/CIA1/CIA2/SID in lockstep with
// CPU cycles.
package c64

import (
	"fmt"
	"os"

	"github.com/ToolSynth/c64/bus"
	"github.com/ToolSynth/c64/cpu"
	"github.com/ToolSynth/c64/vic"
)

// RomLoadError reports a missing or wrong-sized ROM image. Re-exported from
// bus so callers of this package never need to import bus directly just to
// type-switch on the error a failed Init can return.
type RomLoadError = bus.RomLoadError

// Mode selects PAL or NTSC video timing.
type Mode int

const (
	ModePAL Mode = iota
	ModeNTSC
)

func (m Mode) vicMode() vic.Mode {
	if m == ModeNTSC {
		return vic.NTSC
	}
	return vic.PAL
}

// RomPaths names the three ROM image files a Config loads from disk.
type RomPaths struct {
	Kernal  string
	Basic   string
	Chargen string
}

// Config defines the pieces needed to set up a basic C64.
type Config struct {
	Mode  Mode
	Roms  RomPaths
	Debug bool

	// FrameDone, if set, is called once per completed frame from Run with
	// the indexed framebuffer and the 16-entry RGB palette it indexes into.
	// This core never imports a windowing library itself; FrameDone is the
	// seam a host display layer hangs off of, the same role
	// atari2600.VCSDef.FrameDone plays for that core's SDL host.
	FrameDone func(frame []uint8, palette [16][3]uint8)
}

// Machine is a fully wired, powered-on C64: bus, CPU, and the four chips
// the Bus owns.
type Machine struct {
	Bus *bus.Bus
	CPU *cpu.Chip

	debug     bool
	frameDone func(frame []uint8, palette [16][3]uint8)
}

func loadRom(path string, want int, name string) ([]uint8, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't load %s rom: %w", name, err)
	}
	if len(data) != want {
		return nil, bus.RomLoadError{Name: name, Got: len(data), Want: want}
	}
	return data, nil
}

// Init reads the three ROM images off disk and returns a fully powered-on
// Machine. Order matters: the Bus (and the chips it owns) must exist before
// the CPU, since the CPU's reset sequence immediately reads the reset
// vector through the Bus.
func Init(cfg *Config) (*Machine, error) {
	kernal, err := loadRom(cfg.Roms.Kernal, 8192, "kernal")
	if err != nil {
		return nil, err
	}
	basic, err := loadRom(cfg.Roms.Basic, 8192, "basic")
	if err != nil {
		return nil, err
	}
	chargen, err := loadRom(cfg.Roms.Chargen, 4096, "chargen")
	if err != nil {
		return nil, err
	}

	b, err := bus.New(bus.RomImages{Kernal: kernal, Basic: basic, Chargen: chargen}, cfg.Mode.vicMode(), cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("can't initialize bus: %w", err)
	}

	c, err := cpu.Init(&cpu.ChipDef{
		Bus: b,
		Irq: b.IRQ(),
		Nmi: b.NMI(),
	})
	if err != nil {
		return nil, fmt.Errorf("can't initialize cpu: %w", err)
	}

	return &Machine{Bus: b, CPU: c, debug: cfg.Debug, frameDone: cfg.FrameDone}, nil
}

// Step executes exactly one CPU step and fans out the cycles it cost to
// every chip that runs off the shared clock, per the core's single-threaded
// cooperative step loop: CPU first, then VIC-II and both CIAs, then SID.
// IRQ/NMI are sampled inside cpu.Chip.Step, never mid-instruction.
func (m *Machine) Step() (int, error) {
	delta, err := m.CPU.Step()
	if err != nil {
		return 0, err
	}
	m.Bus.VIC.Tick(delta)
	m.Bus.CIA1.Tick(delta)
	m.Bus.CIA2.Tick(delta)
	m.Bus.SID.Tick(delta)
	return delta, nil
}

// Run steps the machine until the VIC-II reports a completed frame, then
// returns. If Config.FrameDone was set it is called with the framebuffer and
// palette before Run returns; callers can also read Framebuffer() themselves
// and call Run again for the next frame.
func (m *Machine) Run() error {
	m.Bus.VIC.ClearReadyFrame()
	for !m.Bus.VIC.ReadyFrame() {
		if _, err := m.Step(); err != nil {
			return err
		}
	}
	if m.frameDone != nil {
		m.frameDone(m.Bus.VIC.Framebuffer(), vic.Palette)
	}
	return nil
}

// Reset re-runs CPU reset without reloading ROMs or clearing RAM, matching
// a RESTORE-key or soft-reset rather than a full power cycle.
func (m *Machine) Reset() {
	m.CPU.Reset()
}
