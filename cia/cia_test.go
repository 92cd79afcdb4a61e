package cia

import "testing"

type fakeRaiser struct {
	count int
}

func (f *fakeRaiser) TriggerIRQ() { f.count++ }

func TestPortReadWriteRespectsDDR(t *testing.T) {
	c := Init(&ChipDef{Name: "CIA1", Raiser: &fakeRaiser{}})
	c.Write(0x02, 0x0F) // DDRA: low nibble output, high nibble input
	c.Write(0x00, 0xFF) // latch all bits high
	// Output nibble reflects the latch; undriven input nibble reads high
	// (pulled up) since no InputA was configured.
	if got := c.ReadPortA(); got != 0xFF {
		t.Errorf("ReadPortA() = %#02x, want 0xFF", got)
	}
	c.Write(0x00, 0x00)
	if got := c.ReadPortA(); got != 0xF0 {
		t.Errorf("ReadPortA() after clearing latch = %#02x, want 0xF0 (input bits stay pulled up)", got)
	}
}

func TestTimerAUnderflowRaisesIRQAndReloads(t *testing.T) {
	raiser := &fakeRaiser{}
	c := Init(&ChipDef{Name: "CIA1", Raiser: raiser})
	c.Write(0x04, 0x0A) // reload low = 10
	c.Write(0x05, 0x00) // reload high = 0
	c.Write(0x0E, 0x11) // FORCE LOAD + START

	c.Tick(9)
	if raiser.count != 0 {
		t.Fatalf("IRQ raised early: count=%d after 9 cycles of a 10-cycle timer", raiser.count)
	}
	c.Tick(1)
	if raiser.count != 1 {
		t.Fatalf("IRQ not raised on underflow: count=%d, want 1", raiser.count)
	}
	if !c.InterruptPending() {
		t.Error("InterruptPending() = false after Timer A underflow, want true")
	}
	if got := c.timerA.lowByte(); got != 0x0A {
		t.Errorf("timer did not reload: lowByte() = %#02x, want 0x0A", got)
	}
}

func TestInterruptFlagsWriteOneToClear(t *testing.T) {
	raiser := &fakeRaiser{}
	c := Init(&ChipDef{Name: "CIA1", Raiser: raiser})
	c.Write(0x04, 0x01)
	c.Write(0x05, 0x00)
	c.Write(0x0E, 0x11)
	c.Tick(1)
	if !c.InterruptPending() {
		t.Fatal("expected interrupt pending after underflow")
	}
	c.Write(0x0D, 0x01) // ack Timer A's flag
	if c.InterruptPending() {
		t.Error("InterruptPending() still true after write-1-to-clear on bit 0")
	}
}

// TestTimerA1000In100CycleSteps drives a 1000-cycle Timer A with ten coarse
// 100-cycle ticks: the tenth must set ICR bit 0, raise the IRQ, and reload
// the countdown to its full value.
func TestTimerA1000In100CycleSteps(t *testing.T) {
	raiser := &fakeRaiser{}
	c := Init(&ChipDef{Name: "CIA1", Raiser: raiser})
	c.Write(0x02, 0xFF) // DDRA all output, as a guest program would configure
	c.Write(0x04, 0xE8) // reload = 1000
	c.Write(0x05, 0x03)
	c.Write(0x0E, 0x11) // FORCE LOAD + START

	for i := 0; i < 9; i++ {
		c.Tick(100)
	}
	if raiser.count != 0 || c.Read(0x0D)&0x01 != 0 {
		t.Fatalf("timer fired early: IRQ count=%d ICR=%#02x after 900 of 1000 cycles", raiser.count, c.Read(0x0D))
	}
	c.Tick(100)
	if raiser.count != 1 {
		t.Errorf("IRQ count = %d after underflow, want 1", raiser.count)
	}
	if c.Read(0x0D)&0x01 == 0 {
		t.Error("ICR bit 0 not set after Timer A underflow")
	}
	if lo, hi := c.Read(0x04), c.Read(0x05); lo != 0xE8 || hi != 0x03 {
		t.Errorf("timer value after reload = $%02X%02X, want $03E8", hi, lo)
	}
}

func TestTimerStoppedDoesNotCount(t *testing.T) {
	raiser := &fakeRaiser{}
	c := Init(&ChipDef{Name: "CIA1", Raiser: raiser})
	c.Write(0x04, 0x01)
	c.Write(0x05, 0x00)
	// No START bit written: timer stays stopped.
	c.Tick(100)
	if raiser.count != 0 {
		t.Errorf("stopped timer raised IRQ: count=%d, want 0", raiser.count)
	}
}
