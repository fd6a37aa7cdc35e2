package hwstate

import "testing"

func TestHWState_TimerOverflowReloadAndCancellation(t *testing.T) {
	h := New()
	h.TAC = 0x05 // enabled, period 16
	h.TMA = 0xAB
	h.TIMA = 0xFF

	h.Tick(16) // overflow
	if h.TIMA != 0x00 {
		t.Fatalf("TIMA after overflow got %02X want 00", h.TIMA)
	}
	if h.Pending()&Timer.Mask != 0 {
		t.Fatalf("timer interrupt requested before reload delay elapsed")
	}
	h.Tick(3)
	if h.TIMA != 0x00 {
		t.Fatalf("TIMA mid-delay got %02X want 00", h.TIMA)
	}
	h.Tick(1)
	if h.TIMA != 0xAB {
		t.Fatalf("TIMA after reload got %02X want AB", h.TIMA)
	}
	h.IntEnable = Timer.Mask
	if h.Pending()&Timer.Mask == 0 {
		t.Fatalf("timer interrupt not pending after reload")
	}
}

func TestHWState_WriteTIMACancelsReload(t *testing.T) {
	h := New()
	h.TAC = 0x05
	h.TMA = 0x55
	h.TIMA = 0xFF
	h.Tick(16) // overflow, reload pending
	h.WriteTIMA(0x77)
	h.Tick(8)
	if h.TIMA != 0x77 {
		t.Fatalf("TIMA got %02X want 77 (write should cancel reload)", h.TIMA)
	}
}

func TestHWState_ServiceDispatchesHighestPriority(t *testing.T) {
	h := New()
	h.IME = IMEOn
	h.IntEnable = VBlank.Mask | Timer.Mask
	h.RequestInterrupt(Timer)
	h.RequestInterrupt(VBlank)

	res := h.Service()
	if !res.Serviced || res.Addr != VBlank.Addr {
		t.Fatalf("expected VBlank serviced first, got %+v", res)
	}
	if h.IntFlags&VBlank.Mask != 0 {
		t.Fatalf("VBlank IF bit not cleared after dispatch")
	}
	if h.IME != IMEOff {
		t.Fatalf("IME not cleared after dispatch")
	}

	// Timer is still pending but IME is off now, so nothing more dispatches.
	res2 := h.Service()
	if res2.Serviced {
		t.Fatalf("should not service while IME is off")
	}
}

func TestHWState_ServiceClearsHaltRegardlessOfIME(t *testing.T) {
	h := New()
	h.CPUHalt = true
	h.IME = IMEOff
	h.IntEnable = Timer.Mask
	h.RequestInterrupt(Timer)

	res := h.Service()
	if res.Serviced {
		t.Fatalf("should not dispatch while IME is off")
	}
	if h.CPUHalt {
		t.Fatalf("CPUHalt should clear on pending interrupt even with IME off")
	}
}

func TestHWState_AdvanceIME(t *testing.T) {
	h := New()
	h.IME = IMEPending
	h.AdvanceIME()
	if h.IME != IMEOn {
		t.Fatalf("IME got %v want IMEOn", h.IME)
	}
	h.IME = IMEOff
	h.AdvanceIME()
	if h.IME != IMEOff {
		t.Fatalf("AdvanceIME should not affect IMEOff")
	}
}

func TestHWState_SaveLoadStateRoundTrip(t *testing.T) {
	h := New()
	h.TAC = 0x05
	h.TIMA = 0x42
	h.TMA = 0x10
	h.IntEnable = 0x1F
	h.IntFlags = 0x03
	h.IME = IMEPending
	h.Tick(5) // leave the internal DIV/TIMA clocks mid-period

	snap := h.SaveState()
	h2 := New()
	h2.LoadState(snap)

	if h2.TAC != h.TAC || h2.TIMA != h.TIMA || h2.TMA != h.TMA {
		t.Fatalf("timer registers did not round-trip")
	}
	if h2.IME != h.IME || h2.IntEnable != h.IntEnable || h2.IntFlags != h.IntFlags {
		t.Fatalf("interrupt state did not round-trip")
	}
	// Continuing to tick both in lockstep should produce identical TIMA values.
	h.Tick(20)
	h2.Tick(20)
	if h.TIMA != h2.TIMA {
		t.Fatalf("clock phase lost across save/load: %02X vs %02X", h.TIMA, h2.TIMA)
	}
}
