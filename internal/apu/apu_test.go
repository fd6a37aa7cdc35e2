package apu

import "testing"

func TestAPU_NR52PowerOffClearsRegistersAndChannels(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF11, 0x80) // CH1 duty
	a.CPUWrite(0xFF12, 0xF0) // CH1 envelope, DAC on
	a.CPUWrite(0xFF14, 0x80) // trigger CH1

	a.CPUWrite(0xFF26, 0x00) // power off
	if got := a.CPURead(0xFF11); got != (0<<6)|0x3F {
		t.Fatalf("NR11 after power-off got %02X want cleared duty/length", got)
	}
	if got := a.CPURead(0xFF26) & 0x80; got != 0 {
		t.Fatalf("power bit should read 0 after power-off")
	}

	a.CPUWrite(0xFF26, 0x80) // power on
	if got := a.CPURead(0xFF26) & 0x80; got == 0 {
		t.Fatalf("power bit should read set after power-on")
	}
}

func TestAPU_CH1TriggerEnablesChannel(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0) // envelope with DAC on (upper 5 bits nonzero)
	a.CPUWrite(0xFF13, 0x00)
	a.CPUWrite(0xFF14, 0x80) // trigger
	if !a.ch1.enabled {
		t.Fatalf("CH1 should be enabled after trigger with DAC on")
	}
}

func TestAPU_DACOffDisablesChannel(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0)
	a.CPUWrite(0xFF14, 0x80)
	if !a.ch1.enabled {
		t.Fatalf("precondition: CH1 should be enabled")
	}
	a.CPUWrite(0xFF12, 0x00) // upper 5 bits zero -> DAC off
	if a.ch1.enabled {
		t.Fatalf("CH1 should disable when its DAC turns off")
	}
}

func TestAPU_WaveRAMReadWrite(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF30, 0xAB)
	a.CPUWrite(0xFF3F, 0xCD)
	if got := a.CPURead(0xFF30); got != 0xAB {
		t.Fatalf("wave RAM[0] got %02X want AB", got)
	}
	if got := a.CPURead(0xFF3F); got != 0xCD {
		t.Fatalf("wave RAM[15] got %02X want CD", got)
	}
}

func TestAPU_PullStereoDrainsBufferedFrames(t *testing.T) {
	a := New(48000)
	a.pushStereo(100, -100)
	a.pushStereo(200, -200)
	if n := a.StereoAvailable(); n != 2 {
		t.Fatalf("StereoAvailable got %d want 2", n)
	}
	out := a.PullStereo(1)
	if len(out) != 2 || out[0] != 100 || out[1] != -100 {
		t.Fatalf("PullStereo(1) got %v want [100 -100]", out)
	}
	if n := a.StereoAvailable(); n != 1 {
		t.Fatalf("StereoAvailable after partial pull got %d want 1", n)
	}
}

func TestAPU_SaveLoadStateRoundTrip(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF24, 0x77) // NR50
	a.CPUWrite(0xFF25, 0x11) // NR51
	a.CPUWrite(0xFF12, 0xF0)
	a.CPUWrite(0xFF13, 0x55)
	a.CPUWrite(0xFF14, 0x83)
	a.Tick(200)

	snap := a.SaveState()
	b := New(48000)
	b.LoadState(snap)

	if b.nr50 != a.nr50 || b.nr51 != a.nr51 {
		t.Fatalf("mixer registers did not round-trip")
	}
	if b.ch1.enabled != a.ch1.enabled || b.ch1.freq != a.ch1.freq || b.ch1.timer != a.ch1.timer {
		t.Fatalf("CH1 state did not round-trip: got %+v want %+v", b.ch1, a.ch1)
	}
}
