package apu

import (
	"bytes"
	"encoding/gob"
)

type apuState struct {
	Enabled          bool
	NR50, NR51, NR52 byte
	FSctr            int
	FSstep           int
	Ch1              ch1State
	Ch2              ch2State
	Ch3              ch3State
	Ch4              ch4State
	CycAccum         float64
}

type ch1State struct {
	Enabled     bool
	Duty        byte
	Length      int
	LenEn       bool
	Vol         byte
	EnvDir      int8
	EnvPer      byte
	CurVol      byte
	EnvTmr      byte
	Freq        uint16
	Timer       int
	Phase       int
	SweepPer    byte
	SweepNeg    bool
	SweepShift  byte
	SweepTmr    byte
	SweepEn     bool
	SweepShadow uint16
}

type ch2State struct {
	Enabled bool
	Duty    byte
	Length  int
	LenEn   bool
	Vol     byte
	EnvDir  int8
	EnvPer  byte
	CurVol  byte
	EnvTmr  byte
	Freq    uint16
	Timer   int
	Phase   int
}

type ch3State struct {
	Enabled bool
	DAC     bool
	Length  int
	LenEn   bool
	VolCode byte
	Freq    uint16
	Timer   int
	Pos     int
	RAM     [16]byte
}

type ch4State struct {
	Enabled bool
	Length  int
	LenEn   bool
	Vol     byte
	EnvDir  int8
	EnvPer  byte
	CurVol  byte
	EnvTmr  byte
	Shift   byte
	Width7  bool
	DivSel  byte
	Timer   int
	LFSR    uint16
}

// SaveState serializes the frame sequencer, mixer registers, and all four
// channels' internal state (the public NR10-NR52 register values are
// reconstructed from this on decode via each channel's own fields).
func (a *APU) SaveState() []byte {
	var buf bytes.Buffer
	s := apuState{
		Enabled: a.enabled,
		NR50:    a.nr50, NR51: a.nr51, NR52: a.nr52,
		FSctr: a.fsCounter, FSstep: a.fsStep,
		Ch1: ch1State{
			Enabled: a.ch1.enabled, Duty: a.ch1.duty, Length: a.ch1.length,
			LenEn: a.ch1.lenEn, Vol: a.ch1.vol, EnvDir: a.ch1.envDir, EnvPer: a.ch1.envPer,
			CurVol: a.ch1.curVol, EnvTmr: a.ch1.envTmr,
			Freq: a.ch1.freq, Timer: a.ch1.timer, Phase: a.ch1.phase,
			SweepPer: a.ch1.sweepPer, SweepNeg: a.ch1.sweepNeg, SweepShift: a.ch1.sweepShift,
			SweepTmr: a.ch1.sweepTmr, SweepEn: a.ch1.sweepEn, SweepShadow: a.ch1.sweepShadow,
		},
		Ch2: ch2State{
			Enabled: a.ch2.enabled, Duty: a.ch2.duty, Length: a.ch2.length,
			LenEn: a.ch2.lenEn, Vol: a.ch2.vol, EnvDir: a.ch2.envDir, EnvPer: a.ch2.envPer,
			CurVol: a.ch2.curVol, EnvTmr: a.ch2.envTmr,
			Freq: a.ch2.freq, Timer: a.ch2.timer, Phase: a.ch2.phase,
		},
		Ch3: ch3State{
			Enabled: a.ch3.enabled, DAC: a.ch3.dacEn, Length: a.ch3.length, LenEn: a.ch3.lenEn,
			VolCode: a.ch3.volCode, Freq: a.ch3.freq, Timer: a.ch3.timer, Pos: a.ch3.pos,
			RAM: a.ch3.ram,
		},
		Ch4: ch4State{
			Enabled: a.ch4.enabled, Length: a.ch4.length, LenEn: a.ch4.lenEn,
			Vol: a.ch4.vol, EnvDir: a.ch4.envDir, EnvPer: a.ch4.envPer,
			CurVol: a.ch4.curVol, EnvTmr: a.ch4.envTmr,
			Shift: a.ch4.shift, Width7: a.ch4.width7, DivSel: a.ch4.divSel,
			Timer: a.ch4.timer, LFSR: a.ch4.lfsr,
		},
		CycAccum: a.cycAccum,
	}
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (a *APU) LoadState(data []byte) {
	var s apuState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	a.enabled = s.Enabled
	a.nr50, a.nr51, a.nr52 = s.NR50, s.NR51, s.NR52
	a.fsCounter, a.fsStep = s.FSctr, s.FSstep

	a.ch1.enabled, a.ch1.duty, a.ch1.length = s.Ch1.Enabled, s.Ch1.Duty, s.Ch1.Length
	a.ch1.lenEn, a.ch1.vol, a.ch1.envDir, a.ch1.envPer = s.Ch1.LenEn, s.Ch1.Vol, s.Ch1.EnvDir, s.Ch1.EnvPer
	a.ch1.curVol, a.ch1.envTmr = s.Ch1.CurVol, s.Ch1.EnvTmr
	a.ch1.freq, a.ch1.timer, a.ch1.phase = s.Ch1.Freq, s.Ch1.Timer, s.Ch1.Phase
	a.ch1.sweepPer, a.ch1.sweepNeg, a.ch1.sweepShift = s.Ch1.SweepPer, s.Ch1.SweepNeg, s.Ch1.SweepShift
	a.ch1.sweepTmr, a.ch1.sweepEn, a.ch1.sweepShadow = s.Ch1.SweepTmr, s.Ch1.SweepEn, s.Ch1.SweepShadow

	a.ch2.enabled, a.ch2.duty, a.ch2.length = s.Ch2.Enabled, s.Ch2.Duty, s.Ch2.Length
	a.ch2.lenEn, a.ch2.vol, a.ch2.envDir, a.ch2.envPer = s.Ch2.LenEn, s.Ch2.Vol, s.Ch2.EnvDir, s.Ch2.EnvPer
	a.ch2.curVol, a.ch2.envTmr = s.Ch2.CurVol, s.Ch2.EnvTmr
	a.ch2.freq, a.ch2.timer, a.ch2.phase = s.Ch2.Freq, s.Ch2.Timer, s.Ch2.Phase

	a.ch3.enabled, a.ch3.dacEn, a.ch3.length, a.ch3.lenEn = s.Ch3.Enabled, s.Ch3.DAC, s.Ch3.Length, s.Ch3.LenEn
	a.ch3.volCode, a.ch3.freq, a.ch3.timer, a.ch3.pos = s.Ch3.VolCode, s.Ch3.Freq, s.Ch3.Timer, s.Ch3.Pos
	a.ch3.ram = s.Ch3.RAM

	a.ch4.enabled, a.ch4.length, a.ch4.lenEn = s.Ch4.Enabled, s.Ch4.Length, s.Ch4.LenEn
	a.ch4.vol, a.ch4.envDir, a.ch4.envPer = s.Ch4.Vol, s.Ch4.EnvDir, s.Ch4.EnvPer
	a.ch4.curVol, a.ch4.envTmr = s.Ch4.CurVol, s.Ch4.EnvTmr
	a.ch4.shift, a.ch4.width7, a.ch4.divSel = s.Ch4.Shift, s.Ch4.Width7, s.Ch4.DivSel
	a.ch4.timer, a.ch4.lfsr = s.Ch4.Timer, s.Ch4.LFSR

	a.cycAccum = s.CycAccum
}
