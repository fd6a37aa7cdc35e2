package joypad

import "testing"

func TestJoypad_DefaultReadNoGroupSelected(t *testing.T) {
	j := New()
	if got := j.Read(); got&0x0F != 0x0F {
		t.Fatalf("default lower nibble got %02x want 0F", got&0x0F)
	}
}

func TestJoypad_DPadSelection(t *testing.T) {
	j := New()
	j.WriteSelect(0x20) // P14=0 selects D-pad, P15=1
	j.SetState(Right | Up)
	if got := j.Read() & 0x0F; got != 0x0A { // 1010b
		t.Fatalf("D-pad got %02x want 0A", got)
	}
}

func TestJoypad_ButtonSelection(t *testing.T) {
	j := New()
	j.WriteSelect(0x10) // P15=0 selects buttons, P14=1
	j.SetState(A | Start)
	if got := j.Read() & 0x0F; got != 0x06 { // 0110b
		t.Fatalf("buttons got %02x want 06", got)
	}
}

func TestJoypad_BothGroupsSelectedAND(t *testing.T) {
	j := New()
	j.WriteSelect(0x00) // both groups selected
	j.SetState(Right | A)
	got := j.Read() & 0x0F
	if got&0x01 != 0 { // Right (dpad bit0) and A (button bit0) both held -> bit0 low
		t.Fatalf("bit0 got set, want held (low): %02x", got)
	}
}

func TestJoypad_SetStateReportsFallingEdgeOnSelectedGroup(t *testing.T) {
	j := New()
	j.WriteSelect(0x20) // D-pad selected
	if edge := j.SetState(0); edge {
		t.Fatalf("no buttons held: expected no falling edge")
	}
	if edge := j.SetState(Down); !edge {
		t.Fatalf("Down pressed on selected D-pad group: expected falling edge")
	}
	// Releasing doesn't produce a falling edge (it's a rising edge, 0->1 on active-low bit).
	if edge := j.SetState(0); edge {
		t.Fatalf("releasing should not report a falling edge")
	}
}

func TestJoypad_FallingEdgeIgnoredWhenGroupNotSelected(t *testing.T) {
	j := New()
	j.WriteSelect(0x10) // only buttons selected, not D-pad
	if edge := j.SetState(Right); edge {
		t.Fatalf("D-pad press with D-pad unselected should not report a falling edge")
	}
}

func TestJoypad_ReadUpperBitsAlwaysSet(t *testing.T) {
	j := New()
	j.WriteSelect(0x30)
	if got := j.Read(); got&0xC0 != 0xC0 {
		t.Fatalf("bits 7-6 got %02x want set", got&0xC0)
	}
}
