package display

import (
	"testing"

	"github.com/escplay/escplay/internal/vtparse"
)

func TestSanitizeRawBytesOnlyEscapesEsc(t *testing.T) {
	got := sanitizeRawBytes([]byte("\x1b[K\t\r\x07"))
	want := "\\x1b[K\t\r\x07"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassifyEraseInLineVariants(t *testing.T) {
	cases := []struct {
		variant vtparse.EraseVariant
		want    string
	}{
		{vtparse.EraseToEnd, "Erase to end of line"},
		{vtparse.EraseToStart, "Erase to start of line"},
		{vtparse.EraseAll, "Erase line"},
	}
	for _, tc := range cases {
		act := vtparse.Action{Kind: vtparse.KindCSI, CSI: vtparse.CSI{
			Category: "Edit",
			Edit:     &vtparse.Edit{Kind: vtparse.EditEraseInLine, Variant: tc.variant},
		}}
		ev := classify(act, []byte("\x1b[K"))
		if ev.Tooltip == nil || *ev.Tooltip != tc.want {
			t.Errorf("variant %v: tooltip = %v, want %q", tc.variant, ev.Tooltip, tc.want)
		}
		if ev.IconSVG == nil || *ev.IconSVG != "mdi:eraser" {
			t.Errorf("variant %v: icon = %v, want mdi:eraser", tc.variant, ev.IconSVG)
		}
	}
}

func TestClassifyEraseInDisplayVariants(t *testing.T) {
	cases := []struct {
		variant vtparse.EraseVariant
		want    string
	}{
		{vtparse.EraseToEnd, "Erase to end of display"},
		{vtparse.EraseToStart, "Erase to start of display"},
		{vtparse.EraseAll, "Erase display"},
		{vtparse.EraseScrollback, "Erase scrollback"},
	}
	for _, tc := range cases {
		act := vtparse.Action{Kind: vtparse.KindCSI, CSI: vtparse.CSI{
			Category: "Edit",
			Edit:     &vtparse.Edit{Kind: vtparse.EditEraseInDisplay, Variant: tc.variant},
		}}
		ev := classify(act, []byte("\x1b[2J"))
		if ev.Tooltip == nil || *ev.Tooltip != tc.want {
			t.Errorf("variant %v: tooltip = %v, want %q", tc.variant, ev.Tooltip, tc.want)
		}
	}
}

func TestClassifyOtherControlRawBytesIsHex(t *testing.T) {
	act := vtparse.Action{Kind: vtparse.KindControl, Control: vtparse.Control{Code: vtparse.ControlOther, Byte: 0x01}}
	ev := classify(act, []byte{0x01})
	if ev.RawBytes != "0x01" {
		t.Errorf("raw bytes = %q, want 0x01", ev.RawBytes)
	}
	if ev.Title == nil || *ev.Title != "0x01" {
		t.Errorf("title = %v, want 0x01", ev.Title)
	}
}

func TestClassifyOSCSetHyperlink(t *testing.T) {
	uri := "https://example.com"
	act := vtparse.Action{Kind: vtparse.KindOSC, OSC: vtparse.OSC{Kind: vtparse.OSCSetHyperlink, URI: &uri}}
	ev := classify(act, []byte("\x1b]8;;https://example.com\x07"))
	if ev.Tooltip == nil || *ev.Tooltip != "Set hyperlink: https://example.com" {
		t.Errorf("tooltip = %v", ev.Tooltip)
	}

	clear := vtparse.Action{Kind: vtparse.KindOSC, OSC: vtparse.OSC{Kind: vtparse.OSCSetHyperlink}}
	ev = classify(clear, []byte("\x1b]8;;\x07"))
	if ev.Tooltip == nil || *ev.Tooltip != "Clear hyperlink" {
		t.Errorf("tooltip = %v, want Clear hyperlink", ev.Tooltip)
	}
}
