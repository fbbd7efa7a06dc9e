package display

import (
	"fmt"

	"github.com/escplay/escplay/internal/vtparse"
)

// ansi16 is the standard 16-colour ANSI palette, indices 0-15.
var ansi16 = [16][3]uint8{
	{0x00, 0x00, 0x00}, {0x80, 0x00, 0x00}, {0x00, 0x80, 0x00}, {0x80, 0x80, 0x00},
	{0x00, 0x00, 0x80}, {0x80, 0x00, 0x80}, {0x00, 0x80, 0x80}, {0xc0, 0xc0, 0xc0},
	{0x80, 0x80, 0x80}, {0xff, 0x00, 0x00}, {0x00, 0xff, 0x00}, {0xff, 0xff, 0x00},
	{0x00, 0x00, 0xff}, {0xff, 0x00, 0xff}, {0x00, 0xff, 0xff}, {0xff, 0xff, 0xff},
}

// cubeLevel is the xterm 6x6x6 colour cube's per-channel intensity table.
var cubeLevel = [6]uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}

// ansi256Hex converts an indexed (0-255) terminal colour to its #rrggbb
// hex rendering, following the standard xterm 256-colour palette: 0-15
// are the named ANSI colours, 16-231 are a 6x6x6 colour cube, and
// 232-255 are a 24-step greyscale ramp.
func ansi256Hex(idx uint8) string {
	switch {
	case idx < 16:
		rgb := ansi16[idx]
		return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
	case idx < 232:
		n := int(idx) - 16
		r := cubeLevel[n/36]
		g := cubeLevel[(n/6)%6]
		b := cubeLevel[n%6]
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	default:
		v := 8 + 10*(int(idx)-232)
		return fmt.Sprintf("#%02x%02x%02x", v, v, v)
	}
}

// hexFromColorSpec renders a resolved SGR colour argument as a #rrggbb
// string, or nil for the terminal's default colour.
func hexFromColorSpec(c vtparse.ColorSpec) *string {
	switch {
	case c.RGB != nil:
		s := fmt.Sprintf("#%02x%02x%02x", c.RGB[0], c.RGB[1], c.RGB[2])
		return &s
	case c.Palette != nil:
		s := ansi256Hex(*c.Palette)
		return &s
	default:
		return nil
	}
}

// updateGlobalColors applies a Sgr action to the running foreground and
// background colour state, which rides along on every subsequent Print
// event until the next Sgr change or reset.
func updateGlobalColors(act vtparse.Action, fg, bg **string) {
	if act.Kind != vtparse.KindCSI || act.CSI.Category != "Sgr" || act.CSI.Sgr == nil {
		return
	}
	switch act.CSI.Sgr.Kind {
	case vtparse.SgrForeground:
		*fg = hexFromColorSpec(act.CSI.Sgr.Color)
	case vtparse.SgrBackground:
		*bg = hexFromColorSpec(act.CSI.Sgr.Color)
	case vtparse.SgrReset:
		*fg = nil
		*bg = nil
	}
}
