package display

import (
	"fmt"
	"strings"

	"github.com/escplay/escplay/internal/vtparse"
)

// classify turns a single non-print action into the event describing
// it for the UI. It does not consult the running colour state; Print
// events get their colour fields set by the caller instead.
func classify(act vtparse.Action, rawBytes []byte) Event {
	raw := sanitizeRawBytes(rawBytes)

	switch act.Kind {
	case vtparse.KindControl:
		return classifyControl(act.Control, raw)
	case vtparse.KindEsc:
		return classifyEsc(act.Esc, raw)
	case vtparse.KindCSI:
		return classifyCSI(act.CSI, raw)
	case vtparse.KindOSC:
		return classifyOSC(act.OSC, raw)
	case vtparse.KindDeviceControl:
		return genericEscape(strPtr("DCM"), nil, strPtr(act.Str), raw)
	case vtparse.KindSixel:
		return genericEscape(strPtr("Sixel"), strPtr("mdi:image"), strPtr("Sixel image"), raw)
	case vtparse.KindXtGetTcap:
		tooltip := fmt.Sprintf("Get termcap, terminfo for: %s", strings.Join(act.Tcap, ", "))
		return genericEscape(strPtr("XTGETTCAP"), nil, &tooltip, raw)
	case vtparse.KindKittyImage:
		return genericEscape(strPtr("Kitty"), strPtr("mdi:image"), strPtr("Kitty image"), raw)
	default:
		return genericEscape(nil, nil, strPtr(fmt.Sprintf("unhandled action kind %d", act.Kind)), raw)
	}
}

func classifyControl(ctrl vtparse.Control, raw string) Event {
	switch ctrl.Code {
	case vtparse.ControlBell:
		return genericEscape(nil, strPtr("mdi:bell"), strPtr("Bell"), raw)
	case vtparse.ControlBackspace:
		return genericEscape(nil, strPtr("mdi:backspace"), strPtr("Backspace"), raw)
	case vtparse.ControlLineFeed:
		return Event{Kind: EventLineBreak, LineTitle: "LF"}
	case vtparse.ControlCarriageReturn:
		return Event{Kind: EventLineBreak, LineTitle: "CR"}
	case vtparse.ControlHorizontalTab:
		return genericEscape(strPtr("Tab"), nil, nil, raw)
	default:
		return genericEscape(strPtr(fmt.Sprintf("0x%02x", ctrl.Byte)), nil, nil, fmt.Sprintf("0x%02x", ctrl.Byte))
	}
}

func classifyEsc(esc vtparse.Esc, raw string) Event {
	switch esc.Code {
	case vtparse.EscStringTerminator:
		return genericEscape(strPtr(`\`), nil, strPtr("ST / String Terminator"), raw)
	case vtparse.EscDecSaveCursorPosition:
		return genericEscape(nil, strPtr("mdi:content-save"), strPtr("Save cursor position"), raw)
	case vtparse.EscDecRestoreCursorPosition:
		return genericEscape(nil, strPtr("mdi:file-restore"), strPtr("Restore cursor position"), raw)
	case vtparse.EscAsciiCharsetG0, vtparse.EscAsciiCharsetG1:
		return genericEscape(nil, strPtr("mdi:alphabetical-variant"), strPtr(esc.Debug), raw)
	case vtparse.EscUnspecified:
		return genericEscape(nil, strPtr("mdi:help"), strPtr("Unspecified escape sequence"), raw)
	default:
		tooltip := esc.Debug
		if tooltip == "" {
			tooltip = "Unspecified escape sequence"
		}
		return genericEscape(strPtr("ESC"), nil, &tooltip, raw)
	}
}

func classifyCSI(csi vtparse.CSI, raw string) Event {
	switch csi.Category {
	case "Sgr":
		return classifySgr(csi.Sgr, raw)
	case "Cursor":
		tooltip := fmt.Sprintf("Update cursor: %s", csi.Debug)
		return genericEscape(nil, strPtr("ph:cursor-text-fill"), &tooltip, raw)
	case "Edit":
		if csi.Edit == nil {
			return genericEscape(strPtr("Edit"), nil, strPtr(csi.Debug), raw)
		}
		switch csi.Edit.Kind {
		case vtparse.EditEraseInLine:
			return genericEscape(nil, strPtr("mdi:eraser"), strPtr(eraseInLineTooltip(csi.Edit.Variant)), raw)
		case vtparse.EditEraseInDisplay:
			return genericEscape(nil, strPtr("mdi:eraser"), strPtr(eraseInDisplayTooltip(csi.Edit.Variant)), raw)
		default:
			return genericEscape(strPtr("Edit"), nil, strPtr(csi.Edit.Debug), raw)
		}
	default:
		return genericEscape(strPtr("CSI"), nil, strPtr(csi.Debug), raw)
	}
}

func eraseInLineTooltip(v vtparse.EraseVariant) string {
	switch v {
	case vtparse.EraseToEnd:
		return "Erase to end of line"
	case vtparse.EraseToStart:
		return "Erase to start of line"
	default:
		return "Erase line"
	}
}

func eraseInDisplayTooltip(v vtparse.EraseVariant) string {
	switch v {
	case vtparse.EraseToEnd:
		return "Erase to end of display"
	case vtparse.EraseToStart:
		return "Erase to start of display"
	case vtparse.EraseScrollback:
		return "Erase scrollback"
	default:
		return "Erase display"
	}
}

func classifySgr(sgr *vtparse.Sgr, raw string) Event {
	if sgr == nil {
		return genericEscape(strPtr("SGR"), nil, nil, raw)
	}
	switch sgr.Kind {
	case vtparse.SgrReset:
		return genericEscape(nil, strPtr("carbon:reset"), strPtr("SGR (Select Graphic Rendition) Reset (reset all styles)"), raw)
	case vtparse.SgrForeground:
		return colorEscape("FG", "Set foreground color to", sgr.Color, raw)
	case vtparse.SgrBackground:
		return colorEscape("BG", "Set background color to", sgr.Color, raw)
	default:
		tooltip := fmt.Sprintf("Set %s", sgr.Debug)
		return genericEscape(strPtr("SGR"), nil, &tooltip, raw)
	}
}

func colorEscape(title, verb string, color vtparse.ColorSpec, raw string) Event {
	hex := hexFromColorSpec(color)
	rendered := "black"
	if hex != nil {
		rendered = *hex
	}
	tooltip := fmt.Sprintf("%s: %s", verb, color.String())
	return Event{Kind: EventColorEscape, Title: strPtr(title), Tooltip: &tooltip, HexColor: rendered, RawBytes: raw}
}

func classifyOSC(osc vtparse.OSC, raw string) Event {
	if osc.Kind == vtparse.OSCSetHyperlink {
		if osc.URI != nil {
			tooltip := fmt.Sprintf("Set hyperlink: %s", *osc.URI)
			return genericEscape(nil, strPtr("mdi:link"), &tooltip, raw)
		}
		return genericEscape(nil, strPtr("mdi:link-off"), strPtr("Clear hyperlink"), raw)
	}
	return genericEscape(strPtr("OSC"), nil, strPtr(osc.Debug), raw)
}

// sanitizeRawBytes renders raw action bytes as a display string, with
// ESC (0x1b) replaced by the literal two characters `\x1b` so it shows
// up legibly instead of executing against whatever terminal renders
// it. No other byte substitutions are performed.
func sanitizeRawBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c == 0x1b {
			sb.WriteString(`\x1b`)
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
