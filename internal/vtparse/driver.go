package vtparse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/danielgatis/go-ansicode"
)

// Tuple pairs a classified Action with the exact raw bytes that produced
// it, per the parser driver's contract: the concatenation of RawBytes
// across every emitted Tuple, in emission order, equals the raw
// child-output stream exactly.
type Tuple struct {
	Action   Action
	RawBytes []byte
}

// Driver feeds bytes one at a time into an ansicode decoder and emits
// one Tuple per action the decoder's callbacks produce, tagging every
// action produced from the same byte with a copy of the same byte
// window. It implements ansicode.Handler itself, since the actions
// arrive synchronously as method calls during decoder.Write.
type Driver struct {
	decoder *ansicode.Decoder
	out     chan<- Tuple
	done    <-chan struct{}

	window  bytes.Buffer
	pending []Action
}

// NewDriver returns a Driver that emits onto out (closed by the caller
// once Write will no longer be called) and stops emitting, without
// blocking forever, once done is closed.
func NewDriver(out chan<- Tuple, done <-chan struct{}) *Driver {
	d := &Driver{out: out, done: done}
	d.decoder = ansicode.NewDecoder(d)
	return d
}

// Write feeds data one byte at a time into the parser, emitting a Tuple
// for every Action the parser's callbacks produce for that byte. It
// returns (n, nil) having processed n bytes if the consumer disappeared
// (done was closed) partway through; the caller should stop calling
// Write after that.
func (d *Driver) Write(data []byte) (int, error) {
	for i, b := range data {
		d.window.WriteByte(b)
		d.pending = d.pending[:0]

		if _, err := d.decoder.Write([]byte{b}); err != nil {
			return i, fmt.Errorf("decode byte: %w", err)
		}

		if len(d.pending) == 0 {
			continue
		}

		raw := append([]byte(nil), d.window.Bytes()...)
		d.window.Reset()

		for _, act := range d.pending {
			select {
			case d.out <- Tuple{Action: act, RawBytes: raw}:
			case <-d.done:
				return i + 1, nil
			}
		}
	}
	return len(data), nil
}

func (d *Driver) push(a Action) {
	d.pending = append(d.pending, a)
}

// --- ansicode.Handler: printable text and C0 controls ---

func (d *Driver) Input(r rune) {
	d.push(Action{Kind: KindPrint, Rune: r})
}

func (d *Driver) LineFeed() {
	d.push(Action{Kind: KindControl, Control: Control{Code: ControlLineFeed}})
}

func (d *Driver) CarriageReturn() {
	d.push(Action{Kind: KindControl, Control: Control{Code: ControlCarriageReturn}})
}

func (d *Driver) Bell() {
	d.push(Action{Kind: KindControl, Control: Control{Code: ControlBell}})
}

func (d *Driver) Backspace() {
	d.push(Action{Kind: KindControl, Control: Control{Code: ControlBackspace}})
}

func (d *Driver) Tab(n int) {
	d.push(Action{Kind: KindControl, Control: Control{Code: ControlHorizontalTab}})
}

// --- cursor movement: all classified as CSI "Cursor" ---

func (d *Driver) pushCursor(debug string) {
	d.push(Action{Kind: KindCSI, CSI: CSI{Category: "Cursor", Debug: debug}})
}

func (d *Driver) Goto(row, col int)  { d.pushCursor(fmt.Sprintf("goto row %d col %d", row, col)) }
func (d *Driver) GotoCol(col int)    { d.pushCursor(fmt.Sprintf("goto col %d", col)) }
func (d *Driver) GotoLine(row int)   { d.pushCursor(fmt.Sprintf("goto line %d", row)) }
func (d *Driver) MoveUp(n int)       { d.pushCursor(fmt.Sprintf("move up %d", n)) }
func (d *Driver) MoveDown(n int)     { d.pushCursor(fmt.Sprintf("move down %d", n)) }
func (d *Driver) MoveForward(n int)  { d.pushCursor(fmt.Sprintf("move forward %d", n)) }
func (d *Driver) MoveBackward(n int) { d.pushCursor(fmt.Sprintf("move backward %d", n)) }
func (d *Driver) MoveDownCr(n int)   { d.pushCursor(fmt.Sprintf("move down %d + cr", n)) }
func (d *Driver) MoveUpCr(n int)     { d.pushCursor(fmt.Sprintf("move up %d + cr", n)) }
func (d *Driver) MoveForwardTabs(n int) {
	d.pushCursor(fmt.Sprintf("move forward %d tabs", n))
}
func (d *Driver) MoveBackwardTabs(n int) {
	d.pushCursor(fmt.Sprintf("move backward %d tabs", n))
}

func (d *Driver) SaveCursorPosition() {
	d.push(Action{Kind: KindEsc, Esc: Esc{Code: EscDecSaveCursorPosition}})
}

func (d *Driver) RestoreCursorPosition() {
	d.push(Action{Kind: KindEsc, Esc: Esc{Code: EscDecRestoreCursorPosition}})
}

// --- erase: classified as CSI "Edit" ---

func (d *Driver) ClearLine(mode ansicode.LineClearMode) {
	variant, debug := lineEraseVariant(mode)
	d.push(Action{Kind: KindCSI, CSI: CSI{Category: "Edit", Edit: &Edit{Kind: EditEraseInLine, Variant: variant, Debug: debug}}})
}

func (d *Driver) ClearScreen(mode ansicode.ClearMode) {
	variant, debug := screenEraseVariant(mode)
	d.push(Action{Kind: KindCSI, CSI: CSI{Category: "Edit", Edit: &Edit{Kind: EditEraseInDisplay, Variant: variant, Debug: debug}}})
}

func lineEraseVariant(mode ansicode.LineClearMode) (EraseVariant, string) {
	s := fmt.Sprintf("%v", mode)
	switch {
	case strings.Contains(s, "Right"):
		return EraseToEnd, s
	case strings.Contains(s, "Left"):
		return EraseToStart, s
	default:
		return EraseAll, s
	}
}

func screenEraseVariant(mode ansicode.ClearMode) (EraseVariant, string) {
	s := fmt.Sprintf("%v", mode)
	switch {
	case strings.Contains(s, "Below"):
		return EraseToEnd, s
	case strings.Contains(s, "Above"):
		return EraseToStart, s
	case strings.Contains(s, "Saved") || strings.Contains(s, "Scrollback"):
		return EraseScrollback, s
	default:
		return EraseAll, s
	}
}

// --- SGR: classified as CSI "Sgr" ---

func (d *Driver) SetTerminalCharAttribute(attr ansicode.TerminalCharAttribute) {
	switch attr.Attr {
	case ansicode.CharAttributeReset:
		d.push(Action{Kind: KindCSI, CSI: CSI{Category: "Sgr", Sgr: &Sgr{Kind: SgrReset}}})
	case ansicode.CharAttributeForeground:
		color := colorSpecFromAttr(attr)
		d.push(Action{Kind: KindCSI, CSI: CSI{Category: "Sgr", Sgr: &Sgr{Kind: SgrForeground, Color: color}}})
	case ansicode.CharAttributeBackground:
		color := colorSpecFromAttr(attr)
		d.push(Action{Kind: KindCSI, CSI: CSI{Category: "Sgr", Sgr: &Sgr{Kind: SgrBackground, Color: color}}})
	default:
		d.push(Action{Kind: KindCSI, CSI: CSI{Category: "Sgr", Sgr: &Sgr{Kind: SgrOther, Debug: fmt.Sprintf("%v", attr.Attr)}}})
	}
}

func colorSpecFromAttr(attr ansicode.TerminalCharAttribute) ColorSpec {
	if attr.RGBColor != nil {
		rgb := [3]uint8{attr.RGBColor.R, attr.RGBColor.G, attr.RGBColor.B}
		return ColorSpec{RGB: &rgb}
	}
	if attr.IndexedColor != nil {
		idx := attr.IndexedColor.Index
		return ColorSpec{Palette: &idx}
	}
	// A named/default colour (including attr.NamedColor != nil) resets
	// to the terminal default, matching the original's "unspecified
	// colour" handling.
	return ColorSpec{Default: true}
}

// --- OSC ---

func (d *Driver) SetHyperlink(hyperlink *ansicode.Hyperlink) {
	if hyperlink == nil || hyperlink.URI == "" {
		d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCSetHyperlink, URI: nil}})
		return
	}
	uri := hyperlink.URI
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCSetHyperlink, URI: &uri}})
}

func (d *Driver) SetTitle(title string) {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: fmt.Sprintf("OSC 0/2 set title %q", title)}})
}

func (d *Driver) PushTitle() {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: "OSC 22 push title"}})
}

func (d *Driver) PopTitle() {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: "OSC 23 pop title"}})
}

func (d *Driver) SetColor(index int, c interface{}) {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: fmt.Sprintf("OSC 4 set palette color %d", index)}})
}

func (d *Driver) ResetColor(i int) {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: fmt.Sprintf("OSC 104 reset palette color %d", i)}})
}

func (d *Driver) SetDynamicColor(prefix string, index int, terminator string) {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: fmt.Sprintf("%s dynamic color %d", prefix, index)}})
}

func (d *Driver) ClipboardLoad(clipboard byte, terminator string) {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: "OSC 52 clipboard load"}})
}

func (d *Driver) ClipboardStore(clipboard byte, data []byte) {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: "OSC 52 clipboard store"}})
}

func (d *Driver) SetWorkingDirectory(uri string) {
	d.push(Action{Kind: KindOSC, OSC: OSC{Kind: OSCOther, Debug: fmt.Sprintf("OSC 7 working directory: %s", uri)}})
}

// --- DCS / APC / PM / sixel / kitty ---

func (d *Driver) StartOfStringReceived(data []byte) {
	if name, ok := xtGetTcapNames(data); ok {
		d.push(Action{Kind: KindXtGetTcap, Tcap: name})
		return
	}
	d.push(Action{Kind: KindDeviceControl, Str: fmt.Sprintf("DCS %d bytes", len(data))})
}

// xtGetTcapNames recognises an XTGETTCAP request (DCS + q <hex names>)
// and splits its semicolon-separated, hex-encoded capability names.
func xtGetTcapNames(data []byte) ([]string, bool) {
	if !bytes.HasPrefix(data, []byte("+q")) {
		return nil, false
	}
	parts := strings.Split(string(data[2:]), ";")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		names = append(names, p)
	}
	return names, true
}

func (d *Driver) PrivacyMessageReceived(data []byte) {
	d.push(Action{Kind: KindDeviceControl, Str: fmt.Sprintf("PM %d bytes", len(data))})
}

func (d *Driver) ApplicationCommandReceived(data []byte) {
	d.push(Action{Kind: KindKittyImage, Str: fmt.Sprintf("kitty graphics command, %d bytes", len(data))})
}

func (d *Driver) SixelReceived(params [][]uint16, data []byte) {
	d.push(Action{Kind: KindSixel, Str: fmt.Sprintf("sixel image, %d bytes", len(data))})
}

// --- everything else: classified as generic CSI or Esc ---

func (d *Driver) pushOtherCSI(debug string) {
	d.push(Action{Kind: KindCSI, CSI: CSI{Category: "Other", Debug: debug}})
}

func (d *Driver) pushOtherEsc(debug string) {
	d.push(Action{Kind: KindEsc, Esc: Esc{Code: EscOther, Debug: debug}})
}

func (d *Driver) ScrollUp(n int)                  { d.pushOtherCSI(fmt.Sprintf("scroll up %d", n)) }
func (d *Driver) ScrollDown(n int)                { d.pushOtherCSI(fmt.Sprintf("scroll down %d", n)) }
func (d *Driver) InsertBlank(n int)               { d.pushOtherCSI(fmt.Sprintf("insert %d blank", n)) }
func (d *Driver) InsertBlankLines(n int)          { d.pushOtherCSI(fmt.Sprintf("insert %d blank lines", n)) }
func (d *Driver) DeleteChars(n int)               { d.pushOtherCSI(fmt.Sprintf("delete %d chars", n)) }
func (d *Driver) DeleteLines(n int)               { d.pushOtherCSI(fmt.Sprintf("delete %d lines", n)) }
func (d *Driver) EraseChars(n int)                { d.pushOtherCSI(fmt.Sprintf("erase %d chars", n)) }
func (d *Driver) SetScrollingRegion(top, bottom int) {
	d.pushOtherCSI(fmt.Sprintf("set scrolling region %d-%d", top, bottom))
}
func (d *Driver) SetMode(mode ansicode.TerminalMode)   { d.pushOtherCSI(fmt.Sprintf("set mode %v", mode)) }
func (d *Driver) UnsetMode(mode ansicode.TerminalMode) { d.pushOtherCSI(fmt.Sprintf("unset mode %v", mode)) }
func (d *Driver) SetCursorStyle(style ansicode.CursorStyle) {
	d.pushOtherCSI(fmt.Sprintf("set cursor style %v", style))
}
func (d *Driver) DeviceStatus(n int) { d.pushOtherCSI(fmt.Sprintf("device status report %d", n)) }
func (d *Driver) IdentifyTerminal(b byte) {
	d.pushOtherCSI(fmt.Sprintf("identify terminal %q", b))
}
func (d *Driver) ReportKeyboardMode() { d.pushOtherCSI("report keyboard mode") }
func (d *Driver) ReportModifyOtherKeys() {
	d.pushOtherCSI("report modify-other-keys")
}
func (d *Driver) PushKeyboardMode(mode ansicode.KeyboardMode) {
	d.pushOtherCSI(fmt.Sprintf("push keyboard mode %v", mode))
}
func (d *Driver) PopKeyboardMode(n int) { d.pushOtherCSI(fmt.Sprintf("pop %d keyboard modes", n)) }
func (d *Driver) SetKeyboardMode(mode ansicode.KeyboardMode, behavior ansicode.KeyboardModeBehavior) {
	d.pushOtherCSI(fmt.Sprintf("set keyboard mode %v (%v)", mode, behavior))
}
func (d *Driver) SetModifyOtherKeys(modify ansicode.ModifyOtherKeys) {
	d.pushOtherCSI(fmt.Sprintf("set modify-other-keys %v", modify))
}
func (d *Driver) TextAreaSizeChars()  { d.pushOtherCSI("report text area size in chars") }
func (d *Driver) TextAreaSizePixels() { d.pushOtherCSI("report text area size in pixels") }
func (d *Driver) CellSizePixels()     { d.pushOtherCSI("report cell size in pixels") }
func (d *Driver) ClearTabs(mode ansicode.TabulationClearMode) {
	d.pushOtherCSI(fmt.Sprintf("clear tabs %v", mode))
}

func (d *Driver) HorizontalTabSet()         { d.pushOtherEsc("horizontal tab set") }
func (d *Driver) ReverseIndex()             { d.pushOtherEsc("reverse index") }
func (d *Driver) Decaln()                   { d.pushOtherEsc("DEC alignment test") }
func (d *Driver) Substitute()               { d.pushOtherEsc("substitute") }
func (d *Driver) ResetState()               { d.pushOtherEsc("full reset") }
func (d *Driver) SetKeypadApplicationMode() { d.pushOtherEsc("set keypad application mode") }
func (d *Driver) UnsetKeypadApplicationMode() {
	d.pushOtherEsc("unset keypad application mode")
}
func (d *Driver) SetActiveCharset(n int) { d.pushOtherEsc(fmt.Sprintf("set active charset G%d", n)) }
func (d *Driver) ConfigureCharset(index ansicode.CharsetIndex, charset ansicode.Charset) {
	switch fmt.Sprintf("%v", charset) {
	case "Ascii", "ASCII":
		if fmt.Sprintf("%v", index) == "G1" {
			d.push(Action{Kind: KindEsc, Esc: Esc{Code: EscAsciiCharsetG1, Debug: "designate ASCII to G1"}})
			return
		}
		d.push(Action{Kind: KindEsc, Esc: Esc{Code: EscAsciiCharsetG0, Debug: "designate ASCII to G0"}})
		return
	}
	d.pushOtherEsc(fmt.Sprintf("configure charset %v = %v", index, charset))
}
