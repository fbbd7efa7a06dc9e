// Package vtparse is the parser driver: it feeds raw child-output bytes,
// one at a time, into an external escape-sequence grammar engine and
// turns that engine's callbacks into a stream of (Action, raw bytes)
// tuples, exactly as described for the capture-and-publish pipeline's
// parser-driver stage.
package vtparse

import "fmt"

// Kind discriminates the cases of Action. The implementer treats the
// payload of every Kind except the ones the classifier explicitly
// switches on as opaque debug text.
type Kind int

const (
	KindPrint Kind = iota
	KindPrintString
	KindControl
	KindEsc
	KindCSI
	KindOSC
	KindDeviceControl
	KindSixel
	KindXtGetTcap
	KindKittyImage
)

// ControlCode names the C0 control bytes the classifier cares about by
// name; anything else is ControlOther with Byte set.
type ControlCode int

const (
	ControlLineFeed ControlCode = iota
	ControlCarriageReturn
	ControlBell
	ControlBackspace
	ControlHorizontalTab
	ControlOther
)

// Control is the payload of a Kind == KindControl action.
type Control struct {
	Code ControlCode
	Byte byte // set when Code == ControlOther
}

// EscKind names the ESC-prefixed sequences the classifier cares about by
// name.
type EscKind int

const (
	EscUnspecified EscKind = iota
	EscStringTerminator
	EscDecSaveCursorPosition
	EscDecRestoreCursorPosition
	EscAsciiCharsetG0
	EscAsciiCharsetG1
	EscOther
)

// Esc is the payload of a Kind == KindEsc action.
type Esc struct {
	Code  EscKind
	Debug string // human-readable name, always set for EscOther
}

// SgrKind names the SGR (Select Graphic Rendition) subcases the
// classifier treats specially.
type SgrKind int

const (
	SgrReset SgrKind = iota
	SgrForeground
	SgrBackground
	SgrOther
)

// ColorSpec is a resolved SGR colour argument: exactly one of Default,
// Palette, or RGB is set.
type ColorSpec struct {
	Default bool
	Palette *uint8
	RGB     *[3]uint8
}

func (c ColorSpec) String() string {
	switch {
	case c.RGB != nil:
		return fmt.Sprintf("rgb(%d,%d,%d)", c.RGB[0], c.RGB[1], c.RGB[2])
	case c.Palette != nil:
		return fmt.Sprintf("palette %d", *c.Palette)
	default:
		return "default"
	}
}

// Sgr is the payload of a CSI action in the "Sgr" category.
type Sgr struct {
	Kind  SgrKind
	Color ColorSpec // set for SgrForeground/SgrBackground
	Debug string    // set for SgrOther
}

// EditKind distinguishes erase-in-line from erase-in-display CSI edit
// operations.
type EditKind int

const (
	EditEraseInLine EditKind = iota
	EditEraseInDisplay
	EditOther
)

// EraseVariant is the parameter of an erase operation.
type EraseVariant int

const (
	EraseToEnd EraseVariant = iota
	EraseToStart
	EraseAll
	EraseScrollback // EraseInDisplay only
)

// Edit is the payload of a CSI action in the "Edit" category.
type Edit struct {
	Kind    EditKind
	Variant EraseVariant
	Debug   string
}

// CSI is the payload of a Kind == KindCSI action. Category is one of
// "Sgr", "Cursor", "Edit", or "Other"; the matching pointer field (or,
// for "Cursor"/"Other", Debug) carries the detail.
type CSI struct {
	Category string
	Sgr      *Sgr
	Edit     *Edit
	Debug    string // set for "Cursor" and "Other"
}

// OSCKind distinguishes hyperlink set/clear from every other OSC.
type OSCKind int

const (
	OSCSetHyperlink OSCKind = iota
	OSCOther
)

// OSC is the payload of a Kind == KindOSC action.
type OSC struct {
	Kind  OSCKind
	URI   *string // set for OSCSetHyperlink when setting; nil when clearing
	Debug string  // set for OSCOther
}

// Action is the tagged union produced by the parser driver for every
// unit the grammar engine recognises: a printable codepoint, a run of
// printable codepoints, a C0 control byte, or a complete escape
// sequence.
type Action struct {
	Kind Kind

	Rune rune   // KindPrint
	Str  string // KindPrintString, KindKittyImage/KindSixel/KindDeviceControl debug

	Control Control
	Esc     Esc
	CSI     CSI
	OSC     OSC

	Tcap []string // KindXtGetTcap
}
