package display

import (
	"github.com/escplay/escplay/internal/vtparse"
)

// Classifier turns a stream of (Action, raw bytes) tuples from the
// parser driver into display events, maintaining the running state
// that spans individual actions: the active foreground/background
// colour, whether the previous event was a line break (for invisible
// line-break bracketing), and whether the previous event was a Print
// this one can coalesce into.
type Classifier struct {
	fgColor *string
	bgColor *string

	lastWasLineBreak bool
	lastWasPrint     bool
	lastPrintText    string

	sequenceCount int64
}

// New returns a Classifier with default (unset) colour state.
func New() *Classifier {
	return &Classifier{}
}

// SequenceCount is the number of non-coalesced events classified so
// far, i.e. the "N escape sequences processed" count reported on exit.
func (c *Classifier) SequenceCount() int64 {
	return c.sequenceCount
}

// Result is what Feed produces for one action. Store is what the
// caller should record in history, applying StoreCoalesced the same
// way history itself does (replace the last recorded event rather
// than append). Live is what the caller should broadcast to
// subscribers; for a coalesced print it is only the incremental text
// just appended, not the full growing string recorded in Store,
// matching how a live viewer reassembles a string one delta at a time
// instead of re-receiving it in full on every keystroke.
type Result struct {
	Store          []Event
	StoreCoalesced bool
	Live           []Event
}

// Feed classifies one action into a Result.
func (c *Classifier) Feed(act vtparse.Action, rawBytes []byte) Result {
	if isPrintAction(act) {
		text := printText(act)
		delta := Event{Kind: EventPrint, String: text, Color: c.fgColor, BgColor: c.bgColor}

		if c.lastWasPrint {
			c.lastPrintText += text
			full := Event{Kind: EventPrint, String: c.lastPrintText, Color: c.fgColor, BgColor: c.bgColor}
			return Result{Store: []Event{full}, StoreCoalesced: true, Live: []Event{delta}}
		}

		c.sequenceCount++
		c.lastPrintText = text
		c.lastWasPrint = true
		bracketed := c.bracket(delta, false)
		return Result{Store: bracketed, Live: bracketed}
	}

	c.lastWasPrint = false
	c.sequenceCount++
	updateGlobalColors(act, &c.fgColor, &c.bgColor)

	ev := classify(act, rawBytes)
	isLineBreak := ev.Kind == EventLineBreak
	bracketed := c.bracket(ev, isLineBreak)
	return Result{Store: bracketed, Live: bracketed}
}

// bracket prepends an InvisibleLineBreak marker whenever ev's
// line-break-ness differs from the previous event's, so the UI can
// detect a transition into or out of a run of line breaks without
// every such run being visually indistinguishable from a single
// newline.
func (c *Classifier) bracket(ev Event, isLineBreak bool) []Event {
	var out []Event
	if isLineBreak != c.lastWasLineBreak {
		out = append(out, Event{Kind: EventInvisibleLineBreak})
	}
	out = append(out, ev)
	c.lastWasLineBreak = isLineBreak
	return out
}

func isPrintAction(act vtparse.Action) bool {
	return act.Kind == vtparse.KindPrint || act.Kind == vtparse.KindPrintString
}

func printText(act vtparse.Action) string {
	if act.Kind == vtparse.KindPrint {
		return string(act.Rune)
	}
	return act.Str
}
