// Package display turns classified parser actions into the JSON event
// stream the web UI consumes: it coalesces consecutive prints, tracks
// the active foreground/background colour so every Print event carries
// its own rendered colour, and brackets runs of line breaks with an
// invisible marker so the UI can tell where such a run starts and
// ends.
package display

import (
	"encoding/json"
	"fmt"
)

// EventKind discriminates the cases of Event.
type EventKind int

const (
	EventPrint EventKind = iota
	EventGenericEscape
	EventColorEscape
	EventInvisibleLineBreak
	EventLineBreak
)

// Event is the tagged union streamed to subscribers. Exactly the fields
// relevant to Kind are populated; MarshalJSON renders it as a flat
// object with a "type" discriminator, matching the shape the original
// tool's frontend already expects.
type Event struct {
	Kind EventKind

	// EventPrint
	String string
	Color  *string
	BgColor *string

	// EventGenericEscape / EventColorEscape
	Title    *string
	IconSVG  *string
	Tooltip  *string
	RawBytes string
	HexColor string // EventColorEscape only

	// EventLineBreak
	LineTitle string
}

func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EventPrint:
		return json.Marshal(struct {
			Type    string  `json:"type"`
			String  string  `json:"string"`
			Color   *string `json:"color"`
			BgColor *string `json:"bg_color"`
		}{"Print", e.String, e.Color, e.BgColor})

	case EventGenericEscape:
		return json.Marshal(struct {
			Type     string  `json:"type"`
			Title    *string `json:"title"`
			IconSVG  *string `json:"icon_svg"`
			Tooltip  *string `json:"tooltip"`
			RawBytes string  `json:"raw_bytes"`
		}{"GenericEscape", e.Title, e.IconSVG, e.Tooltip, e.RawBytes})

	case EventColorEscape:
		return json.Marshal(struct {
			Type     string  `json:"type"`
			Title    *string `json:"title"`
			IconSVG  *string `json:"icon_svg"`
			Tooltip  *string `json:"tooltip"`
			Color    string  `json:"color"`
			RawBytes string  `json:"raw_bytes"`
		}{"ColorEscape", e.Title, e.IconSVG, e.Tooltip, e.HexColor, e.RawBytes})

	case EventInvisibleLineBreak:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{"InvisibleLineBreak"})

	case EventLineBreak:
		return json.Marshal(struct {
			Type  string `json:"type"`
			Title string `json:"title"`
		}{"LineBreak", e.LineTitle})

	default:
		return nil, fmt.Errorf("display: unknown event kind %d", e.Kind)
	}
}

func strPtr(s string) *string { return &s }

func genericEscape(title, iconSVG, tooltip *string, rawBytes string) Event {
	return Event{Kind: EventGenericEscape, Title: title, IconSVG: iconSVG, Tooltip: tooltip, RawBytes: rawBytes}
}
