// Package webui serves the browser-side viewer: the single static
// page and its assets (embedded in the binary, the idiomatic Go
// equivalent of bundling front-end assets at build time), and the
// /events WebSocket endpoint via internal/fanout.
package webui

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/escplay/escplay/internal/eventstore"
	"github.com/escplay/escplay/internal/fanout"
)

//go:embed static
var staticFiles embed.FS

// NewServer builds the http.Handler serving the root page, static
// assets, and the WebSocket event stream.
func NewServer(logger *slog.Logger, history *eventstore.History, broadcaster *eventstore.Broadcaster) (http.Handler, error) {
	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/events", fanout.New(logger, history, broadcaster))
	mux.Handle("/", http.FileServer(http.FS(assets)))

	return mux, nil
}
