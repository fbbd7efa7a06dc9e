// Package session is escplay's central orchestrator. It owns the PTY
// bridge, the parser driver and classifier, the event history and
// broadcaster, and the web server, and wires them into the one
// capture-and-publish pipeline the rest of the components only see
// pieces of.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/escplay/escplay/internal/config"
	"github.com/escplay/escplay/internal/display"
	"github.com/escplay/escplay/internal/eventstore"
	"github.com/escplay/escplay/internal/ptybridge"
	"github.com/escplay/escplay/internal/vtparse"
	"github.com/escplay/escplay/internal/webui"
)

// tupleBufferSize bounds the hand-off between the parser driver and
// the classifier goroutine; a blocking send here means a slow
// classifier applies backpressure all the way to the PTY read loop
// rather than growing memory without bound.
const tupleBufferSize = 10000

// Session is the central orchestrator for one escplay run.
type Session struct {
	cfg    *config.Config
	logger *slog.Logger

	Bridge      *ptybridge.Bridge
	classifier  *display.Classifier
	History     *eventstore.History
	Broadcaster *eventstore.Broadcaster

	httpServer *http.Server
}

// New returns a Session ready for Setup.
func New(cfg *config.Config, logger *slog.Logger) *Session {
	return &Session{
		cfg:         cfg,
		logger:      logger,
		Bridge:      ptybridge.New(logger.With("component", "ptybridge")),
		classifier:  display.New(),
		History:     eventstore.NewHistory(),
		Broadcaster: eventstore.NewBroadcaster(),
	}
}

// Setup spawns the child process (or opens the replay file) and
// starts the web server listening, without yet running the capture
// pipeline; call Run afterward to do that.
func (s *Session) Setup() error {
	if s.cfg.ReplayFile != "" {
		if err := s.Bridge.OpenReplay(s.cfg.ReplayFile); err != nil {
			return err
		}
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getwd: %w", err)
		}
		if err := s.Bridge.Spawn(cwd, s.cfg.Argv()); err != nil {
			return err
		}
	}

	if s.cfg.LogToFile {
		if err := s.Bridge.EnableRecording("stdout.txt"); err != nil {
			return err
		}
	}

	handler, err := webui.NewServer(s.logger.With("component", "webui"), s.History, s.Broadcaster)
	if err != nil {
		return fmt.Errorf("build web server: %w", err)
	}

	listener, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ListenAddr(), err)
	}

	s.httpServer = &http.Server{Handler: handler}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("web server stopped", "error", err)
		}
	}()

	return nil
}

// Run drives the capture-and-publish pipeline until the child exits,
// replay input is exhausted, Ctrl-D is read from the controlling
// terminal, or ctx is cancelled. It returns the number of escape
// sequences processed.
func (s *Session) Run(ctx context.Context) (int64, error) {
	tupleCh := make(chan vtparse.Tuple, tupleBufferSize)
	driverDone := make(chan struct{})
	driver := vtparse.NewDriver(tupleCh, driverDone)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for tup := range tupleCh {
			result := s.classifier.Feed(tup.Action, tup.RawBytes)
			s.History.Append(result.Store, result.StoreCoalesced)
			for _, ev := range result.Live {
				s.Broadcaster.Publish(ev)
			}
		}
	}()

	replaying := s.cfg.ReplayFile != ""

	var mirror io.Writer
	if !replaying {
		if err := s.Bridge.EnterRawMode(); err != nil {
			s.logger.Warn("enter raw mode", "error", err)
		}
		resizeCtx, stopResize := context.WithCancel(ctx)
		defer stopResize()
		go s.Bridge.WatchResize(resizeCtx)
		mirror = os.Stdout
	}

	outputDone := make(chan error, 1)
	go func() { outputDone <- s.Bridge.OutputLoop(driver, mirror) }()

	// Ctrl-D on the real controlling terminal must terminate the run
	// even in replay mode, where there is no child to forward keystrokes
	// to; InputLoop already no-ops the PTY forward when there is no PTY.
	inputDone := make(chan error, 1)
	go func() {
		inputDone <- s.Bridge.InputLoop(os.Stdin, func() { s.Bridge.Kill() })
	}()

	var runErr error
	select {
	case runErr = <-outputDone:
	case runErr = <-inputDone:
		// Wait for the child's remaining output to drain through the
		// parser before tearing it down, so no trailing bytes are lost.
		// Once the child is killed the PTY master reports a read error;
		// that is the expected end of output here, not a failure.
		<-outputDone
	case <-ctx.Done():
		s.Bridge.Kill()
		<-outputDone
		runErr = ctx.Err()
	}

	close(driverDone)
	close(tupleCh)
	<-consumerDone

	return s.classifier.SequenceCount(), runErr
}

// Shutdown stops the web server gracefully.
func (s *Session) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
