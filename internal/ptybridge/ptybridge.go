// Package ptybridge interposes a pseudo-terminal between the user's real
// terminal and a spawned child process. It forwards keystrokes to the
// child and child output both to the real terminal and to a byte sink
// (the parser driver), and keeps the PTY sized to the controlling
// terminal across resizes.
package ptybridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// EOT is the byte that, read from the controlling terminal, triggers
// shutdown (Ctrl-D).
const EOT = 0x04

// Bridge owns either a live PTY pair and child process, or a replay file
// standing in for one. Exactly one of the two is set after Spawn or
// OpenReplay is called.
type Bridge struct {
	logger *slog.Logger

	ptmx *os.File
	cmd  *exec.Cmd

	replay *os.File // non-nil in replay mode, instead of ptmx/cmd

	recording *os.File // optional byte-exact mirror ("stdout.txt")

	stateMu   sync.Mutex
	termState *term.State // saved cooked-mode state; nil if never raw

	closeOnce sync.Once
}

// New returns a Bridge ready for Spawn or OpenReplay.
func New(logger *slog.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// Spawn starts argv[0] with the remaining elements as arguments, in a new
// PTY sized to the current controlling terminal, with dir as its working
// directory.
func (b *Bridge) Spawn(dir string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("spawn: empty command")
	}

	rows, cols, err := currentSize()
	if err != nil {
		b.logger.Warn("could not query terminal size, defaulting to 80x24", "error", err)
		rows, cols = 24, 80
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return fmt.Errorf("start pty: %w", err)
	}

	b.ptmx = ptmx
	b.cmd = cmd
	b.logger.Info("spawned child", "command", argv[0], "rows", rows, "cols", cols)
	return nil
}

// OpenReplay opens path as the byte source instead of spawning a child.
func (b *Bridge) OpenReplay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	b.replay = f
	return nil
}

// EnableRecording mirrors every byte read from the child to path,
// truncating any existing file.
func (b *Bridge) EnableRecording(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recording file: %w", err)
	}
	b.recording = f
	return nil
}

// EnterRawMode puts the controlling terminal into raw mode, remembering
// its previous state for Restore. A no-op when stdin is not a terminal
// (e.g. replay mode driven from a pipe).
func (b *Bridge) EnterRawMode() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	state, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	b.stateMu.Lock()
	b.termState = state
	b.stateMu.Unlock()
	return nil
}

// Restore returns the controlling terminal to cooked mode and resets the
// cursor to its default shape. Idempotent and safe to call from a panic
// handler or deferred cleanup.
func (b *Bridge) Restore() {
	b.stateMu.Lock()
	state := b.termState
	b.termState = nil
	b.stateMu.Unlock()

	if state != nil {
		term.Restore(int(os.Stdin.Fd()), state)
	}
	// SGR reset + default cursor shape, in case the child left either set.
	fmt.Fprint(os.Stdout, "\x1b[0m\x1b[0 q")
}

// InputLoop blocks reading from src (normally os.Stdin), forwarding every
// byte up to but not including an EOT (0x04) to the PTY master. It
// returns when EOT is seen, src hits EOF, or a read error occurs. onEOT
// is invoked exactly once, before InputLoop returns, if shutdown was
// triggered by an EOT byte or end-of-input.
func (b *Bridge) InputLoop(src io.Reader, onEOT func()) error {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if i := bytes.IndexByte(chunk, EOT); i >= 0 {
				if b.ptmx != nil && i > 0 {
					b.ptmx.Write(chunk[:i])
				}
				onEOT()
				return nil
			}
			if b.ptmx != nil {
				if _, werr := b.ptmx.Write(chunk); werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				onEOT()
				return nil
			}
			return err
		}
	}
}

// OutputLoop reads child (or replay-file) output and forwards each chunk
// to sink, the parser driver's byte source. Unless mirror is nil, the
// same chunk is also written to the real terminal; mirror is nil in
// replay mode, which does not visually replay the session. If a
// recording file was enabled, every chunk is appended there too. Returns
// when the source is exhausted or errors.
func (b *Bridge) OutputLoop(sink io.Writer, mirror io.Writer) error {
	src := b.source()
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]

			if mirror != nil {
				// os.File writes go straight to the fd; there is no
				// userspace buffer to flush.
				if _, werr := mirror.Write(chunk); werr != nil {
					return werr
				}
			}
			if b.recording != nil {
				b.recording.Write(chunk)
			}
			if _, werr := sink.Write(chunk); werr != nil {
				return werr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (b *Bridge) source() io.Reader {
	if b.replay != nil {
		return b.replay
	}
	return b.ptmx
}

// WatchResize blocks until ctx is cancelled, re-querying the controlling
// terminal's size on every window-change signal and resizing the PTY
// master to match. A no-op in replay mode, where there is no PTY to
// resize and no window-change signal worth watching for.
func (b *Bridge) WatchResize(ctx context.Context) {
	if b.ptmx == nil {
		return
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			rows, cols, err := currentSize()
			if err != nil {
				continue
			}
			if err := pty.Setsize(b.ptmx, &pty.Winsize{Rows: rows, Cols: cols}); err != nil {
				b.logger.Warn("resize pty", "error", err)
			}
		}
	}
}

// Kill terminates the child process, if any, and waits for it to avoid
// leaving a zombie.
func (b *Bridge) Kill() {
	if b.cmd != nil && b.cmd.Process != nil {
		b.cmd.Process.Kill()
		b.cmd.Wait()
	}
}

// Close releases the PTY, replay file, and recording file. Safe to call
// more than once.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		if b.ptmx != nil {
			b.ptmx.Close()
		}
		if b.replay != nil {
			b.replay.Close()
		}
		if b.recording != nil {
			b.recording.Close()
		}
	})
}

func currentSize() (rows, cols uint16, err error) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, err
	}
	return uint16(h), uint16(w), nil
}
