// escplay interposes a pseudo-terminal between your shell (or any
// command) and the real terminal, classifies every escape sequence
// the child emits, and streams the classified, human-legible result to
// a browser in real time.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/escplay/escplay/internal/config"
	"github.com/escplay/escplay/internal/session"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	magentaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

func main() {
	// Restore the controlling terminal even if something below panics
	// mid-raw-mode; the Bridge itself also does this on the ordinary
	// exit path, so this is strictly a crash backstop.
	defer func() {
		if r := recover(); r != nil {
			fmt.Print("\x1b[0m\x1b[0 q")
			fmt.Fprintf(os.Stderr, "\n\nPANIC: %v\n", r)
			os.Exit(1)
		}
	}()

	var port int
	var replayFile string
	var logToFile bool

	rootCmd := &cobra.Command{
		Use:     "escplay [flags] -- [command] [args...]",
		Short:   "Inspect the escape sequences a terminal program emits",
		Version: Version,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(port, replayFile, logToFile, args)
		},
	}
	rootCmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "port for the web server")
	rootCmd.Flags().StringVar(&replayFile, "replay-file", "", "replay a previously recorded raw byte stream instead of spawning a command")
	rootCmd.Flags().BoolVarP(&logToFile, "log-to-file", "l", false, "mirror raw child output to stdout.txt")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(port int, replayFile string, logToFile bool, argv []string) error {
	cfg, err := config.Load(port, replayFile, logToFile, argv)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if cfg.ReplayFile == "" {
		fmt.Printf(
			"%s%s%s\n",
			cyanStyle.Render("Launching "),
			magentaStyle.Render(fmt.Sprintf("%s in escplay v%s", joinArgv(cfg.Argv()), Version)),
			" \U0001F3A8",
		)
	} else {
		fmt.Printf("%s%s\n", cyanStyle.Render("Replaying "), magentaStyle.Render(cfg.ReplayFile))
	}
	fmt.Printf(
		"%s%s%s\n\n",
		cyanStyle.Render("Open "),
		magentaStyle.Render(cfg.URL()),
		cyanStyle.Render(" to view terminal escape codes, type CTRL+D to exit"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := session.New(cfg, logger)
	defer func() {
		if r := recover(); r != nil {
			sess.Bridge.Restore()
			panic(r)
		}
	}()
	if err := sess.Setup(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	count, runErr := sess.Run(ctx)

	sess.Bridge.Restore()
	sess.Bridge.Kill()
	sess.Bridge.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess.Shutdown(shutdownCtx)

	fmt.Printf(
		"\n%s%s\n",
		cyanStyle.Render("Exited. Processed "),
		magentaStyle.Render(fmt.Sprintf("%d escape sequences", count)),
	)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func joinArgv(argv []string) string {
	out := argv[0]
	for _, a := range argv[1:] {
		out += " " + a
	}
	return out
}
