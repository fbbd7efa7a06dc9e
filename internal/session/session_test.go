package session

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/escplay/escplay/internal/config"
)

func TestSessionReplayModeProcessesRecordedBytes(t *testing.T) {
	dir := t.TempDir()
	replayPath := filepath.Join(dir, "session.raw")
	if err := os.WriteFile(replayPath, []byte("hello\x1b[31mred\x1b[0m\r\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := config.Load(0, replayPath, false, nil)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(cfg, logger)

	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer s.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count == 0 {
		t.Error("sequence count = 0, want at least one classified action")
	}
	if s.History.Len() == 0 {
		t.Error("history is empty after replaying a non-empty file")
	}
}
