package config

import (
	"testing"
)

func TestLoadUsesArgvAsCommand(t *testing.T) {
	cfg, err := Load(3000, "", false, []string{"bash", "-l"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Command != "bash" || len(cfg.Args) != 1 || cfg.Args[0] != "-l" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadFallsBackToShell(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	cfg, err := Load(3000, "", false, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Command != "/bin/zsh" {
		t.Errorf("command = %q, want /bin/zsh", cfg.Command)
	}
}

func TestLoadErrorsWithoutCommandOrShell(t *testing.T) {
	t.Setenv("SHELL", "")
	_, err := Load(3000, "", false, nil)
	if err != ErrNoCommand {
		t.Fatalf("err = %v, want ErrNoCommand", err)
	}
}

func TestLoadRejectsReplayWithCommand(t *testing.T) {
	_, err := Load(3000, "session.raw", false, []string{"bash"})
	if err != ErrReplayAndCommand {
		t.Fatalf("err = %v, want ErrReplayAndCommand", err)
	}
}

func TestLoadReplayModeSkipsShellLookup(t *testing.T) {
	t.Setenv("SHELL", "")
	cfg, err := Load(3000, "session.raw", false, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReplayFile != "session.raw" {
		t.Errorf("replay file = %q", cfg.ReplayFile)
	}
}

func TestListenAddrAndURL(t *testing.T) {
	cfg := &Config{Port: 4242}
	if cfg.ListenAddr() != "127.0.0.1:4242" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if cfg.URL() != "http://localhost:4242" {
		t.Errorf("URL = %q", cfg.URL())
	}
}
