package manager

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// buildFakeRunner builds the fake llama.cpp CLI used for subprocess tests and returns its path.
func buildFakeRunner(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "fake_runner")
	cmd := exec.Command("go", "build", "-o", bin, "./testdata/fake_runner.go")
	cmd.Dir = "." // package dir internal/manager
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build fake runner: %v: %s", err, string(out))
	}
	return bin
}

// createModelFile writes a small placeholder model file and returns its path.
func createModelFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("ggml"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return p
}

func testSettings() Settings {
	return Settings{
		BinaryPath:       "./main",
		ModelPath:        "./models/7B/ggml-model-q4_0.bin",
		Threads:          8,
		MaxLength:        80,
		MaxContextLength: 1024,
	}
}

// funcRunner adapts a function to Runner.
type funcRunner func(ctx context.Context, argv []string) (RunResult, error)

func (f funcRunner) Run(ctx context.Context, argv []string) (RunResult, error) { return f(ctx, argv) }

// echoRunner behaves like a successful runner that prints prompt+text.
func echoRunner(text string) funcRunner {
	return func(_ context.Context, argv []string) (RunResult, error) {
		prompt := argv[len(argv)-1]
		return RunResult{Stdout: []byte(prompt + text), PID: 42}, nil
	}
}

func newTestManager(t *testing.T, cfg ManagerConfig) *Manager {
	t.Helper()
	if cfg.Settings == nil {
		cfg.Settings = StaticSettings(testSettings())
	}
	cfg.Logger = zerolog.Nop()
	m, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return m
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
