package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"koboldd/internal/config"
	"koboldd/internal/httpapi"
	"koboldd/internal/manager"
	"koboldd/internal/registry"
)

// buildFakeRunner builds the fake llama.cpp CLI shared with the manager tests.
func buildFakeRunner(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "fake_runner")
	cmd := exec.Command("go", "build", "-o", bin, "../manager/testdata/fake_runner.go")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build fake runner: %v: %s", err, string(out))
	}
	return bin
}

// storeAdapter serves the KoboldAI config endpoints from a config.Store.
type storeAdapter struct {
	*config.Store
	softPromptsDir string
}

func (s storeAdapter) GenerationSettings() manager.Settings {
	c := s.Snapshot()
	return manager.Settings{
		BinaryPath:       c.BinaryPath,
		ModelPath:        c.ModelPath,
		Threads:          c.Threads,
		MaxLength:        c.MaxLength,
		MaxContextLength: c.MaxContextLength,
		GPULayers:        c.GPULayers,
		IgnoreEOS:        c.IgnoreEOS,
		ExtraArgs:        c.ExtraArgs,
		VerboseEcho:      c.VerboseEcho,
	}
}

func (s storeAdapter) SoftPrompts() ([]string, error) { return registry.LoadDir(s.softPromptsDir) }

func (s storeAdapter) SetSoftPrompt(name string) error {
	s.Store.SetSoftPrompt(name)
	return nil
}

// newServer wires a real manager around the fake runner behind an httptest server.
func newServer(t *testing.T, mutate func(*config.Config), timeout time.Duration) (*httptest.Server, *manager.Manager, *config.Store) {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "ggml-model-q4_0.bin")
	if err := os.WriteFile(model, []byte("ggml"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	cfg := config.Defaults()
	cfg.BinaryPath = buildFakeRunner(t)
	cfg.ModelPath = model
	cfg.Threads = 2
	if mutate != nil {
		mutate(&cfg)
	}
	store := config.NewStore(cfg)
	sa := storeAdapter{Store: store, softPromptsDir: cfg.SoftPromptsDir}
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Settings:  sa,
		Variant:   cfg.Variant,
		Timeout:   timeout,
		StopGrace: 200 * time.Millisecond,
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr, sa))
	t.Cleanup(srv.Close)
	return srv, mgr, store
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodGet, url, nil)
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodPost, url, payload)
}

func httpPutJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodPut, url, payload)
}

func do(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Errorf("new req: %v", err)
		return nil, nil
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Errorf("do req: %v", err)
		return nil, nil
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}
