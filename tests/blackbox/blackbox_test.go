package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

// goBuild builds pkg (relative to the project root) into a temp dir.
func goBuild(t *testing.T, name, pkg string) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, pkg)
	cmd.Dir = projectRootFromThisFile(t)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build %s failed: %v\n%s", pkg, err, string(out))
	}
	return binPath
}

type serverProc struct {
	cmd  *exec.Cmd
	base string // http base URL, e.g. http://127.0.0.1:15555
	done chan error
}

func startServer(t *testing.T, extraArgs ...string) *serverProc {
	t.Helper()
	bin := goBuild(t, "koboldd", "./cmd/koboldd")
	runner := goBuild(t, "fake_runner", "./internal/manager/testdata/fake_runner.go")
	model := filepath.Join(t.TempDir(), "ggml-model-q4_0.bin")
	if err := os.WriteFile(model, []byte("ggml"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	port := findFreePort(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	args := append([]string{
		"serve",
		"--addr", fmt.Sprintf("127.0.0.1:%d", port),
		"--binary", runner,
		"--model", model,
		"--threads", "2",
		"--log-format", "json",
	}, extraArgs...)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	sp := &serverProc{cmd: cmd, base: base, done: make(chan error, 1)}
	go func() { sp.done <- cmd.Wait() }()
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	return sp
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodGet, url, nil)
}

func postJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodPost, url, payload)
}

func do(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_Flow(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	sp := startServer(t)

	resp, body := get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz %d %s", resp.StatusCode, string(body))
	}

	resp, body = get(t, sp.base+"/api/v1/info/version/")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != `{"result":"1.0"}` {
		t.Fatalf("version %d %s", resp.StatusCode, string(body))
	}

	resp, body = postJSON(t, sp.base+"/api/v1/generate/", []byte(`{"prompt":"Hello","max_length":10}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate %d %s", resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("generate content-type=%s", ct)
	}
	var gr struct {
		Results []struct {
			Text string `json:"text"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &gr); err != nil {
		t.Fatalf("generate json: %v body=%s", err, string(body))
	}
	if len(gr.Results) != 1 || gr.Results[0].Text != " and then some." {
		t.Fatalf("unexpected generate body: %s", string(body))
	}

	resp, body = get(t, sp.base+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/status %d %s", resp.StatusCode, string(body))
	}
	var st struct {
		Busy             bool   `json:"busy"`
		Model            string `json:"model"`
		GenerationsTotal uint64 `json:"generations_total"`
	}
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("/status json: %v body=%s", err, string(body))
	}
	if st.Busy || st.GenerationsTotal != 1 || st.Model != "Pygmalion/pygmalion-6b" {
		t.Fatalf("unexpected status: %s", string(body))
	}

	resp, body = get(t, sp.base+"/metrics")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`koboldd_generation_total{outcome="ok"} 1`)) {
		t.Fatalf("metrics missing generation counter")
	}
}

func TestBlackbox_GracefulShutdown(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	sp := startServer(t)
	if err := sp.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("signal: %v", err)
	}
	select {
	case err := <-sp.done:
		if err != nil {
			t.Fatalf("server exited with error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("server did not stop after SIGTERM")
	}
}

func TestBlackbox_ArgsDryRun(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	bin := goBuild(t, "koboldd", "./cmd/koboldd")
	out, err := exec.Command(bin, "args", "--payload", `{"prompt":"Hello","top_p":-5}`).CombinedOutput()
	if err != nil {
		t.Fatalf("args: %v\n%s", err, out)
	}
	if !bytes.Contains(out, []byte("--top-p 0.001")) || !bytes.Contains(out, []byte("--prompt Hello")) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
