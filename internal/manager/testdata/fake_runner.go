package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// fake_runner mimics a llama.cpp CLI: it echoes the prompt followed by a
// canned continuation. Behavior is driven by FAKE_RUNNER_* env vars.
func main() {
	args := os.Args[1:]
	if p := os.Getenv("FAKE_RUNNER_ARGS_FILE"); p != "" {
		_ = os.WriteFile(p, []byte(strings.Join(args, "\n")), 0o644)
	}
	if p := os.Getenv("FAKE_RUNNER_PID_FILE"); p != "" {
		_ = os.WriteFile(p, []byte(strconv.Itoa(os.Getpid())), 0o644)
	}
	if os.Getenv("FAKE_RUNNER_IGNORE_TERM") != "" {
		signal.Ignore(syscall.SIGTERM)
	}
	if d, err := time.ParseDuration(os.Getenv("FAKE_RUNNER_SLEEP")); err == nil {
		time.Sleep(d)
	}

	var prompt string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "--prompt" || args[i] == "-p" {
			prompt = args[i+1]
		}
	}
	text := os.Getenv("FAKE_RUNNER_TEXT")
	if text == "" {
		text = " and then some."
	}
	out := prompt + text
	if os.Getenv("FAKE_RUNNER_CRLF") != "" {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	fmt.Fprint(os.Stdout, out)
	if os.Getenv("FAKE_RUNNER_INVALID_UTF8") != "" {
		_, _ = os.Stdout.Write([]byte{0xff, 0xfe})
	}
	fmt.Fprintln(os.Stderr, "llama_model_load: loading model")

	if code, err := strconv.Atoi(os.Getenv("FAKE_RUNNER_EXIT")); err == nil && code != 0 {
		fmt.Fprintln(os.Stderr, "error: failed to load model")
		os.Exit(code)
	}
}
