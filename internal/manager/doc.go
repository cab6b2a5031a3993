// Package manager orchestrates generation requests against an external
// llama.cpp style runner binary. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, status getters.
//   - config.go: ManagerConfig, Settings and package defaults.
//   - admission.go: single-flight admission (tryEnter/leave).
//   - variants.go: per-variant flag tables of the runner CLI.
//   - args.go: request resolution and argument vector construction.
//   - invoker.go: Runner interface and the os/exec implementation.
//   - output.go: decoding and prompt-echo stripping of runner stdout.
//   - generate.go: Generate, the orchestration entry point.
//   - errors.go: error types and helpers (IsBusy, IsGenerationFailed, ...).
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus collectors for generations.
//   - sanity.go: binary/model availability checks.
//
// A Manager runs at most one generation at a time. A request that arrives
// while another is in flight is rejected immediately with a busy error; it is
// never queued.
package manager
