package main

import (
	"os"

	"github.com/spf13/cobra"

	"koboldd/internal/config"
)

// cliOptions collects the flags shared by serve and args.
type cliOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	addr              string
	binaryPath        string
	modelPath         string
	variant           string
	threads           int
	gpuLayers         int
	maxLength         int
	maxContextLength  int
	ignoreEOS         bool
	timeoutSeconds    int
	softPromptsDir    string
	allowConfigWrites bool
	corsEnabled       bool
	corsOrigins       string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "koboldd",
		Short:         "KoboldAI compatible API server for a llama.cpp command-line runner",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error|off (defaults KOBOLDD_LOG_LEVEL or info)")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console|json")
	pf.StringVar(&opts.binaryPath, "binary", "", "Path to the llama.cpp runner binary")
	pf.StringVar(&opts.modelPath, "model", "", "Path to the model file passed with -m")
	pf.StringVar(&opts.variant, "variant", "", "Runner flag table: llama-cli|legacy")
	pf.IntVar(&opts.threads, "threads", 0, "Threads passed to the runner (-t)")
	pf.IntVar(&opts.gpuLayers, "gpu-layers", 0, "Layers offloaded to the GPU (0 omits the flag)")
	pf.IntVar(&opts.maxLength, "max-length", 0, "Default number of tokens to generate")
	pf.IntVar(&opts.maxContextLength, "max-context-length", 0, "Default context window")
	pf.BoolVar(&opts.ignoreEOS, "ignore-eos", false, "Pass --ignore-eos to the runner")

	serve := newServeCmd(opts)
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newArgsCmd(opts), newVersionCmd())
	return root
}

// loadConfig resolves configuration: defaults < file < KOBOLDD_* env < flags.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (config.Config, error) {
	cfg := config.Defaults()
	if opts.configPath != "" {
		c, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if changed("addr") {
		cfg.Addr = opts.addr
	}
	if changed("binary") {
		cfg.BinaryPath = opts.binaryPath
	}
	if changed("model") {
		cfg.ModelPath = opts.modelPath
	}
	if changed("variant") {
		cfg.Variant = opts.variant
	}
	if changed("threads") {
		cfg.Threads = opts.threads
	}
	if changed("gpu-layers") {
		cfg.GPULayers = opts.gpuLayers
	}
	if changed("max-length") {
		cfg.MaxLength = opts.maxLength
	}
	if changed("max-context-length") {
		cfg.MaxContextLength = opts.maxContextLength
	}
	if changed("ignore-eos") {
		cfg.IgnoreEOS = opts.ignoreEOS
	}
	if changed("timeout") {
		cfg.GenerateTimeoutSeconds = opts.timeoutSeconds
	}
	if changed("soft-prompts-dir") {
		cfg.SoftPromptsDir = opts.softPromptsDir
	}
	if changed("allow-config-writes") {
		cfg.AllowConfigWrites = opts.allowConfigWrites
	}
	if changed("cors-enabled") {
		cfg.CORSEnabled = opts.corsEnabled
	}
	if changed("cors-origins") {
		cfg.CORSOrigins = splitCSV(opts.corsOrigins)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the koboldd version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("koboldd %s\n", version)
		},
	}
}
