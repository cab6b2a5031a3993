package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"koboldd/internal/common/fsutil"
	"koboldd/internal/manager"
)

// Config holds runtime parameters for the service.
// Load starts from Defaults, so fields absent from a file keep their default.
type Config struct {
	Addr             string `json:"addr" yaml:"addr" toml:"addr"`
	BinaryPath       string `json:"binary_path" yaml:"binary_path" toml:"binary_path"`
	ModelPath        string `json:"model_path" yaml:"model_path" toml:"model_path"`
	Threads          int    `json:"threads" yaml:"threads" toml:"threads"`
	MaxLength        int    `json:"max_length" yaml:"max_length" toml:"max_length"`
	MaxContextLength int    `json:"max_context_length" yaml:"max_context_length" toml:"max_context_length"`
	ModelAnnounce    string `json:"model_announce" yaml:"model_announce" toml:"model_announce"`
	SoftPrompt       string `json:"soft_prompt" yaml:"soft_prompt" toml:"soft_prompt"`
	SoftPromptsDir   string `json:"soft_prompts_dir" yaml:"soft_prompts_dir" toml:"soft_prompts_dir"`
	GPULayers        int    `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	IgnoreEOS        bool   `json:"ignore_eos" yaml:"ignore_eos" toml:"ignore_eos"`
	// ExtraArgs are passed to the runner verbatim, after the sampling flags.
	ExtraArgs []string `json:"extra_args" yaml:"extra_args" toml:"extra_args"`
	// VerboseEcho logs prompt and output as quoted strings instead of raw text.
	VerboseEcho bool   `json:"verbose_echo" yaml:"verbose_echo" toml:"verbose_echo"`
	Variant     string `json:"variant" yaml:"variant" toml:"variant"`
	// GenerateTimeoutSeconds bounds a single runner invocation. 0 disables.
	GenerateTimeoutSeconds int   `json:"generate_timeout_seconds" yaml:"generate_timeout_seconds" toml:"generate_timeout_seconds"`
	AllowConfigWrites      bool  `json:"allow_config_writes" yaml:"allow_config_writes" toml:"allow_config_writes"`
	MaxBodyBytes           int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSMethods []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods"`
	CORSHeaders []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// Defaults returns the out-of-the-box configuration.
func Defaults() Config {
	return Config{
		Addr:             ":5555",
		BinaryPath:       "./main",
		ModelPath:        "./models/7B/ggml-model-q4_0.bin",
		Threads:          8,
		MaxLength:        80,
		MaxContextLength: 1024,
		ModelAnnounce:    "Pygmalion/pygmalion-6b",
		VerboseEcho:      true,
		Variant:          manager.VariantLlamaCLI,
		MaxBodyBytes:     1 << 20,
		CORSMethods:      []string{"GET", "PUT", "POST", "OPTIONS"},
		CORSHeaders:      []string{"Content-Type"},
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// Load reads a configuration file based on its extension on top of Defaults.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from KOBOLDD_* variables. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}
	str("KOBOLDD_ADDR", &c.Addr)
	str("KOBOLDD_BINARY_PATH", &c.BinaryPath)
	str("KOBOLDD_MODEL_PATH", &c.ModelPath)
	str("KOBOLDD_VARIANT", &c.Variant)
	str("KOBOLDD_LOG_LEVEL", &c.LogLevel)
	str("KOBOLDD_LOG_FORMAT", &c.LogFormat)
	if err := num("KOBOLDD_THREADS", &c.Threads); err != nil {
		return err
	}
	if err := num("KOBOLDD_GPU_LAYERS", &c.GPULayers); err != nil {
		return err
	}
	if err := num("KOBOLDD_GENERATE_TIMEOUT_SECONDS", &c.GenerateTimeoutSeconds); err != nil {
		return err
	}
	if err := flag("KOBOLDD_IGNORE_EOS", &c.IgnoreEOS); err != nil {
		return err
	}
	return flag("KOBOLDD_VERBOSE_ECHO", &c.VerboseEcho)
}

// ExpandPaths expands a leading ~ in the path fields.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.BinaryPath, &c.ModelPath, &c.SoftPromptsDir} {
		v, err := fsutil.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("addr is required")
	case strings.TrimSpace(c.BinaryPath) == "":
		return fmt.Errorf("binary_path is required")
	case strings.TrimSpace(c.ModelPath) == "":
		return fmt.Errorf("model_path is required")
	case c.Threads <= 0:
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	case c.MaxLength <= 0:
		return fmt.Errorf("max_length must be positive, got %d", c.MaxLength)
	case c.MaxContextLength <= 0:
		return fmt.Errorf("max_context_length must be positive, got %d", c.MaxContextLength)
	case c.GPULayers < 0:
		return fmt.Errorf("gpu_layers must not be negative, got %d", c.GPULayers)
	case c.GenerateTimeoutSeconds < 0:
		return fmt.Errorf("generate_timeout_seconds must not be negative, got %d", c.GenerateTimeoutSeconds)
	}
	if !manager.KnownVariant(c.Variant) {
		return fmt.Errorf("unknown variant %q (want one of %s)", c.Variant, strings.Join(manager.VariantNames(), ", "))
	}
	return nil
}
