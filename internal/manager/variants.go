package manager

import (
	"fmt"
	"sort"
)

// Variant names accepted in ManagerConfig.Variant.
const (
	VariantLlamaCLI = "llama-cli"
	VariantLegacy   = "legacy"
)

// variant describes the command line of one runner build. An empty flag name
// means the runner does not take that parameter and it is not passed.
type variant struct {
	Name string

	Model         string
	Threads       string
	NPredict      string
	CtxSize       string
	Temp          string
	RepeatPenalty string
	TopK          string
	TopP          string
	TFS           string
	Typical       string
	RepeatLastN   string
	GPULayers     string
	IgnoreEOS     string
	Prompt        string

	DefaultRepPen      float64
	DefaultRepPenRange int
}

var variants = map[string]variant{
	VariantLlamaCLI: {
		Name:               VariantLlamaCLI,
		Model:              "-m",
		Threads:            "-t",
		NPredict:           "--n-predict",
		CtxSize:            "--ctx-size",
		Temp:               "--temp",
		RepeatPenalty:      "--repeat-penalty",
		TopK:               "--top-k",
		TopP:               "--top-p",
		TFS:                "--tfs",
		Typical:            "--typical",
		RepeatLastN:        "--repeat-last-n",
		GPULayers:          "--n-gpu-layers",
		IgnoreEOS:          "--ignore-eos",
		Prompt:             "--prompt",
		DefaultRepPen:      1.1,
		DefaultRepPenRange: 1024,
	},
	// legacy matches the early llama.cpp `main` builds: short flags and only
	// the four sampling knobs that behaved predictably.
	VariantLegacy: {
		Name:               VariantLegacy,
		Model:              "-m",
		Threads:            "-t",
		NPredict:           "-n",
		CtxSize:            "-c",
		Temp:               "--temp",
		RepeatPenalty:      "--repeat_penalty",
		GPULayers:          "-ngl",
		IgnoreEOS:          "--ignore-eos",
		Prompt:             "-p",
		DefaultRepPen:      1.3,
		DefaultRepPenRange: 64,
	},
}

// KnownVariant reports whether name selects a runner flag table.
func KnownVariant(name string) bool {
	_, ok := variants[name]
	return ok
}

// VariantNames lists the accepted variant names in sorted order.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for n := range variants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookupVariant(name string) (variant, error) {
	if name == "" {
		name = VariantLlamaCLI
	}
	v, ok := variants[name]
	if !ok {
		return variant{}, fmt.Errorf("unknown runner variant %q", name)
	}
	return v, nil
}
