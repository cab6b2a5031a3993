package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"koboldd/internal/config"
	"koboldd/internal/manager"
	"koboldd/pkg/types"
)

func newArgsCmd(opts *cliOptions) *cobra.Command {
	var payload string
	cmd := &cobra.Command{
		Use:   "args",
		Short: "Print the runner command a generate payload maps to, without running it",
		Example: `  koboldd args --payload '{"prompt":"Hello","max_length":10}'
  echo '{"prompt":"Hi","top_p":0}' | koboldd args --payload -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			raw := payload
			if raw == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = string(b)
			}
			var req types.GenerateRequest
			if err := json.Unmarshal([]byte(raw), &req); err != nil {
				return fmt.Errorf("payload: %w", err)
			}
			mgr, err := manager.NewWithConfig(manager.ManagerConfig{
				Settings: storeSettings{store: config.NewStore(cfg)},
				Variant:  cfg.Variant,
				Logger:   zerolog.Nop(),
			})
			if err != nil {
				return err
			}
			inv := mgr.Plan(req)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "variant: %s\n", mgr.Variant())
			fmt.Fprintf(out, "args:    %s\n", strings.Join(inv.Loggable, " "))
			fmt.Fprintf(out, "command: %s\n", manager.CommandLine(inv.Argv))
			return nil
		},
	}
	cmd.Flags().StringVar(&payload, "payload", "{}", "Generate request JSON, or - to read stdin")
	return cmd
}
