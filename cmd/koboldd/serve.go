package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"koboldd/internal/config"
	"koboldd/internal/httpapi"
	"koboldd/internal/manager"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "HTTP listen address, e.g. :5555")
	f.IntVar(&opts.timeoutSeconds, "timeout", 0, "Seconds before a runner is terminated (0 = no limit)")
	f.StringVar(&opts.softPromptsDir, "soft-prompts-dir", "", "Directory scanned for *.zip soft prompts")
	f.BoolVar(&opts.allowConfigWrites, "allow-config-writes", false, "Let PUT config endpoints change runtime values")
	f.BoolVar(&opts.corsEnabled, "cors-enabled", false, "Enable CORS")
	f.StringVar(&opts.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins")
	return cmd
}

func runServe(cmd *cobra.Command, opts *cliOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := config.NewStore(cfg)
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Settings: storeSettings{store: store},
		Variant:  cfg.Variant,
		Timeout:  time.Duration(cfg.GenerateTimeoutSeconds) * time.Second,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if r := mgr.SanityCheck(); !r.OK() {
		logger.Warn().Str("binary", r.BinaryPath).Str("model", r.ModelPath).Str("error", r.Error).
			Msg("runner not ready; generate requests will fail until it is")
	}

	httpapi.SetLogger(logger)
	httpapi.SetRequestLogLevel(cfg.LogLevel)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetAllowConfigWrites(cfg.AllowConfigWrites)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)
	a := &app{mgr: mgr, store: store, softPromptsDir: cfg.SoftPromptsDir}
	handler := httpapi.NewMux(a, a)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", ln.Addr().String()).
			Str("variant", mgr.Variant()).
			Str("binary", cfg.BinaryPath).
			Str("model", cfg.ModelPath).
			Str("announce", cfg.ModelAnnounce).
			Msg("koboldd listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
