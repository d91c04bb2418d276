package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/app"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	applog "github.com/vovakirdan/wirechat-relay/internal/log"
)

var errUsage = errors.New("invalid usage: wirechat-server serve <host:port>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wirechat-server",
		Short: "Line-based chat relay with rooms",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errUsage
		},
	}
	root.AddCommand(newServeCmd())
	return root
}

// serveFlags holds command-line overrides for the loaded configuration.
type serveFlags struct {
	configPath  string
	logLevel    string
	httpAddr    string
	idleTimeout time.Duration
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.httpAddr, "http-addr", "", "status API and WebSocket listen address (empty disables)")
	cmd.Flags().DurationVar(&f.idleTimeout, "idle-timeout", 0, "disconnect clients idle this long (0 disables)")
}

// apply copies every flag the user set, zero values included, so
// --idle-timeout 0 can switch off a timeout from the config file.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("http-addr") {
		cfg.HTTPAddr = f.httpAddr
	}
	if cmd.Flags().Changed("idle-timeout") {
		cfg.IdleTimeout = f.idleTimeout
	}
}

func newServeCmd() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve <host:port>",
		Short: "Accept chat clients on host:port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			bootLogger := applog.New(flags.logLevel)
			cfg, path, err := config.Load(bootLogger, flags.configPath)
			if err != nil {
				return err
			}
			cfg.Addr = args[0]
			flags.apply(cmd, &cfg)

			logger := applog.New(cfg.LogLevel)
			logger.Info().Str("addr", cfg.Addr).Str("config", path).Msg("starting wirechat server")

			if err := app.New(cfg, logger).Run(cmd.Context()); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
