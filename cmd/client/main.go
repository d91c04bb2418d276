package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/client"
	applog "github.com/vovakirdan/wirechat-relay/internal/log"
)

var errUsage = errors.New("invalid usage: wirechat connect <host:port>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wirechat",
		Short: "Terminal client for wirechat-server",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errUsage
		},
	}

	var logLevel string
	connect := &cobra.Command{
		Use:   "connect <host:port>",
		Short: "Connect to a chat server and relay stdin/stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			logger := applog.NewWithWriter(os.Stderr, logLevel)
			return client.New(args[0], os.Stdin, os.Stdout, logger).Run(cmd.Context())
		},
	}
	connect.Flags().StringVar(&logLevel, "log-level", "warn", "log level for client diagnostics")

	root.AddCommand(connect)
	return root
}
