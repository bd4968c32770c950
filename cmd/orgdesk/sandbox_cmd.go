package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/orgdesk/internal/sandbox"
)

func newSandboxCmd(root *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run the bundled organization service in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(root)
			if err != nil {
				return err
			}
			defer sess.Close()

			settings := sandbox.SettingsFromConfig(sess.config)
			settings.Enabled = true
			if host != "" {
				settings.Host = host
			}
			if cmd.Flags().Changed("port") {
				settings.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := sandbox.NewServer(settings, sandbox.WithLogger(sess.logbook))
			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sandbox listening on %s (Ctrl+C to stop)\n", srv.BaseURL())
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "interface to bind (defaults to sandbox.host)")
	cmd.Flags().IntVar(&port, "port", 0, "TCP port to bind (defaults to sandbox.port)")
	return cmd
}
