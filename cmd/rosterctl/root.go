package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rosterctl",
		Short:         "Student roster import/export tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()

			var lc config.LoggingConfig
			if err := config.LoadSection(&lc); err != nil {
				return withCode(exitUsage, err)
			}
			logging.SetupWriter(cmd.ErrOrStderr(), lc.Level, lc.Format)
			return nil
		},
	}

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newResetCmd())
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		code := exitCode(err)
		if msg := core.MapError(err); code != exitPartial && msg.Code != "ERR000" {
			fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", msg.Code, msg.Message, msg.Action)
		}
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
