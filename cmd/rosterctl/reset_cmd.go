package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// resetTimeout bounds the TRUNCATE issued by reset.
const resetTimeout = 30 * time.Second

// resetter is the part of the store reset needs.
type resetter interface {
	Reset(ctx context.Context) error
}

type resetOptions struct {
	yes bool
}

func newResetCmd() *cobra.Command {
	var opts resetOptions

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every student and certificate",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.yes {
				return withCode(exitUsage, fmt.Errorf("reset is destructive; pass --yes to confirm"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()
			return runReset(cmd.Context(), cmd.OutOrStdout(), b.store)
		},
	}

	cmd.Flags().BoolVar(&opts.yes, "yes", false, "confirm the reset")
	return cmd
}

func runReset(ctx context.Context, out io.Writer, r resetter) error {
	ctx, cancel := context.WithTimeout(ctx, resetTimeout)
	defer cancel()

	if err := r.Reset(ctx); err != nil {
		return withCode(exitDB, err)
	}
	fmt.Fprintln(out, "roster reset")
	return nil
}
