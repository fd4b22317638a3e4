package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	out string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the roster to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "alunos.xlsx", `output path, or "-" for stdout`)
	return cmd
}

func runExport(ctx context.Context, stdout io.Writer, opts exportOptions) error {
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	svc := b.service()
	if opts.out == "-" {
		if err := svc.ExportTo(ctx, stdout); err != nil {
			return withCode(exitDB, err)
		}
		return nil
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("create %s: %w", opts.out, err))
	}
	if err := svc.ExportTo(ctx, f); err != nil {
		f.Close()
		os.Remove(opts.out)
		return withCode(exitDB, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", opts.out, err)
	}
	fmt.Fprintf(os.Stderr, "roster written to %s\n", opts.out)
	return nil
}
