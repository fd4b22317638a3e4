package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/sheet"
)

// errDryRun rolls back the transaction wrapping a dry-run import.
var errDryRun = errors.New("dry run")

type importOptions struct {
	file   string
	keep   bool
	dryRun bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import students from an .xlsx roster",
		Long: "Import reads the first sheet of the workbook, skips the two header rows, " +
			"and admits every row that is neither a duplicate nor a book/page conflict. " +
			"The input file is deleted afterwards unless --keep or --dry-run is given.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.file) == "" {
				return withCode(exitUsage, fmt.Errorf("--file is required"))
			}
			if !strings.EqualFold(filepath.Ext(opts.file), ".xlsx") {
				return withCode(exitUsage, fmt.Errorf("--file must be an .xlsx workbook: %s", opts.file))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "path to the .xlsx roster (required)")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "leave the input file in place")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report what would be imported without writing")
	return cmd
}

func runImport(ctx context.Context, out io.Writer, opts importOptions) error {
	path := opts.file
	if _, err := os.Stat(path); err != nil {
		return withCode(exitUsage, fmt.Errorf("%w: %s", core.ErrInputNotFound, path))
	}
	if opts.keep || opts.dryRun {
		scratch, err := copyInput(path)
		if err != nil {
			return err
		}
		defer os.Remove(scratch)
		path = scratch
	}

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	if opts.dryRun {
		var report *core.ImportReport
		err := b.store.WithinTx(ctx, func(tx core.Store) error {
			r, err := core.NewImporter(tx, nil).ImportFile(ctx, path)
			if err != nil {
				return err
			}
			report = r
			return errDryRun
		})
		if err != nil && !errors.Is(err, errDryRun) {
			return importFailure(err)
		}
		fmt.Fprintln(out, "dry run: nothing was written")
		return printReport(out, report)
	}

	report, err := b.service().ImportFile(ctx, path)
	if err != nil {
		return importFailure(err)
	}
	return printReport(out, report)
}

// copyInput copies src to a scratch file so the import can consume the copy.
func copyInput(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp("", core.UploadFilePrefix+"*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create scratch copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("copy input: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("close scratch copy: %w", err)
	}
	return out.Name(), nil
}

func importFailure(err error) error {
	if errors.Is(err, sheet.ErrInvalidWorkbook) || errors.Is(err, sheet.ErrNoSheets) ||
		errors.Is(err, core.ErrInputNotFound) {
		return withCode(exitUsage, err)
	}
	return withCode(exitDB, err)
}

// printReport writes the report and returns an exitPartial error when any
// row was rejected.
func printReport(out io.Writer, r *core.ImportReport) error {
	fmt.Fprintf(out, "import %s: %d of %d rows imported\n", r.ImportID, r.SuccessCount, r.RowsRead)
	for _, msg := range r.Errors {
		fmt.Fprintf(out, "  - %s\n", msg)
	}
	if r.Clean() {
		fmt.Fprintln(out, "Todos os alunos foram importados com sucesso.")
		return nil
	}
	return withCode(exitPartial, fmt.Errorf("%d rows rejected", len(r.Errors)))
}
