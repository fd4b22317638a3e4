package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/sheet"
)

// ErrInputNotFound is returned when the import file does not exist.
// Nothing is processed and no report is produced.
var ErrInputNotFound = errors.New("import file not found")

// ErrMissingCertificate is returned by stores asked to save a student whose
// certificate was not created first.
var ErrMissingCertificate = errors.New("student has no persisted certificate")

// Importer reconciles spreadsheet rows against the roster and admits the rest.
type Importer struct {
	store   Store
	metrics *Metrics
}

// NewImporter creates an importer writing to store. metrics may be nil.
func NewImporter(store Store, metrics *Metrics) *Importer {
	return &Importer{store: store, metrics: metrics}
}

// ImportFile imports the first sheet of the workbook at path.
//
// A missing file fails with ErrInputNotFound before anything else happens.
// Otherwise the file is removed when ImportFile returns, whatever the outcome.
// Row-level problems never fail the call; they are listed in the report.
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportReport, error) {
	start := time.Now()

	if _, err := os.Stat(path); err != nil {
		im.metrics.ObserveImport(ResultFailed, start)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("stat import file: %w", err)
	}
	defer retire(ctx, path)

	rows, err := readWorkbook(path)
	if err != nil {
		im.metrics.ObserveImport(ResultFailed, start)
		return nil, err
	}

	report, err := im.importRows(ctx, rows, filepath.Base(path), start)
	if err != nil {
		im.metrics.ObserveImport(ResultFailed, start)
		return nil, err
	}
	im.metrics.ObserveImport(importResult(report), start)
	return report, nil
}

// ImportRows runs the pipeline over rows already read from a sheet,
// including its two header rows.
func (im *Importer) ImportRows(ctx context.Context, rows []sheet.Row) (*ImportReport, error) {
	start := time.Now()
	report, err := im.importRows(ctx, rows, "", start)
	if err != nil {
		im.metrics.ObserveImport(ResultFailed, start)
		return nil, err
	}
	im.metrics.ObserveImport(importResult(report), start)
	return report, nil
}

func (im *Importer) importRows(ctx context.Context, rows []sheet.Row, fileName string, start time.Time) (*ImportReport, error) {
	report := &ImportReport{
		ImportID: uuid.NewString(),
		FileName: fileName,
		Errors:   []string{},
	}
	fields := append([]any{"import_id", report.ImportID, "file", fileName}, importLogFields(ctx)...)
	logger := logging.WithFields(ctx, fields...)

	candidates := ExtractCandidates(NormalizeRows(SkipHeader(rows)))
	report.RowsRead = len(candidates)
	logger.Info("import started", "candidates", len(candidates))

	existing, err := im.store.FindStudents(ctx, StudentFilter{})
	if err != nil {
		return nil, fmt.Errorf("load roster snapshot: %w", err)
	}

	dups := ValidateDuplicates(candidates, identityKeys(existing))
	conflicts := ValidateConflicts(
		conflictRecordsFromCandidates(dups.Valid),
		conflictRecordsFromStudents(existing),
	)

	for _, e := range dups.Rejected {
		report.Errors = append(report.Errors, e.Message)
	}
	for _, e := range conflicts.Rejected {
		report.Errors = append(report.Errors, e.Message)
	}
	im.metrics.AddRows(OutcomeDuplicate, len(dups.Rejected))
	im.metrics.AddRows(OutcomeConflict, len(conflicts.Rejected))

	var admitted []Candidate
	for _, c := range dups.Valid {
		if !conflicts.Excluded(c.Key()) {
			admitted = append(admitted, c)
		}
	}

	acc := rowAccumulator{report: report}
	for _, c := range admitted {
		acc.record(c, im.admit(ctx, c))
	}
	for _, e := range acc.failures {
		logger.Warn("row not persisted", "line", e.Line, "name", e.Key.Name, "error", e.Message)
	}
	im.metrics.AddRows(OutcomeAdmitted, report.SuccessCount)
	im.metrics.AddRows(OutcomeFailed, len(acc.failures))

	report.Duration = time.Since(start)
	logger.Info("import finished",
		"success", report.SuccessCount,
		"duplicates", len(dups.Rejected),
		"conflicts", len(conflicts.Rejected),
		"failed", len(acc.failures),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// admit persists one candidate: certificate first, then the student owning
// it, in a single transaction.
func (im *Importer) admit(ctx context.Context, c Candidate) error {
	params := BuildCertificateParams(c.Row)
	return im.store.WithinTx(ctx, func(tx Store) error {
		cert, err := tx.CreateCertificate(ctx, params)
		if err != nil {
			return fmt.Errorf("create certificate: %w", err)
		}
		student := &Student{
			Name:         c.Name,
			Registration: c.Registration,
			Certificate:  cert,
		}
		if err := tx.SaveStudent(ctx, student); err != nil {
			return fmt.Errorf("save student: %w", err)
		}
		return nil
	})
}

// rowAccumulator folds per-row persistence results into the report.
type rowAccumulator struct {
	report   *ImportReport
	failures []RowError
}

func (a *rowAccumulator) record(c Candidate, err error) {
	if err == nil {
		a.report.SuccessCount++
		return
	}
	rowErr := RowError{
		Line:    c.Line,
		Key:     c.Key(),
		Kind:    RowFailed,
		Message: fmt.Sprintf("Erro ao processar aluno %s: %v", c.Name, err),
	}
	a.failures = append(a.failures, rowErr)
	a.report.Errors = append(a.report.Errors, rowErr.Message)
}

func readWorkbook(path string) ([]sheet.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	rows, err := sheet.ReadFirstSheet(f)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return rows, nil
}

// retire removes a consumed import file.
func retire(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.FromContext(ctx).Warn("failed to remove import file", "path", path, "error", err)
	}
}
