package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JonMunkholm/roster/internal/sheet"
)

// ExportSheetName is the sheet name of exported workbooks.
const ExportSheetName = "Alunos"

// ExportFilePrefix prefixes every transient export file.
const ExportFilePrefix = "students_export_"

// exportHeader is the grouped first header row; "" cells sit under a merge.
var exportHeader = []any{
	"Nome do Aluno", "Matrícula",
	"Diário Oficial", "",
	"Número", "",
	"CECIERJ/CEJA", "",
	"DATAS - MATRÍCULAS", "",
	"Nº DO PROCESSO",
}

// exportSubHeader labels the columns under each merged group.
var exportSubHeader = []any{
	"", "",
	"Data", "Página",
	"1ª Via", "2ª Via",
	"Livro", "Página",
	"Início", "Término",
	"",
}

// exportMerges: single columns span both header rows, groups span two columns.
var exportMerges = []sheet.Merge{
	{StartRow: 0, StartCol: ColName, EndRow: 1, EndCol: ColName},
	{StartRow: 0, StartCol: ColRegistration, EndRow: 1, EndCol: ColRegistration},
	{StartRow: 0, StartCol: ColProcessNumber, EndRow: 1, EndCol: ColProcessNumber},
	{StartRow: 0, StartCol: ColPublicationDate, EndRow: 0, EndCol: ColPublicationPage},
	{StartRow: 0, StartCol: ColCertificateNumber, EndRow: 0, EndCol: ColSecondIssue},
	{StartRow: 0, StartCol: ColBook, EndRow: 0, EndCol: ColBookPage},
	{StartRow: 0, StartCol: ColEnrollmentStart, EndRow: 0, EndCol: ColEnrollmentEnd},
}

// Exporter renders the roster as a spreadsheet. It never writes to the store.
type Exporter struct {
	store   Store
	dir     string
	metrics *Metrics
	now     func() time.Time
}

// NewExporter creates an exporter reading from store and writing transient
// files to dir (os.TempDir() when empty). metrics may be nil.
func NewExporter(store Store, dir string, metrics *Metrics) *Exporter {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Exporter{store: store, dir: dir, metrics: metrics, now: time.Now}
}

// Workbook loads the roster ordered by name and lays it out for export.
func (e *Exporter) Workbook(ctx context.Context) (sheet.Workbook, error) {
	students, err := e.store.FindStudents(ctx, StudentFilter{OrderByName: true})
	if err != nil {
		return sheet.Workbook{}, fmt.Errorf("load roster: %w", err)
	}

	rows := make([][]any, 0, len(students)+HeaderRows)
	rows = append(rows, exportHeader, exportSubHeader)
	for _, s := range students {
		rows = append(rows, exportRow(s))
	}

	return sheet.Workbook{
		SheetName: ExportSheetName,
		Rows:      rows,
		Merges:    exportMerges,
	}, nil
}

// exportRow lays out one student in import column order. Missing values are "".
func exportRow(s Student) []any {
	c := s.Certificate
	if c == nil {
		c = &Certificate{}
	}
	return []any{
		s.Name,
		s.Registration,
		FormatDate(c.PublicationDate),
		c.PublicationPage,
		c.CertificateNumber,
		c.SecondIssue,
		c.Book,
		c.BookPage,
		FormatDate(c.EnrollmentStart),
		FormatDate(c.EnrollmentEnd),
		c.ProcessNumber,
	}
}

// WriteTo writes the exported workbook to w.
func (e *Exporter) WriteTo(ctx context.Context, w io.Writer) error {
	start := e.now()
	wb, err := e.Workbook(ctx)
	if err != nil {
		return err
	}
	if err := sheet.Write(w, wb); err != nil {
		return fmt.Errorf("render export: %w", err)
	}
	e.metrics.ObserveExport(start)
	return nil
}

// Export writes the roster to a new transient file and returns its path.
// The caller owns the file and should remove it once delivered.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	pattern := fmt.Sprintf("%s%d_*.xlsx", ExportFilePrefix, e.now().UnixMilli())
	f, err := os.CreateTemp(e.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	path := f.Name()

	if err := e.WriteTo(ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}
