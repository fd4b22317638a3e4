package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DefaultImportTimeout bounds one import when no timeout is configured.
const DefaultImportTimeout = 10 * time.Minute

// UploadFilePrefix names files written by SaveUpload.
const UploadFilePrefix = "upload_"

// ServiceConfig holds the file locations and limits of a Service.
type ServiceConfig struct {
	UploadDir     string
	ExportDir     string
	ImportTimeout time.Duration
}

// Service is the entry point used by the web handlers and the CLI.
// It wraps the importer with the import lock and owns the transient
// upload and export directories.
type Service struct {
	store    Store
	locker   Locker
	importer *Importer
	exporter *Exporter

	uploadDir     string
	exportDir     string
	importTimeout time.Duration
}

// NewService wires a Service. locker may be nil for single-caller tools;
// metrics may be nil.
func NewService(store Store, locker Locker, metrics *Metrics, cfg ServiceConfig) *Service {
	if cfg.UploadDir == "" {
		cfg.UploadDir = filepath.Join(os.TempDir(), "roster-uploads")
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = os.TempDir()
	}
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = DefaultImportTimeout
	}
	if locker == nil {
		locker = noLock{}
	}

	return &Service{
		store:         store,
		locker:        locker,
		importer:      NewImporter(store, metrics),
		exporter:      NewExporter(store, cfg.ExportDir, metrics),
		uploadDir:     cfg.UploadDir,
		exportDir:     cfg.ExportDir,
		importTimeout: cfg.ImportTimeout,
	}
}

// ListStudents returns the roster ordered by name.
func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	students, err := s.store.FindStudents(ctx, StudentFilter{OrderByName: true})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// SaveUpload writes r to a new file in the upload directory and returns its
// path, ready for ImportFile.
func (s *Service) SaveUpload(r io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.CreateTemp(s.uploadDir, UploadFilePrefix+"*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	path := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

// ImportFile imports the workbook at path while holding the import lock.
// The file is removed on every path out of this call, including when the
// lock cannot be acquired.
func (s *Service) ImportFile(ctx context.Context, path string) (*ImportReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	release, err := s.locker.Acquire(ctx)
	if err != nil {
		retire(ctx, path)
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	defer release()

	return s.importer.ImportFile(ctx, path)
}

// Export writes the roster to a transient file and returns its path.
func (s *Service) Export(ctx context.Context) (string, error) {
	return s.exporter.Export(ctx)
}

// ExportTo streams the roster workbook to w.
func (s *Service) ExportTo(ctx context.Context, w io.Writer) error {
	return s.exporter.WriteTo(ctx, w)
}

// TransientDirs returns the directories holding upload and export files.
func (s *Service) TransientDirs() []string {
	if s.uploadDir == s.exportDir {
		return []string{s.uploadDir}
	}
	return []string{s.uploadDir, s.exportDir}
}

// RemoveExport deletes a file returned by Export.
func RemoveExport(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove export file: %w", err)
	}
	return nil
}

type noLock struct{}

func (noLock) Acquire(context.Context) (func(), error) { return func() {}, nil }
