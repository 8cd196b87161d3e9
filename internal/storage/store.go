package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/autovisite/reportsvc/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const invoicesSubdir = "invoices"

var ErrFileNotFound = errors.New("file not found")

// Store writes generated PDFs under the reports directory and builds their
// public download URLs. Invoices live in an invoices/ subdirectory.
type Store struct {
	baseDir string
	baseURL string
	log     *zap.Logger
}

var Module = fx.Module("storage",
	fx.Provide(NewStore),
)

func NewStore(cfg config.Config, log *zap.Logger) (*Store, error) {
	return NewStoreAt(cfg.ReportsDir, cfg.APIBaseURL, log)
}

func NewStoreAt(baseDir, baseURL string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, invoicesSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dirs: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		baseURL: baseURL,
		log:     log.Named("storage"),
	}, nil
}

// SaveReport writes a report PDF and fsyncs it before returning. Rows that
// reference the file are only written after SaveReport succeeds.
func (s *Store) SaveReport(fileName string, data []byte) (string, error) {
	return s.save(filepath.Join(s.baseDir, filepath.Base(fileName)), data)
}

// SaveInvoice writes an invoice PDF under invoices/.
func (s *Store) SaveInvoice(fileName string, data []byte) (string, error) {
	return s.save(filepath.Join(s.baseDir, invoicesSubdir, filepath.Base(fileName)), data)
}

func (s *Store) save(path string, data []byte) (string, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// ReportFile resolves a download filename to a path, refusing traversal.
func (s *Store) ReportFile(fileName string) (string, error) {
	path := filepath.Join(s.baseDir, filepath.Base(fileName))
	if _, err := os.Stat(path); err != nil {
		return "", ErrFileNotFound
	}
	return path, nil
}

// InvoiceFile resolves an invoice download filename to a path.
func (s *Store) InvoiceFile(fileName string) (string, error) {
	path := filepath.Join(s.baseDir, invoicesSubdir, filepath.Base(fileName))
	if _, err := os.Stat(path); err != nil {
		return "", ErrFileNotFound
	}
	return path, nil
}

// Exists reports whether an absolute path written earlier is still present.
func (s *Store) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReportURL builds the public download URL for a report file.
func (s *Store) ReportURL(fileName string) string {
	return s.baseURL + "/api/reports/download/" + fileName
}

// InvoiceURL builds the public download URL for an invoice file.
func (s *Store) InvoiceURL(fileName string) string {
	return s.baseURL + "/api/invoices/download/" + fileName
}
