package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreAt(t.TempDir(), "http://localhost:8008", zap.NewNop())
	assert.NoError(t, err)
	return store
}

func TestSaveReport_WritesFile(t *testing.T) {
	store := newTestStore(t)

	path, err := store.SaveReport("inspection_certificate_42_1700000000000.pdf", []byte("%PDF-1.4"))
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestSaveInvoice_GoesToSubdir(t *testing.T) {
	store := newTestStore(t)

	path, err := store.SaveInvoice("INV-1700000000000.pdf", []byte("%PDF-1.4"))
	assert.NoError(t, err)
	assert.Equal(t, "invoices", filepath.Base(filepath.Dir(path)))
}

func TestReportFile_RefusesTraversal(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveReport("report.pdf", []byte("x"))
	assert.NoError(t, err)

	// filepath.Base strips the traversal, so the lookup resolves inside
	// the base dir or not at all.
	path, err := store.ReportFile("../report.pdf")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Base(path), "report.pdf")

	_, err = store.ReportFile("../../etc/passwd")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestRemove_MissingFileIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Remove(filepath.Join(t.TempDir(), "gone.pdf")))
	assert.NoError(t, store.Remove(""))
}

func TestURLs(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t,
		"http://localhost:8008/api/reports/download/report.pdf",
		store.ReportURL("report.pdf"),
	)
	assert.Equal(t,
		"http://localhost:8008/api/invoices/download/INV-1.pdf",
		store.InvoiceURL("INV-1.pdf"),
	)
}

func TestExists(t *testing.T) {
	store := newTestStore(t)
	path, err := store.SaveReport("a.pdf", []byte("x"))
	assert.NoError(t, err)
	assert.True(t, store.Exists(path))
	assert.False(t, store.Exists(path+".missing"))
	assert.False(t, store.Exists(""))
}
