package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paper-shelf/storage"
)

func newTestCleanup(t *testing.T) (*PaperService, *CleanupService, *storage.UploadStore) {
	t.Helper()
	papers := newTestService(t)
	uploads, err := storage.NewUploadStore(t.TempDir())
	require.NoError(t, err)
	cleanup := NewCleanupService(papers.DB, uploads, zap.NewNop())
	return papers, cleanup, uploads
}

func TestOrphanScan(t *testing.T) {
	papers, cleanup, uploads := newTestCleanup(t)

	ref, err := uploads.Store([]byte("keep"), "kept.pdf")
	require.NoError(t, err)
	_, err = uploads.Store([]byte("stray"), "stray.pdf")
	require.NoError(t, err)

	_, err = papers.Insert(PaperInput{Title: "t", PDFPath: &ref})
	require.NoError(t, err)

	orphans, err := cleanup.OrphanScan()
	require.NoError(t, err)
	assert.Equal(t, []string{"stray.pdf"}, orphans)
}

func TestOrphanScan_DeletedPaperOrphansItsFiles(t *testing.T) {
	papers, cleanup, uploads := newTestCleanup(t)

	ref, err := uploads.Store([]byte("doc"), "doc.pdf")
	require.NoError(t, err)
	paper, err := papers.Insert(PaperInput{Title: "t", PDFPath: &ref})
	require.NoError(t, err)

	orphans, err := cleanup.OrphanScan()
	require.NoError(t, err)
	assert.Empty(t, orphans)

	// Deleting the record keeps the file on disk; it becomes an orphan.
	require.NoError(t, papers.Delete(paper.ID))
	orphans, err = cleanup.OrphanScan()
	require.NoError(t, err)
	assert.Equal(t, []string{"doc.pdf"}, orphans)
}

func TestPurgeOrphans(t *testing.T) {
	papers, cleanup, uploads := newTestCleanup(t)

	ref, err := uploads.Store([]byte("keep"), "kept.pdf")
	require.NoError(t, err)
	_, err = uploads.Store([]byte("stray"), "stray.pdf")
	require.NoError(t, err)
	_, err = papers.Insert(PaperInput{Title: "t", PDFPath: &ref})
	require.NoError(t, err)

	removed, err := cleanup.PurgeOrphans()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	files, err := uploads.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"kept.pdf"}, files)
}
