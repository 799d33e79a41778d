package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doc-extractor/constants"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b_receipt.jpg"))
	touch(t, filepath.Join(dir, "a_receipt.pdf"))
	touch(t, filepath.Join(dir, "notes.txt")) // unsupported, still collected
	touch(t, filepath.Join(dir, ".hidden.jpg"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir"), 0o755))

	docs, err := ScanDirectory(dir, constants.ShopReceipt, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// sorted by path, hidden and directories skipped
	require.Equal(t, filepath.Join(dir, "a_receipt.pdf"), docs[0].SourcePath)
	require.Equal(t, filepath.Join(dir, "b_receipt.jpg"), docs[1].SourcePath)
	require.Equal(t, filepath.Join(dir, "notes.txt"), docs[2].SourcePath)

	require.Equal(t, constants.PDF, docs[0].Format)
	require.Equal(t, constants.IMAGE, docs[1].Format)
	require.Equal(t, "", docs[2].Format)
	for _, d := range docs {
		require.Equal(t, constants.ShopReceipt, d.DocType)
	}
}

func TestScanDirectoryMissing(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "nope"), constants.Resume, nil)
	require.Error(t, err)
}

func TestScanTypedTree(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "driving_license", "dl1.png"))
	touch(t, filepath.Join(base, "shop_receipts", "r1.jpg"))
	touch(t, filepath.Join(base, "shop_receipts", "r2.pdf"))
	// no resumes/ directory: skipped, not an error

	docs, err := ScanTypedTree(base, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	require.Equal(t, constants.DrivingLicense, docs[0].DocType)
	require.Equal(t, constants.ShopReceipt, docs[1].DocType)
	require.Equal(t, constants.ShopReceipt, docs[2].DocType)
}

func TestScanTypedTreeEmptyBase(t *testing.T) {
	docs, err := ScanTypedTree(t.TempDir(), nil)
	require.NoError(t, err)
	require.Empty(t, docs)
}
