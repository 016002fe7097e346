package storage_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukasBrandt/ShopCore/internal/pkg/storage"
)

func TestEnsureEntityDirIsIdempotent(t *testing.T) {
	layout := storage.NewLayout(t.TempDir())

	dir, err := layout.EnsureEntityDir(storage.KindProducts, 42)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	// Second call must not fail on the existing directory
	again, err := layout.EnsureEntityDir(storage.KindProducts, 42)
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestPublicPathUsesForwardSlashes(t *testing.T) {
	root := t.TempDir()
	layout := storage.NewLayout(root)

	abs := filepath.Join(root, "products", "7", "0.webp")
	public, err := layout.PublicPath(abs)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/products/7/0.webp", public)
	assert.False(t, strings.Contains(public, "\\"))
}

func TestPublicPathRejectsOutsideRoot(t *testing.T) {
	layout := storage.NewLayout(t.TempDir())

	_, err := layout.PublicPath(filepath.Join(os.TempDir(), "elsewhere", "x.webp"))
	assert.Error(t, err)
}

func TestPublicFilePath(t *testing.T) {
	layout := storage.NewLayout(t.TempDir())
	assert.Equal(t, "/uploads/products/3/0.webp",
		layout.PublicFilePath(storage.KindProducts, 3, "0.webp"))
}

func TestListFilesMissingDirIsEmpty(t *testing.T) {
	layout := storage.NewLayout(t.TempDir())

	files, err := layout.ListFiles(storage.KindProducts, 99, map[string]bool{".jpg": true})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListFilesFiltersAndSorts(t *testing.T) {
	layout := storage.NewLayout(t.TempDir())
	dir, err := layout.EnsureEntityDir(storage.KindProducts, 5)
	require.NoError(t, err)

	for _, name := range []string{"b.webp", "a.jpg", "notes.txt", "z.JPG"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0755))

	allowed := map[string]bool{".jpg": true, ".webp": true}
	files, err := layout.ListFiles(storage.KindProducts, 5, allowed)
	require.NoError(t, err)

	// Extension matching is case-insensitive, stray files and
	// directories are excluded, output is sorted.
	assert.Equal(t, []string{"a.jpg", "b.webp", "z.JPG"}, files)
}

func TestNewUploadNameFormat(t *testing.T) {
	layout := storage.NewLayout(t.TempDir())

	pattern := regexp.MustCompile(`^\d{13}-[0-9a-f]{12}\.webp$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := layout.NewUploadName(".webp")
		assert.Regexp(t, pattern, name)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestCopyFilePreservesSource(t *testing.T) {
	layout := storage.NewLayout(t.TempDir())
	dir, err := layout.EnsureEntityDir(storage.KindProducts, 8)
	require.NoError(t, err)

	src := filepath.Join(dir, "original.webp")
	dst := filepath.Join(dir, "0.webp")
	require.NoError(t, os.WriteFile(src, []byte("image-bytes"), 0644))

	require.NoError(t, layout.CopyFile(src, dst))

	// Copy, not move: the original must survive the promotion
	assert.FileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}
