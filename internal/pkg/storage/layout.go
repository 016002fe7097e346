package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/LukasBrandt/ShopCore/internal/pkg/env"
)

// PublicMount is the URL prefix under which uploads are served.
const PublicMount = "/uploads"

// KindProducts is the entity kind for catalog products.
const KindProducts = "products"

// Layout owns the on-disk directory convention
// <root>/<entityKind>/<entityId>/<filename> and is the only code path
// that creates, copies or names files under the uploads root.
type Layout struct {
	root string
}

// NewLayout creates a layout rooted at the given uploads directory.
func NewLayout(root string) *Layout {
	return &Layout{root: root}
}

// Root returns the absolute uploads root.
func (l *Layout) Root() string {
	return l.root
}

// EntityDir returns the directory that holds an entity's files.
func (l *Layout) EntityDir(kind string, entityID uint) string {
	return filepath.Join(l.root, kind, strconv.FormatUint(uint64(entityID), 10))
}

// EnsureEntityDir idempotently creates the entity directory.
func (l *Layout) EnsureEntityDir(kind string, entityID uint) (string, error) {
	dir := l.EntityDir(kind, entityID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	return dir, nil
}

// PublicPath maps an absolute file path under the uploads root to the
// path clients request. Separators are normalized to forward slashes
// regardless of host OS.
func (l *Layout) PublicPath(absPath string) (string, error) {
	rel, err := filepath.Rel(l.root, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside the uploads root", absPath)
	}
	return PublicMount + "/" + filepath.ToSlash(rel), nil
}

// PublicFilePath builds the public path for a file inside an entity
// directory without touching the filesystem.
func (l *Layout) PublicFilePath(kind string, entityID uint, filename string) string {
	return fmt.Sprintf("%s/%s/%d/%s", PublicMount, kind, entityID, filename)
}

// ListFiles returns the entity directory's files filtered to an
// allow-list of extensions, sorted by name. An absent directory is not
// an error; it simply has no files yet.
func (l *Layout) ListFiles(kind string, entityID uint, allowedExt map[string]bool) ([]string, error) {
	dir := l.EntityDir(kind, entityID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error listing %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if allowedExt[ext] {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// NewUploadName generates a unique filename for a new upload:
// <unixTimestampMillis>-<randomHex><ext>. Uniqueness without a central
// sequence, so concurrent uploads never collide.
func (l *Layout) NewUploadName(ext string) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(err)
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(buf), ext)
}

// SaveFile writes data into an entity directory and returns the
// absolute path of the created file.
func (l *Layout) SaveFile(data io.Reader, kind string, entityID uint, filename string) (string, error) {
	dir, err := l.EnsureEntityDir(kind, entityID)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(dir, filename)
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("error creating file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return "", fmt.Errorf("error writing file %s: %w", fullPath, err)
	}

	return fullPath, nil
}

// CopyFile copies a file within the uploads tree. Promotion to the
// canonical name copies rather than renames: a partially failed rename
// could destroy the only working image.
func (l *Layout) CopyFile(srcAbs, dstAbs string) error {
	src, err := os.Open(srcAbs)
	if err != nil {
		return fmt.Errorf("error opening source file %s: %w", srcAbs, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dstAbs), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	dst, err := os.Create(dstAbs)
	if err != nil {
		return fmt.Errorf("error creating destination file %s: %w", dstAbs, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("error copying to %s: %w", dstAbs, err)
	}
	return nil
}

// Global layout instance, resolved once at startup.
var defaultLayout *Layout

// Setup resolves the uploads root and verifies it is usable. Both the
// server and the reconcile CLI call this before touching any file.
func Setup() error {
	root, err := ResolveUploadsRoot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("cannot create uploads root %s: %w", root, err)
	}
	defaultLayout = NewLayout(root)
	log.Info("[Storage] Uploads root: ", root)
	return nil
}

// Default returns the process-wide layout.
func Default() *Layout {
	if defaultLayout == nil {
		panic("storage layout not initialized. Call storage.Setup first.")
	}
	return defaultLayout
}

// ResolveUploadsRoot determines the uploads directory from the
// deployment root, never from the process working directory: the
// reconcile CLI and the server are started from different places and
// must agree on the same tree.
func ResolveUploadsRoot() (string, error) {
	if configured := env.GetEnv("UPLOADS_ROOT", ""); configured != "" {
		return filepath.Abs(configured)
	}

	// Probe upwards for the project root, the same way the server
	// locates its .env file.
	basePaths := []string{
		"./",
		"../../",
		"../../../",
	}
	for _, base := range basePaths {
		if _, err := os.Stat(filepath.Join(base, "go.mod")); err == nil {
			return filepath.Abs(filepath.Join(base, "uploads"))
		}
	}

	return "", fmt.Errorf("UPLOADS_ROOT not set and no project root found")
}
