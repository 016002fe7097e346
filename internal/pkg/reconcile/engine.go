// Package reconcile repairs drift between product image records in the
// database and the files actually present under the uploads root.
//
// The two stores share no transaction boundary, so correctness comes
// from idempotence: every mutation is re-derivable from current
// filesystem state, and re-running the batch is the retry mechanism.
package reconcile

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/LukasBrandt/ShopCore/app/models"
	"github.com/LukasBrandt/ShopCore/internal/pkg/storage"
)

// CanonicalFileName is the fixed name of a product's canonical image.
// The record pointing at it holds the sort_order = 0 slot.
const CanonicalFileName = "0.webp"

// AllowedExtensions filters entity directories to raster image files,
// excluding stray non-image files from reconciliation.
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".bmp":  true,
}

// thumbnailPattern matches derivative names like base-200x200.webp.
var thumbnailPattern = regexp.MustCompile(`-\d+x\d+\.[a-z0-9]+$`)

// ProductSource lists the entities to reconcile.
type ProductSource interface {
	ListAll() ([]models.Product, error)
}

// ImageStore is the slice of the image repository the engine needs.
type ImageStore interface {
	ListByProduct(productID uint) ([]models.ProductImage, error)
	Create(image *models.ProductImage) error
	Update(image *models.ProductImage) error
	Delete(id uint) error
}

// Engine reconciles every product's image records against its
// directory listing. With DryRun set it computes the exact same
// per-entity classification without touching filesystem or database.
type Engine struct {
	products ProductSource
	images   ImageStore
	layout   *storage.Layout
	dryRun   bool
}

// NewEngine creates a reconciliation engine.
func NewEngine(products ProductSource, images ImageStore, layout *storage.Layout, dryRun bool) *Engine {
	return &Engine{products: products, images: images, layout: layout, dryRun: dryRun}
}

// Run reconciles all products sequentially. Per-entity failures are
// recorded and never abort the batch; only failure to reach the
// uploads root or the product table at all returns an error.
func (e *Engine) Run() (*Report, error) {
	if _, err := os.Stat(e.layout.Root()); err != nil {
		return nil, fmt.Errorf("uploads root unavailable: %w", err)
	}

	products, err := e.products.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing products failed: %w", err)
	}

	report := NewReport(e.dryRun)
	for _, product := range products {
		result := e.reconcileOne(product.ID)
		if result.Outcome == OutcomeFailed {
			log.Error(fmt.Sprintf("[Reconcile] Product %d failed: %v", product.ID, result.Err))
		}
		report.Add(result)
	}

	return report, nil
}

// reconcileOne runs the per-entity state machine: inspect, prune,
// select, normalize, upsert. Step order is load-bearing: pruning must
// precede the upsert so stale canonical pointers never survive a run.
func (e *Engine) reconcileOne(productID uint) EntityResult {
	failed := func(err error) EntityResult {
		return EntityResult{ProductID: productID, Outcome: OutcomeFailed, Err: err}
	}

	// Inspect both stores.
	files, err := e.layout.ListFiles(storage.KindProducts, productID, AllowedExtensions)
	if err != nil {
		return failed(err)
	}
	records, err := e.images.ListByProduct(productID)
	if err != nil {
		return failed(err)
	}

	fileSet := make(map[string]bool, len(files))
	for _, f := range files {
		fileSet[f] = true
	}

	// Prune records whose URL basename has no backing file.
	pruned := 0
	kept := make([]models.ProductImage, 0, len(records))
	for _, rec := range records {
		base := path.Base(strings.TrimSpace(rec.URL))
		if fileSet[base] {
			kept = append(kept, rec)
			continue
		}
		pruned++
		if !e.dryRun {
			if err := e.images.Delete(rec.ID); err != nil {
				return failed(fmt.Errorf("pruning record %d: %w", rec.ID, err))
			}
		}
	}

	// Nothing on disk: the product needs a manual asset upload.
	if len(files) == 0 {
		return EntityResult{ProductID: productID, Outcome: OutcomeSkipNoFile, Pruned: pruned}
	}

	selected := selectCanonicalFile(files)
	canonicalURL := e.layout.PublicFilePath(storage.KindProducts, productID, CanonicalFileName)

	recordChanged := len(kept) == 0 || kept[0].URL != canonicalURL

	if !e.dryRun {
		// Normalize the file first (copy, never rename), then the
		// record, so a crash in between leaves a state the next run
		// repairs.
		if selected != CanonicalFileName {
			dir := e.layout.EntityDir(storage.KindProducts, productID)
			src := filepath.Join(dir, selected)
			dst := filepath.Join(dir, CanonicalFileName)
			if err := e.layout.CopyFile(src, dst); err != nil {
				return failed(fmt.Errorf("promoting %s: %w", selected, err))
			}
		}

		if len(kept) == 0 {
			record := &models.ProductImage{ProductID: productID, URL: canonicalURL, SortOrder: 0}
			if err := e.images.Create(record); err != nil {
				return failed(fmt.Errorf("inserting canonical record: %w", err))
			}
		} else if recordChanged {
			first := kept[0]
			first.URL = canonicalURL
			first.SortOrder = 0
			if err := e.images.Update(&first); err != nil {
				return failed(fmt.Errorf("updating canonical record %d: %w", first.ID, err))
			}
		}
		// recordChanged == false: no write at all. This is what makes
		// repeated runs idempotent.
	}

	outcome := OutcomeUpdate
	if pruned == 0 && !recordChanged {
		outcome = OutcomeNoop
	}
	return EntityResult{ProductID: productID, Outcome: outcome, CanonicalURL: canonicalURL, Pruned: pruned}
}

// selectCanonicalFile picks the file to promote, first match wins:
// the canonical name itself, then the lexicographically smallest
// thumbnail-pattern file, then the lexicographically first file.
// A thumbnail is an acceptable last-resort canonical source; leaving
// the slot empty is worse.
func selectCanonicalFile(files []string) string {
	for _, f := range files {
		if f == CanonicalFileName {
			return f
		}
	}

	var thumbs []string
	for _, f := range files {
		if thumbnailPattern.MatchString(strings.ToLower(f)) {
			thumbs = append(thumbs, f)
		}
	}
	if len(thumbs) > 0 {
		sort.Strings(thumbs)
		return thumbs[0]
	}

	// ListFiles returns sorted names, so this is the lexicographic first.
	return files[0]
}
