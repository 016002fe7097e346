package controllers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LukasBrandt/ShopCore/app/models"
	"github.com/LukasBrandt/ShopCore/app/repository"
	"github.com/LukasBrandt/ShopCore/internal/pkg/env"
	"github.com/LukasBrandt/ShopCore/internal/pkg/imageprocessor"
	"github.com/LukasBrandt/ShopCore/internal/pkg/imageurl"
	"github.com/LukasBrandt/ShopCore/internal/pkg/metrics/counter"
	"github.com/LukasBrandt/ShopCore/internal/pkg/storage"
	"github.com/LukasBrandt/ShopCore/internal/pkg/upload"
)

// ingestionService builds the upload pipeline from the process-wide
// layout and the fixed thumbnail profile set.
func ingestionService() *upload.Service {
	tc := imageprocessor.NewTranscoder(imageprocessor.DefaultProfiles())
	return upload.NewService(storage.Default(), tc)
}

// HandleUploadProductImages accepts multipart image uploads for one
// product. Per-file failures are reported alongside the successes and
// never roll back files already written; reconciliation cleans up
// orphans later.
func HandleUploadProductImages(c *fiber.Ctx) error {
	productID, err := parseProductID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	productRepo := repository.GetGlobalFactory().GetProductRepository()
	if _, err := productRepo.GetByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		counter.AddUploadRejected()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
	}
	defer form.RemoveAll()

	files := form.File["images"]
	if len(files) == 0 {
		counter.AddUploadRejected()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file: field 'images' is empty"})
	}

	results, failures := ingestionService().IngestAll(storage.KindProducts, productID, files)

	// Persist one record per ingested file, pointing at the primary
	// derivative. Thumbnails are derivable from it by naming
	// convention and need no rows of their own.
	imageRepo := repository.GetGlobalFactory().GetProductImageRepository()
	nextSort, err := imageRepo.MaxSortOrder(productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	nextSort++

	persisted := make([]upload.FileResult, 0, len(results))
	for _, result := range results {
		record := &models.ProductImage{
			ProductID: productID,
			URL:       result.Paths[0],
			SortOrder: nextSort,
		}
		if err := imageRepo.Create(record); err != nil {
			fiberlog.Error(fmt.Sprintf("[Upload] Failed to persist record for %s: %v", result.Filename, err))
			failures = append(failures, upload.FileError{Filename: result.Filename, Reason: "failed to persist image record", Err: err})
			continue
		}
		nextSort++
		persisted = append(persisted, result)
		counter.AddUploadIngested()
	}
	results = persisted

	for _, failure := range failures {
		if errors.Is(failure.Err, upload.ErrInvalidInput) || errors.Is(failure.Err, upload.ErrTooLarge) {
			counter.AddUploadRejected()
		} else if failure.Err != nil {
			counter.AddUploadFailed()
		}
	}

	status := fiber.StatusCreated
	if len(results) == 0 {
		// Nothing ingested at all: surface the clearest rejection.
		status = fiber.StatusUnprocessableEntity
		if len(failures) > 0 && errors.Is(failures[0].Err, upload.ErrTooLarge) {
			status = fiber.StatusRequestEntityTooLarge
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"uploaded": results,
		"failed":   failures,
	})
}

// HandleListProductImages returns a product's image records with their
// stored URLs normalized through the resolver, so clients always see
// one canonical absolute URL no matter which shape was written
// historically.
func HandleListProductImages(c *fiber.Ctx) error {
	productID, err := parseProductID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	imageRepo := repository.GetGlobalFactory().GetProductImageRepository()
	records, err := imageRepo.ListByProduct(productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	apiBase := env.GetEnv("API_BASE_URL", "http://localhost:4100")
	type imageView struct {
		ID        uint   `json:"id"`
		URL       string `json:"url"`
		AltText   string `json:"alt_text"`
		SortOrder int    `json:"sort_order"`
	}
	views := make([]imageView, 0, len(records))
	for _, record := range records {
		views = append(views, imageView{
			ID:        record.ID,
			URL:       imageurl.Resolve(record.URL, apiBase),
			AltText:   record.AltText,
			SortOrder: record.SortOrder,
		})
	}

	return c.JSON(fiber.Map{"images": views})
}

// HandleStats exposes the in-process pipeline counters.
func HandleStats(c *fiber.Ctx) error {
	return c.JSON(counter.Snapshot())
}

func parseProductID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid product id %q", c.Params("id"))
	}
	return uint(id), nil
}
