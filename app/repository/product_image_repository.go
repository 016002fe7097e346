package repository

import (
	"gorm.io/gorm"

	"github.com/LukasBrandt/ShopCore/app/models"
)

// productImageRepository implements the ProductImageRepository interface
type productImageRepository struct {
	db *gorm.DB
}

// NewProductImageRepository creates a new image record repository instance
func NewProductImageRepository(db *gorm.DB) ProductImageRepository {
	return &productImageRepository{db: db}
}

// Create creates a new image record in the database
func (r *productImageRepository) Create(image *models.ProductImage) error {
	return r.db.Create(image).Error
}

// GetByID retrieves an image record by its ID
func (r *productImageRepository) GetByID(id uint) (*models.ProductImage, error) {
	var image models.ProductImage
	err := r.db.First(&image, id).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// ListByProduct retrieves a product's image records in canonical order.
// sort_order first, then ID for a stable order among equal sort values.
func (r *productImageRepository) ListByProduct(productID uint) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.Where("product_id = ?", productID).
		Order("sort_order ASC, id ASC").Find(&images).Error
	return images, err
}

// Update writes back url/alt_text/sort_order changes for a record
func (r *productImageRepository) Update(image *models.ProductImage) error {
	return r.db.Save(image).Error
}

// Delete removes an image record. Hard delete: reconciliation prunes
// rows whose file no longer exists and they must not linger.
func (r *productImageRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.ProductImage{}, id).Error
}

// MaxSortOrder returns the highest sort_order for a product, or -1 when
// the product has no image records yet.
func (r *productImageRepository) MaxSortOrder(productID uint) (int, error) {
	var count int64
	if err := r.db.Model(&models.ProductImage{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return -1, err
	}
	if count == 0 {
		return -1, nil
	}
	var max int
	err := r.db.Model(&models.ProductImage{}).Where("product_id = ?", productID).
		Select("MAX(sort_order)").Row().Scan(&max)
	return max, err
}

// Count returns the total number of image records
func (r *productImageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ProductImage{}).Count(&count).Error
	return count, err
}
