package repository

import (
	"gorm.io/gorm"

	"github.com/LukasBrandt/ShopCore/app/models"
)

// ProductRepository defines the interface for product-related database operations
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	ListAll() ([]models.Product, error)
	List(offset, limit int) ([]models.Product, error)
	Count() (int64, error)
}

// ProductImageRepository defines the interface for image record operations
type ProductImageRepository interface {
	Create(image *models.ProductImage) error
	GetByID(id uint) (*models.ProductImage, error)
	// ListByProduct returns a product's image records ordered by
	// (sort_order asc, id asc), the order reconciliation depends on.
	ListByProduct(productID uint) ([]models.ProductImage, error)
	Update(image *models.ProductImage) error
	Delete(id uint) error
	MaxSortOrder(productID uint) (int, error)
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Product      ProductRepository
	ProductImage ProductImageRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:      NewProductRepository(db),
		ProductImage: NewProductImageRepository(db),
	}
}
