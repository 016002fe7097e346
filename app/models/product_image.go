package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductImage is one image record owned by a product. The record with
// sort_order = 0 is the canonical image shown by default; the reconcile
// tool guarantees there is at most one such record per product.
//
// No gorm.DeletedAt here: reconciliation prunes records whose file is
// gone, and a soft-deleted row would keep shadowing the canonical slot
// on the next run.
type ProductImage struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	UUID      string  `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	ProductID uint    `gorm:"index;not null" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	// URL historically carries several shapes (absolute URL, /uploads
	// path, legacy /image/catalog path, bare filename). Readers must go
	// through imageurl.Resolve; writers produce /uploads paths only.
	URL       string    `gorm:"type:varchar(500);not null" json:"url"`
	AltText   string    `gorm:"type:varchar(255)" json:"alt_text"`
	SortOrder int       `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.New().String()
	}
	return nil
}

// FindCanonicalImage returns the sort_order = 0 record for a product.
func FindCanonicalImage(db *gorm.DB, productID uint) (*ProductImage, error) {
	var image ProductImage
	result := db.Where("product_id = ? AND sort_order = 0", productID).First(&image)
	return &image, result.Error
}
