package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	SKU         string `gorm:"type:varchar(100);uniqueIndex" json:"sku"`
	Description string `gorm:"type:text" json:"description"`
	PriceCents  int64  `gorm:"type:bigint;default:0" json:"price_cents"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	// relations
	Images    []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindProductByID loads a single product by its primary key.
func FindProductByID(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	result := db.First(&product, id)
	return &product, result.Error
}
