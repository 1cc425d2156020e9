package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductCategories is the closed set of catalog categories
var ProductCategories = []string{
	"smartphones",
	"accessories",
	"chargers",
	"cases",
	"headphones",
	"screen-guards",
	"other",
}

// Product represents a catalog item with a stock count
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Category      string         `gorm:"not null;index" json:"category"`
	Brand         string         `gorm:"not null;index" json:"brand"`
	Price         float64        `gorm:"not null;check:price >= 0" json:"price"`
	OriginalPrice *float64       `json:"original_price,omitempty"`
	Discount      *float64       `json:"discount,omitempty"`
	Stock         int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	IsFeatured    bool           `gorm:"not null;default:false" json:"is_featured"`
	RatingAverage float64        `gorm:"not null;default:0" json:"rating_average"`
	RatingCount   int            `gorm:"not null;default:0" json:"rating_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// IsValidProductCategory reports whether category is part of the catalog
func IsValidProductCategory(category string) bool {
	return Contains(ProductCategories, category)
}
