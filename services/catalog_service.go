package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/utils"
	"gorm.io/gorm"
)

const (
	featuredProductsLimit = 8
	relatedProductsLimit  = 4
)

// ProductFilter narrows the public product listing
type ProductFilter struct {
	Category string
	Brand    string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Sort     string // price_low, price_high, rating, newest; featured first otherwise
	PageQuery
}

// ProductInput is the admin payload for creating a product
type ProductInput struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   string   `json:"description" validate:"required,max=2000"`
	Category      string   `json:"category" validate:"required,oneof=smartphones accessories chargers cases headphones screen-guards other"`
	Brand         string   `json:"brand" validate:"required,max=50"`
	Price         float64  `json:"price" validate:"gte=0"`
	OriginalPrice *float64 `json:"original_price" validate:"omitempty,gte=0"`
	Discount      *float64 `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Stock         int      `json:"stock" validate:"gte=0"`
	IsFeatured    bool     `json:"is_featured"`
}

// ProductPatch is the admin payload for updating a product
type ProductPatch struct {
	Name          *string  `json:"name" validate:"omitempty,max=100"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	Category      *string  `json:"category" validate:"omitempty,oneof=smartphones accessories chargers cases headphones screen-guards other"`
	Brand         *string  `json:"brand" validate:"omitempty,max=50"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice *float64 `json:"original_price" validate:"omitempty,gte=0"`
	Discount      *float64 `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Stock         *int     `json:"stock" validate:"omitempty,gte=0"`
	IsActive      *bool    `json:"is_active"`
	IsFeatured    *bool    `json:"is_featured"`
}

var errProductNotFound = utils.NewNotFoundError("PRODUCT_NOT_FOUND", "Product not found")

// CatalogService serves the product catalog
type CatalogService struct {
	db *gorm.DB
}

var catalogServiceInstance *CatalogService

// InitCatalogService initializes the global catalog service
func InitCatalogService(db *gorm.DB) *CatalogService {
	catalogServiceInstance = NewCatalogService(db)
	return catalogServiceInstance
}

// GetCatalogService returns the global catalog service
func GetCatalogService() *CatalogService {
	return catalogServiceInstance
}

// SetCatalogService replaces the global catalog service (primarily for testing)
func SetCatalogService(svc *CatalogService) {
	catalogServiceInstance = svc
}

// NewCatalogService creates a catalog service over db
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListProducts returns one page of active products
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, Pagination, error) {
	page := filter.PageQuery.normalize()
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("LOWER(brand) LIKE ?", "%"+strings.ToLower(filter.Brand)+"%")
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?", term, term, term)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, utils.NewUnexpectedError("Failed to count products", err)
	}

	var products []models.Product
	err := query.Order(productOrder(filter.Sort)).
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&products).Error
	if err != nil {
		return nil, Pagination{}, utils.NewUnexpectedError("Failed to load products", err)
	}
	return products, newPagination(page, total), nil
}

func productOrder(sort string) string {
	switch sort {
	case "price_low":
		return "price ASC"
	case "price_high":
		return "price DESC"
	case "rating":
		return "rating_average DESC"
	case "newest":
		return "created_at DESC"
	default:
		return "is_featured DESC, created_at DESC"
	}
}

// GetProduct returns an active product and up to four related products of the same category
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, []models.Product, error) {
	db := s.db.WithContext(ctx)

	var product models.Product
	err := db.Where("id = ? AND is_active = ?", id, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errProductNotFound
	}
	if err != nil {
		return nil, nil, utils.NewUnexpectedError("Failed to load product", err)
	}

	var related []models.Product
	err = db.Where("category = ? AND id <> ? AND is_active = ?", product.Category, product.ID, true).
		Limit(relatedProductsLimit).
		Find(&related).Error
	if err != nil {
		return nil, nil, utils.NewUnexpectedError("Failed to load related products", err)
	}
	return &product, related, nil
}

// FeaturedProducts returns up to eight featured active products
func (s *CatalogService) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("created_at DESC").
		Limit(featuredProductsLimit).
		Find(&products).Error
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load featured products", err)
	}
	return products, nil
}

// Categories returns the distinct categories of active products
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "category")
}

// Brands returns the distinct brands of active products
func (s *CatalogService) Brands(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "brand")
}

func (s *CatalogService) distinct(ctx context.Context, column string) ([]string, error) {
	values := []string{}
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load "+column+" list", err)
	}
	return values, nil
}

// CreateProduct adds a product to the catalog
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:          in.Name,
		Description:   strings.TrimSpace(in.Description),
		Category:      in.Category,
		Brand:         in.Brand,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Discount:      in.Discount,
		Stock:         in.Stock,
		IsActive:      true,
		IsFeatured:    in.IsFeatured,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, utils.NewUnexpectedError("Failed to create product", err)
	}
	return &product, nil
}

// UpdateProduct applies patch to an existing product, active or not
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var product models.Product
	err := db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errProductNotFound
	}
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load product", err)
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.Brand != nil {
		updates["brand"] = strings.TrimSpace(*patch.Brand)
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.OriginalPrice != nil {
		updates["original_price"] = *patch.OriginalPrice
	}
	if patch.Discount != nil {
		updates["discount"] = *patch.Discount
	}
	if patch.Stock != nil {
		updates["stock"] = *patch.Stock
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.IsFeatured != nil {
		updates["is_featured"] = *patch.IsFeatured
	}

	if len(updates) > 0 {
		if err := db.Model(&product).Updates(updates).Error; err != nil {
			return nil, utils.NewUnexpectedError("Failed to update product", err)
		}
	}

	if err := db.First(&product, id).Error; err != nil {
		return nil, utils.NewUnexpectedError("Failed to load product", err)
	}
	return &product, nil
}
