package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
)

// ProductDetail is the single product response
type ProductDetail struct {
	Product         *models.Product  `json:"product"`
	RelatedProducts []models.Product `json:"related_products"`
}

// ListProducts handles GET /api/v1/products with optional
// category, brand, search, min_price, max_price, sort, page and limit filters
func ListProducts(c *gin.Context) {
	filter := services.ProductFilter{
		Category:  c.Query("category"),
		Brand:     c.Query("brand"),
		Search:    c.Query("search"),
		MinPrice:  floatQuery(c, "min_price"),
		MaxPrice:  floatQuery(c, "max_price"),
		Sort:      c.Query("sort"),
		PageQuery: pageQuery(c),
	}

	products, pagination, err := services.GetCatalogService().ListProducts(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondPage(c, products, pagination)
}

// GetProduct handles GET /api/v1/products/:id
func GetProduct(c *gin.Context) {
	id, ok := uintParam(c, "id", errProductNotFound)
	if !ok {
		return
	}

	product, related, err := services.GetCatalogService().GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", ProductDetail{Product: product, RelatedProducts: related})
}

// GetFeaturedProducts handles GET /api/v1/products/featured
func GetFeaturedProducts(c *gin.Context) {
	products, err := services.GetCatalogService().FeaturedProducts(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", products)
}

// GetCategories handles GET /api/v1/products/categories
func GetCategories(c *gin.Context) {
	categories, err := services.GetCatalogService().Categories(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", categories)
}

// GetBrands handles GET /api/v1/products/brands
func GetBrands(c *gin.Context) {
	brands, err := services.GetCatalogService().Brands(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondSuccess(c, http.StatusOK, "", brands)
}
