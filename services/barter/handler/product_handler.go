package handler

import (
	"net/http"

	model "barter-exchange/internal/models"
	"barter-exchange/internal/repository"
	"barter-exchange/services/barter/helpers"
	"barter-exchange/utils"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves read-only catalog lookups for building proposals
type ProductHandler struct {
	catalog repository.Catalog
}

func NewProductHandler(catalog repository.Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GetProductHandler handles GET /products/:product_id
func (h *ProductHandler) GetProductHandler(c *gin.Context) {
	productID := c.Param("product_id")

	product, err := h.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		helpers.HandleServiceError(c, "GetProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, product, "product retrieved successfully")
}

// ListProductsHandler handles GET /products?owner_id=&tradable=&stock_greater_than=
func (h *ProductHandler) ListProductsHandler(c *gin.Context) {
	var query helpers.ProductQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		helpers.HandleBindError(c, "ListProductsHandler", err)
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		helpers.HandleBindError(c, "ListProductsHandler", err)
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		helpers.HandleServiceError(c, "ListProductsHandler", err, map[string]any{"owner_id": filter.OwnerID})
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
	helpers.LogSuccess("ListProductsHandler", "products retrieved successfully", map[string]any{
		"owner_id": filter.OwnerID,
		"count":    len(products),
	})
}
