package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
)

// ProductService is the catalog API the product handler drives
type ProductService interface {
	Upload(ctx context.Context, input appcatalog.UploadProductInput) (*appcatalog.ProductResponse, error)
	List(ctx context.Context) ([]appcatalog.ProductResponse, error)
}

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	BaseHandler
	productService ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Upload godoc
// @ID           uploadProduct
// @Summary      Add a product to the catalog
// @Description  Stores a product. The image may be a data URL or an existing image URL.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body appcatalog.UploadProductInput true "Product"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /uploadProduct [post]
func (h *ProductHandler) Upload(c *gin.Context) {
	var input appcatalog.UploadProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindError(c, err)
		return
	}

	product, err := h.productService.Upload(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, "Product uploaded successfully", product)
}

// List godoc
// @ID           listProducts
// @Summary      List all products
// @Description  Returns a bare JSON array, not an envelope
// @Tags         products
// @Produce      json
// @Success      200 {array} appcatalog.ProductResponse
// @Failure      500 {object} dto.Response
// @Router       /product [get]
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}
