package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// CatalogHandler exposes product and category endpoints. Reads are
// public; writes require the admin role and are registered separately.
type CatalogHandler struct {
	BaseHandler
	svc *appcatalog.Service
}

// NewCatalogHandler creates the catalog handler
func NewCatalogHandler(svc *appcatalog.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{BaseHandler: NewBaseHandler(logger), svc: svc}
}

// RegisterRoutes registers the public read endpoints
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.ListProducts)
	rg.GET("/products/:id", h.GetProduct)
	rg.GET("/categories", h.ListCategories)
}

// RegisterAdminRoutes registers the write endpoints
func (h *CatalogHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/products", h.CreateProduct)
	rg.PUT("/products/:id", h.UpdateProduct)
	rg.DELETE("/products/:id", h.DeleteProduct)
	rg.POST("/categories", h.CreateCategory)
	rg.DELETE("/categories/:id", h.DeleteCategory)
}

type productRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	SKU         string          `json:"sku" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Currency    string          `json:"currency"`
	Stock       int             `json:"stock" binding:"min=0"`
	CategoryID  *string         `json:"category_id"`
}

func (r *productRequest) toInput() (appcatalog.ProductInput, error) {
	input := appcatalog.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		SKU:         r.SKU,
		Price:       r.Price,
		Currency:    r.Currency,
		Stock:       r.Stock,
	}
	if r.CategoryID != nil && *r.CategoryID != "" {
		id, err := uuid.Parse(*r.CategoryID)
		if err != nil {
			return input, err
		}
		input.CategoryID = &id
	}
	return input, nil
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ListProducts returns a page of active products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter := parseFilter(c)
	page, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromProducts(page.Items), page.Total, page.Page, page.PageSize, page.TotalPages)
}

// GetProduct returns one product
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromProduct(p))
}

// CreateProduct adds a product to the catalog
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid product payload")
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.BadRequest(c, "Invalid category id")
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromProduct(p))
}

// UpdateProduct applies changes to a product
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid product payload")
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.BadRequest(c, "Invalid category id")
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromProduct(p))
}

// DeleteProduct removes a product
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// ListCategories returns all categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	out := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, dto.FromCategory(cat))
	}
	h.Success(c, out)
}

// CreateCategory adds a category
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid category payload")
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromCategory(cat))
}

// DeleteCategory removes a category
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCategory(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// parseFilter reads pagination query parameters
func parseFilter(c *gin.Context) shared.Filter {
	var filter shared.Filter
	if v, err := atoiQuery(c, "page"); err == nil {
		filter.Page = v
	}
	if v, err := atoiQuery(c, "page_size"); err == nil {
		filter.PageSize = v
	}
	filter.Normalize()
	return filter
}
