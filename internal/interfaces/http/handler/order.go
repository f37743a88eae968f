package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// OrderHandler exposes checkout and order management for the
// authenticated user
type OrderHandler struct {
	BaseHandler
	svc *apporder.Service
}

// NewOrderHandler creates the order handler
func NewOrderHandler(svc *apporder.Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{BaseHandler: NewBaseHandler(logger), svc: svc}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("/checkout", h.Checkout)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/cancel", h.Cancel)
	}
}

type checkoutRequest struct {
	Street         string `json:"street" binding:"required"`
	City           string `json:"city" binding:"required"`
	Zip            string `json:"zip" binding:"required"`
	Country        string `json:"country" binding:"required"`
	ShippingMethod string `json:"shipping_method" binding:"required,oneof=STANDARD EXPRESS"`
	PaymentMethod  string `json:"payment_method" binding:"required,oneof=CARD CHECKOUT_SESSION"`
	SuccessURL     string `json:"success_url"`
	CancelURL      string `json:"cancel_url"`
}

// Checkout places an order from the user's cart. A failure to dispatch
// the payment request is surfaced as 502 rather than swallowed.
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid checkout payload")
		return
	}

	o, err := h.svc.Checkout(c.Request.Context(), userID, apporder.CheckoutInput{
		Street:         req.Street,
		City:           req.City,
		Zip:            req.Zip,
		Country:        req.Country,
		ShippingMethod: order.ShippingMethod(req.ShippingMethod),
		PaymentMethod:  order.PaymentMethod(req.PaymentMethod),
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.FromOrder(o))
}

// List returns a page of the user's orders
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	page, err := h.svc.List(c.Request.Context(), userID, parseFilter(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.FromOrders(page.Items), page.Total, page.Page, page.PageSize, page.TotalPages)
}

// Get returns one of the user's orders
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromOrder(o))
}

// Cancel cancels one of the user's orders
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.Cancel(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromOrder(o))
}
