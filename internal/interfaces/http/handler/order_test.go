package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/broker"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/messaging/contract"
)

type orderHandlerFixture struct {
	engine    *gin.Engine
	transport *broker.MemoryTransport
	orders    *persistence.OrderRepository
	userID    uuid.UUID
}

func newOrderHandlerFixture(t *testing.T) *orderHandlerFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&identity.User{}, &catalog.Category{}, &catalog.Product{},
		&cart.Cart{}, &cart.Item{}, &order.Order{}, &order.Item{},
	))

	orderRepo := persistence.NewOrderRepository(db)
	cartRepo := persistence.NewCartRepository(db)
	productRepo := persistence.NewProductRepository(db)

	user := &identity.User{
		BaseEntity: shared.NewBaseEntity(),
		Email:      "buyer@example.com",
		Role:       identity.RoleCustomer,
	}
	require.NoError(t, db.Create(user).Error)
	userID := user.ID

	product := &catalog.Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              "Mechanical Keyboard",
		SKU:               "KB-100",
		Price:             decimal.NewFromFloat(89.99),
		Currency:          "USD",
		Stock:             10,
		Active:            true,
	}
	require.NoError(t, productRepo.Save(context.Background(), product))

	c := cart.NewCart(userID)
	require.NoError(t, c.AddItem(product.ID, 2, product.Price))
	require.NoError(t, cartRepo.Save(context.Background(), c))

	transport := broker.NewMemoryTransport(nil)
	svc := apporder.NewService(orderRepo, cartRepo, productRepo, transport, "1.0", zap.NewNop())
	h := NewOrderHandler(svc, zap.NewNop())

	engine := gin.New()
	api := engine.Group("/api/v1")
	api.Use(func(gc *gin.Context) {
		gc.Set("jwt_user_id", userID.String())
		gc.Next()
	})
	h.RegisterRoutes(api)

	return &orderHandlerFixture{
		engine:    engine,
		transport: transport,
		orders:    orderRepo,
		userID:    userID,
	}
}

func checkoutBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"street":          "1 Main St",
		"city":            "Springfield",
		"zip":             "12345",
		"country":         "US",
		"shipping_method": "STANDARD",
		"payment_method":  "CARD",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestOrderHandler_Checkout(t *testing.T) {
	f := newOrderHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", checkoutBody(t))
	req.Header.Set("Content-Type", "application/json")
	f.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Success bool              `json:"success"`
		Data    dto.OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "PENDING", resp.Data.Status)
	assert.Equal(t, "AWAITING_PAYMENT_CONFIRMATION", resp.Data.PaymentStatus)
	assert.Equal(t, "179.98", resp.Data.TotalAmount)

	published := f.transport.PublishedTo(contract.PaymentExchange, contract.RKPaymentIntentRequest)
	require.Len(t, published, 1)
}

func TestOrderHandler_CheckoutDispatchFailure(t *testing.T) {
	f := newOrderHandlerFixture(t)
	f.transport.FailWith(assert.AnError)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", checkoutBody(t))
	req.Header.Set("Content-Type", "application/json")
	f.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DISPATCH_FAILED", resp.Error.Code)

	// The order exists but was marked failed rather than left pending.
	page, err := f.orders.FindByUser(context.Background(), f.userID, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, order.OrderStatusFailed, page.Items[0].Status)
}

func TestOrderHandler_CheckoutInvalidPayload(t *testing.T) {
	f := newOrderHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout",
		bytes.NewBufferString(`{"street":"1 Main St"}`))
	req.Header.Set("Content-Type", "application/json")
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_GetAndList(t *testing.T) {
	f := newOrderHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", checkoutBody(t))
	req.Header.Set("Content-Type", "application/json")
	f.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data dto.OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+created.Data.ID, nil)
	f.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders?page=1&page_size=10", nil)
	f.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var listed dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.NotNil(t, listed.Meta)
	assert.Equal(t, int64(1), listed.Meta.Total)
}
