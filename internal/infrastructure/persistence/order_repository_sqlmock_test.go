package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

// Verifies the conditional UPDATE is keyed by both order id and the
// expected payment status, and that zero rows affected surfaces as a
// concurrency conflict without committing anything.
func TestOrderRepository_CASLosesWhenStatusMoved(t *testing.T) {
	db, mock := mockDB(t)
	repo := NewOrderRepository(db)

	orderID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders"`).
		WithArgs(orderID, 1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "updated_at", "version", "user_id",
			"total_amount", "currency", "status", "payment_status",
			"shipping_method", "payment_method",
		}).AddRow(
			orderID, now, now, 1, uuid.New(),
			"51.00", "USD", string(order.OrderStatusPending),
			string(order.PaymentStatusAwaitingConfirmation),
			string(order.ShippingStandard), string(order.PaymentMethodCard),
		))
	mock.ExpectQuery(`SELECT \* FROM "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))
	mock.ExpectExec(`UPDATE "orders" SET .+ WHERE id = \$\d+ AND payment_status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.UpdatePaymentStatus(context.Background(), orderID,
		order.PaymentStatusAwaitingConfirmation, order.PaymentStatusConfirmed, nil)

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
