package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements checkout.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var _ checkout.OrderRepository = (*GormOrderRepository)(nil)

// Save inserts a new order
func (r *GormOrderRepository) Save(ctx context.Context, order *checkout.Order) error {
	model := models.PaymentOrderModelFromDomain(order)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Update persists status changes of an existing order.
// The write only lands while the stored order is unpaid, or already paid with
// the same payment, so a stale copy cannot undo a captured payment.
func (r *GormOrderRepository) Update(ctx context.Context, order *checkout.Order) error {
	model := models.PaymentOrderModelFromDomain(order)
	query := r.db.WithContext(ctx).
		Model(&models.PaymentOrderModel{}).
		Where("id = ?", order.ID)
	if order.Status == checkout.OrderStatusPaid {
		query = query.Where("(status <> ? OR payment_id = ?)", string(checkout.OrderStatusPaid), order.PaymentID)
	} else {
		query = query.Where("status <> ?", string(checkout.OrderStatusPaid))
	}

	result := query.
		Select("status", "payment_id", "signature", "failure_reason", "paid_at", "updated_at").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.updateMissed(ctx, order.ID)
	}
	return nil
}

// updateMissed tells a missing order apart from one that was settled meanwhile
func (r *GormOrderRepository) updateMissed(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentOrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(err)
	}
	if count == 0 {
		return checkout.ErrOrderNotFound
	}
	return checkout.ErrOrderSettled
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*checkout.Order, error) {
	var model models.PaymentOrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, orderError(err)
	}
	return model.ToDomain(), nil
}

// FindByGatewayOrderID finds an order by the ID the gateway assigned
func (r *GormOrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*checkout.Order, error) {
	if gatewayOrderID == "" {
		return nil, checkout.ErrOrderNotFound
	}
	var model models.PaymentOrderModel
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&model).Error; err != nil {
		return nil, orderError(err)
	}
	return model.ToDomain(), nil
}

// ListByUser returns a user's orders, newest first
func (r *GormOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]checkout.Order, error) {
	var rows []models.PaymentOrderModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	orders := make([]checkout.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, nil
}

func orderError(err error) error {
	err = translateError(err)
	if errors.Is(err, shared.ErrNotFound) {
		return checkout.ErrOrderNotFound
	}
	return err
}
