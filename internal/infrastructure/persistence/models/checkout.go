package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/checkout"
)

// OrderLines stores priced cart lines as a JSON document
type OrderLines []checkout.Line

// Value implements driver.Valuer
func (l OrderLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]checkout.Line(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order lines: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *OrderLines) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = OrderLines{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("order lines: unsupported column type")
	}
	var lines []checkout.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("failed to unmarshal order lines: %w", err)
	}
	*l = lines
	return nil
}

// PaymentOrderModel is the persistence model for the checkout Order entity.
type PaymentOrderModel struct {
	BaseModel
	GatewayOrderID string               `gorm:"type:varchar(64);not null;uniqueIndex:idx_payment_orders_gateway_order_id"`
	Receipt        string               `gorm:"type:varchar(64);not null"`
	UserID         *uuid.UUID           `gorm:"type:uuid;index:idx_payment_orders_user_id"`
	Amount         int64                `gorm:"not null"`
	Currency       string               `gorm:"type:varchar(3);not null"`
	Status         checkout.OrderStatus `gorm:"type:varchar(20);not null;default:'created'"`
	Items          OrderLines           `gorm:"type:jsonb;not null"`
	TotalQty       int64                `gorm:"not null;default:0"`
	Address        string               `gorm:"type:text;not null;default:''"`
	PaymentID      string               `gorm:"type:varchar(64);not null;default:''"`
	Signature      string               `gorm:"type:varchar(128);not null;default:''"`
	FailureReason  string               `gorm:"type:text;not null;default:''"`
	PaidAt         *time.Time
}

// TableName returns the table name for GORM
func (PaymentOrderModel) TableName() string {
	return "payment_orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *PaymentOrderModel) ToDomain() *checkout.Order {
	items := make([]checkout.Line, len(m.Items))
	copy(items, m.Items)
	return &checkout.Order{
		BaseEntity:     m.BaseModel.ToDomain(),
		GatewayOrderID: m.GatewayOrderID,
		Receipt:        m.Receipt,
		UserID:         m.UserID,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Status:         m.Status,
		Items:          items,
		TotalQty:       m.TotalQty,
		Address:        m.Address,
		PaymentID:      m.PaymentID,
		Signature:      m.Signature,
		FailureReason:  m.FailureReason,
		PaidAt:         m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *PaymentOrderModel) FromDomain(o *checkout.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.GatewayOrderID = o.GatewayOrderID
	m.Receipt = o.Receipt
	m.UserID = o.UserID
	m.Amount = o.Amount
	m.Currency = o.Currency
	m.Status = o.Status
	m.Items = OrderLines(o.Items)
	m.TotalQty = o.TotalQty
	m.Address = o.Address
	m.PaymentID = o.PaymentID
	m.Signature = o.Signature
	m.FailureReason = o.FailureReason
	m.PaidAt = o.PaidAt
}

// PaymentOrderModelFromDomain creates a new persistence model from a domain Order entity.
func PaymentOrderModelFromDomain(o *checkout.Order) *PaymentOrderModel {
	m := &PaymentOrderModel{}
	m.FromDomain(o)
	return m
}
