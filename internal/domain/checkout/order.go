package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderStatus represents the payment state of an order
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// IsValid checks if the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusPaid, OrderStatusFailed:
		return true
	}
	return false
}

// Order is a payment order opened with the gateway for a cart
type Order struct {
	shared.BaseEntity
	GatewayOrderID string
	Receipt        string
	UserID         *uuid.UUID
	Amount         int64 // minor units (paise)
	Currency       string
	Status         OrderStatus
	Items          []Line
	TotalQty       int64
	Address        string
	PaymentID      string
	Signature      string
	FailureReason  string
	PaidAt         *time.Time
}

// NewReceipt formats the merchant receipt reference for an order
func NewReceipt(now time.Time) string {
	return fmt.Sprintf("receipt_order_%d", now.UnixMilli())
}

// NewOrder creates an order for a priced cart
func NewOrder(receipt, currency string, quote Quote, userID *uuid.UUID, address string) (*Order, error) {
	amount, err := quote.MinorUnits()
	if err != nil {
		return nil, err
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency cannot be empty")
	}
	if strings.TrimSpace(receipt) == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT", "Receipt cannot be empty")
	}

	return &Order{
		BaseEntity: shared.NewBaseEntity(),
		Receipt:    receipt,
		UserID:     userID,
		Amount:     amount,
		Currency:   currency,
		Status:     OrderStatusCreated,
		Items:      quote.Lines,
		TotalQty:   quote.TotalQty,
		Address:    strings.TrimSpace(address),
	}, nil
}

// AttachGatewayOrder records the ID the gateway assigned to this order
func (o *Order) AttachGatewayOrder(gatewayOrderID string) error {
	if gatewayOrderID == "" {
		return shared.NewDomainError("INVALID_GATEWAY_ORDER", "Gateway order ID cannot be empty")
	}
	o.GatewayOrderID = gatewayOrderID
	o.Touch()
	return nil
}

// MarkPaid records a captured payment.
// Repeating the same payment is a no-op; a different payment on a paid order is a conflict.
// A failed order may still be paid, since the gateway lets the customer retry.
func (o *Order) MarkPaid(paymentID, signature string, at time.Time) error {
	if paymentID == "" {
		return shared.NewDomainError("INVALID_PAYMENT_ID", "Payment ID cannot be empty")
	}
	if o.Status == OrderStatusPaid {
		if o.PaymentID == paymentID {
			if o.Signature == "" && signature != "" {
				o.Signature = signature
				o.Touch()
			}
			return nil
		}
		return ErrOrderAlreadyPaid
	}

	o.Status = OrderStatusPaid
	o.PaymentID = paymentID
	if signature != "" {
		o.Signature = signature
	}
	o.FailureReason = ""
	o.PaidAt = &at
	o.Touch()
	return nil
}

// MarkFailed records a failed attempt. Paid orders are left untouched.
func (o *Order) MarkFailed(paymentID, reason string) {
	if o.Status == OrderStatusPaid {
		return
	}
	o.Status = OrderStatusFailed
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	o.FailureReason = reason
	o.Touch()
}

// IsPaid reports whether the order has a captured payment
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// BelongsTo reports whether the order was placed by userID
func (o *Order) BelongsTo(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}
