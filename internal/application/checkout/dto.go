package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/checkout"
)

// CreateSessionInput is a cart submitted for payment.
// RequireAddress is set for the structured payload; the legacy bare array carries no address.
type CreateSessionInput struct {
	Items          []checkout.CartItem
	Address        string
	UserID         *uuid.UUID
	RequireAddress bool
}

// SessionResponse is what the checkout widget needs to open the payment.
// id, currency and amount keep the shape of the gateway order.
type SessionResponse struct {
	ID       string    `json:"id"`
	Currency string    `json:"currency"`
	Amount   int64     `json:"amount"`
	Receipt  string    `json:"receipt"`
	TotalQty int64     `json:"totalQty"`
	OrderID  uuid.UUID `json:"orderId"`
	KeyID    string    `json:"key,omitempty"`
}

// VerifyPaymentInput carries the fields the checkout widget returns on success
type VerifyPaymentInput struct {
	GatewayOrderID string `json:"razorpay_order_id" binding:"required"`
	PaymentID      string `json:"razorpay_payment_id" binding:"required"`
	Signature      string `json:"razorpay_signature" binding:"required"`
}

// OrderLineResponse is one priced line of an order
type OrderLineResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Qty       int64  `json:"qty"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
	Repriced  bool   `json:"repriced"`
}

// OrderResponse is the order as shown to its owner
type OrderResponse struct {
	ID             uuid.UUID           `json:"_id"`
	GatewayOrderID string              `json:"gatewayOrderId"`
	Receipt        string              `json:"receipt"`
	Amount         int64               `json:"amount"`
	Currency       string              `json:"currency"`
	Status         string              `json:"status"`
	Items          []OrderLineResponse `json:"items"`
	TotalQty       int64               `json:"totalQty"`
	Address        string              `json:"address,omitempty"`
	PaymentID      string              `json:"paymentId,omitempty"`
	FailureReason  string              `json:"failureReason,omitempty"`
	PaidAt         *time.Time          `json:"paidAt,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// ToOrderResponse converts a domain order to its response shape
func ToOrderResponse(o *checkout.Order) OrderResponse {
	items := make([]OrderLineResponse, len(o.Items))
	for i, line := range o.Items {
		items[i] = OrderLineResponse{
			ProductID: line.ProductID,
			Name:      line.Name,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal.StringFixed(2),
			Repriced:  line.Repriced,
		}
	}
	return OrderResponse{
		ID:             o.ID,
		GatewayOrderID: o.GatewayOrderID,
		Receipt:        o.Receipt,
		Amount:         o.Amount,
		Currency:       o.Currency,
		Status:         string(o.Status),
		Items:          items,
		TotalQty:       o.TotalQty,
		Address:        o.Address,
		PaymentID:      o.PaymentID,
		FailureReason:  o.FailureReason,
		PaidAt:         o.PaidAt,
		CreatedAt:      o.CreatedAt,
	}
}
