package checkout

import (
	"context"
	"time"
)

// CreateOrderRequest asks the gateway to open an order
type CreateOrderRequest struct {
	Amount   int64 // minor units
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder is the gateway's view of an order
type GatewayOrder struct {
	ID        string
	Amount    int64
	Currency  string
	Receipt   string
	Status    string
	CreatedAt time.Time
}

// WebhookEventKind classifies gateway notifications
type WebhookEventKind string

const (
	WebhookPaymentSucceeded WebhookEventKind = "succeeded"
	WebhookPaymentFailed    WebhookEventKind = "failed"
	WebhookIgnored          WebhookEventKind = "ignored"
)

// WebhookEvent is a verified, decoded gateway notification
type WebhookEvent struct {
	Name           string
	Kind           WebhookEventKind
	GatewayOrderID string
	PaymentID      string
	Reason         string
}

// PaymentGateway is the hosted payment provider
type PaymentGateway interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// CreateOrder opens an order the checkout widget can pay
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error)

	// VerifyPaymentSignature checks the signature the widget returns after payment
	VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) error

	// VerifyWebhookSignature checks a webhook body against its signature header
	VerifyWebhookSignature(body []byte, signature string) error

	// ParseWebhookEvent decodes a webhook body that already passed verification
	ParseWebhookEvent(body []byte) (*WebhookEvent, error)
}
