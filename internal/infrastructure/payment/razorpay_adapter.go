package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/checkout"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	razorpayOrdersPath = "/orders"
	// responses larger than this are not Razorpay order entities
	razorpayMaxResponseBytes = 1 << 20
)

// RazorpayAdapter implements checkout.PaymentGateway against the Razorpay REST API
type RazorpayAdapter struct {
	config     *RazorpayConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// RazorpayOption configures a RazorpayAdapter
type RazorpayOption func(*RazorpayAdapter)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) RazorpayOption {
	return func(a *RazorpayAdapter) {
		a.httpClient = client
	}
}

// WithLogger sets the adapter logger
func WithLogger(logger *zap.Logger) RazorpayOption {
	return func(a *RazorpayAdapter) {
		a.logger = logger
	}
}

// NewRazorpayAdapter creates a new Razorpay adapter
func NewRazorpayAdapter(cfg *RazorpayConfig, opts ...RazorpayOption) (*RazorpayAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &RazorpayAdapter{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

var _ checkout.PaymentGateway = (*RazorpayAdapter)(nil)

// Name implements checkout.PaymentGateway
func (a *RazorpayAdapter) Name() string {
	return "razorpay"
}

// KeyID returns the public key the checkout widget needs
func (a *RazorpayAdapter) KeyID() string {
	return a.config.KeyID
}

// CreateOrder implements checkout.PaymentGateway
func (a *RazorpayAdapter) CreateOrder(ctx context.Context, req checkout.CreateOrderRequest) (*checkout.GatewayOrder, error) {
	if req.Amount <= 0 {
		return nil, checkout.ErrInvalidAmount
	}

	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, razorpayOrdersPath, body)
	if err != nil {
		return nil, err
	}

	var order razorpayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("%w: malformed order response: %v", checkout.ErrGatewayRequestFailed, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: order response has no id", checkout.ErrGatewayRequestFailed)
	}

	a.logger.Debug("Razorpay order created",
		zap.String("order_id", order.ID),
		zap.String("receipt", order.Receipt),
		zap.Int64("amount", order.Amount),
	)

	result := &checkout.GatewayOrder{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Status:   order.Status,
	}
	if order.CreatedAt > 0 {
		result.CreatedAt = time.Unix(order.CreatedAt, 0)
	}
	return result, nil
}

// VerifyPaymentSignature implements checkout.PaymentGateway.
// The widget signs "order_id|payment_id" with the key secret.
func (a *RazorpayAdapter) VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) error {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return checkout.ErrInvalidSignature
	}
	return verifyHMAC([]byte(gatewayOrderID+"|"+paymentID), a.config.KeySecret, signature)
}

// VerifyWebhookSignature implements checkout.PaymentGateway
func (a *RazorpayAdapter) VerifyWebhookSignature(body []byte, signature string) error {
	if a.config.WebhookSecret == "" {
		return fmt.Errorf("%w: webhook secret not configured", checkout.ErrInvalidSignature)
	}
	if signature == "" {
		return checkout.ErrInvalidSignature
	}
	return verifyHMAC(body, a.config.WebhookSecret, signature)
}

// ParseWebhookEvent implements checkout.PaymentGateway
func (a *RazorpayAdapter) ParseWebhookEvent(body []byte) (*checkout.WebhookEvent, error) {
	var hook razorpayWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("razorpay: malformed webhook: %w", err)
	}
	if hook.Event == "" {
		return nil, errors.New("razorpay: webhook has no event name")
	}

	event := &checkout.WebhookEvent{
		Name: hook.Event,
		Kind: checkout.WebhookIgnored,
	}
	if p := hook.Payload.Payment; p != nil {
		event.PaymentID = p.Entity.ID
		event.GatewayOrderID = p.Entity.OrderID
		event.Reason = strings.TrimSpace(p.Entity.ErrorDescription)
	}
	if o := hook.Payload.Order; o != nil && event.GatewayOrderID == "" {
		event.GatewayOrderID = o.Entity.ID
	}

	switch hook.Event {
	case razorpayEventPaymentCaptured, razorpayEventOrderPaid:
		event.Kind = checkout.WebhookPaymentSucceeded
	case razorpayEventPaymentFailed:
		event.Kind = checkout.WebhookPaymentFailed
		if event.Reason == "" {
			event.Reason = "payment failed"
		}
	}
	return event, nil
}

func (a *RazorpayAdapter) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.config.KeyID, a.config.KeySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", checkout.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, razorpayMaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: HTTP %d", checkout.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var errResp razorpayErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return nil, fmt.Errorf("%w: %s - %s", checkout.ErrGatewayRequestFailed, errResp.Error.Code, errResp.Error.Description)
		}
		return nil, fmt.Errorf("%w: HTTP %d", checkout.ErrGatewayRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// Sign computes the hex HMAC-SHA256 Razorpay uses for payment and webhook signatures
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(payload []byte, secret, signature string) error {
	expected := Sign(payload, secret)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return checkout.ErrInvalidSignature
	}
	return nil
}
