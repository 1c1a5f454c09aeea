package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultCurrency = "INR"

// PriceSource supplies authoritative unit prices for cart lines
type PriceSource interface {
	PriceBook(ctx context.Context, productIDs []string) (checkout.PriceBook, error)
}

// CheckoutService opens gateway orders for carts and settles their payments
type CheckoutService struct {
	orders   checkout.OrderRepository
	gateway  checkout.PaymentGateway
	prices   PriceSource
	metrics  *telemetry.CheckoutMetrics
	currency string
	keyID    string
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a CheckoutService
type Option func(*CheckoutService)

// WithPriceSource enables repricing cart lines from the catalog
func WithPriceSource(prices PriceSource) Option {
	return func(s *CheckoutService) {
		s.prices = prices
	}
}

// WithCurrency sets the charge currency
func WithCurrency(currency string) Option {
	return func(s *CheckoutService) {
		if c := strings.TrimSpace(currency); c != "" {
			s.currency = strings.ToUpper(c)
		}
	}
}

// WithMetrics records business metrics
func WithMetrics(metrics *telemetry.CheckoutMetrics) Option {
	return func(s *CheckoutService) {
		s.metrics = metrics
	}
}

// WithPublicKey sets the gateway key the widget is opened with
func WithPublicKey(keyID string) Option {
	return func(s *CheckoutService) {
		s.keyID = keyID
	}
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	orders checkout.OrderRepository,
	gateway checkout.PaymentGateway,
	logger *zap.Logger,
	opts ...Option,
) *CheckoutService {
	s := &CheckoutService{
		orders:   orders,
		gateway:  gateway,
		currency: defaultCurrency,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession prices the cart, opens a gateway order for it and records the order
func (s *CheckoutService) CreateSession(ctx context.Context, input CreateSessionInput) (_ *SessionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "create_session",
		attribute.Int("cart.items", len(input.Items)),
	)
	defer telemetry.EndSpan(span, &err)

	log := logger.Ctx(ctx, s.logger)

	cart := checkout.Cart{Items: input.Items}
	if err := cart.Validate(); err != nil {
		return nil, err
	}
	if input.RequireAddress && strings.TrimSpace(input.Address) == "" {
		return nil, checkout.ErrAddressRequired
	}

	book, err := s.priceBook(ctx, cart)
	if err != nil {
		return nil, err
	}

	quote, err := checkout.Price(cart, book)
	if err != nil {
		return nil, err
	}
	repriced := false
	for _, line := range quote.Lines {
		if line.Repriced {
			repriced = true
			break
		}
	}

	receipt := checkout.NewReceipt(s.now())
	order, err := checkout.NewOrder(receipt, s.currency, quote, input.UserID, input.Address)
	if err != nil {
		return nil, err
	}

	start := s.now()
	gwOrder, err := s.gateway.CreateOrder(ctx, checkout.CreateOrderRequest{
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  receipt,
		Notes:    orderNotes(order),
	})
	s.metrics.RecordGatewayCall(ctx, s.gateway.Name(), s.now().Sub(start), err)
	if err != nil {
		log.Error("Gateway order creation failed",
			zap.String("receipt", receipt),
			zap.Int64("amount", order.Amount),
			zap.Error(err),
		)
		return nil, err
	}

	if err := order.AttachGatewayOrder(gwOrder.ID); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.metrics.RecordOrderCreated(ctx, order.Currency, order.Amount, input.UserID != nil, repriced)
	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("gateway.order_id", gwOrder.ID),
		attribute.Int64("order.amount", order.Amount),
	)
	log.Info("Checkout session created",
		zap.String("order_id", order.ID.String()),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.Int64("amount", order.Amount),
		zap.Bool("repriced", repriced),
	)

	return &SessionResponse{
		ID:       gwOrder.ID,
		Currency: order.Currency,
		Amount:   order.Amount,
		Receipt:  receipt,
		TotalQty: order.TotalQty,
		OrderID:  order.ID,
		KeyID:    s.keyID,
	}, nil
}

// VerifyPayment checks the signature returned by the checkout widget and marks the order paid.
// A bad signature marks the order failed and yields checkout.ErrInvalidSignature.
func (s *CheckoutService) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (_ *OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "verify_payment",
		attribute.String("gateway.order_id", input.GatewayOrderID),
	)
	defer telemetry.EndSpan(span, &err)

	log := logger.Ctx(ctx, s.logger)

	if verr := s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.PaymentID, input.Signature); verr != nil {
		s.metrics.RecordPayment(ctx, s.gateway.Name(), telemetry.PaymentSourceVerify, telemetry.PaymentStatusFailed)
		log.Warn("Payment signature mismatch",
			zap.String("gateway_order_id", input.GatewayOrderID),
			zap.String("payment_id", input.PaymentID),
			zap.Error(verr),
		)
		s.recordFailure(ctx, input.GatewayOrderID, input.PaymentID, "signature verification failed")
		return nil, checkout.ErrInvalidSignature
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		return nil, err
	}

	if err := order.MarkPaid(input.PaymentID, input.Signature, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.metrics.RecordPayment(ctx, s.gateway.Name(), telemetry.PaymentSourceVerify, telemetry.PaymentStatusSuccess)
	log.Info("Payment verified",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", input.PaymentID),
	)

	resp := ToOrderResponse(order)
	return &resp, nil
}

// HandleWebhook applies a gateway notification to its order.
// Unknown orders and uninteresting events are acknowledged without changes.
func (s *CheckoutService) HandleWebhook(ctx context.Context, body []byte, signature string) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "handle_webhook")
	defer telemetry.EndSpan(span, &err)

	log := logger.Ctx(ctx, s.logger)

	if err := s.gateway.VerifyWebhookSignature(body, signature); err != nil {
		log.Warn("Rejected webhook with bad signature", zap.Error(err))
		return err
	}

	event, err := s.gateway.ParseWebhookEvent(body)
	if err != nil {
		return shared.WrapDomainError("INVALID_INPUT", "Malformed webhook payload", err)
	}
	span.SetAttributes(attribute.String("webhook.event", event.Name))

	if event.Kind == checkout.WebhookIgnored {
		log.Debug("Ignoring webhook event", zap.String("event", event.Name))
		return nil
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, event.GatewayOrderID)
	if err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			log.Warn("Webhook for unknown order",
				zap.String("event", event.Name),
				zap.String("gateway_order_id", event.GatewayOrderID),
			)
			return nil
		}
		return err
	}

	switch event.Kind {
	case checkout.WebhookPaymentSucceeded:
		if err := order.MarkPaid(event.PaymentID, "", s.now()); err != nil {
			if errors.Is(err, checkout.ErrOrderAlreadyPaid) {
				log.Warn("Webhook reports a second payment for a paid order",
					zap.String("order_id", order.ID.String()),
					zap.String("payment_id", event.PaymentID),
					zap.String("paid_with", order.PaymentID),
				)
				return nil
			}
			return err
		}
		s.metrics.RecordPayment(ctx, s.gateway.Name(), telemetry.PaymentSourceWebhook, telemetry.PaymentStatusSuccess)
	case checkout.WebhookPaymentFailed:
		order.MarkFailed(event.PaymentID, event.Reason)
		s.metrics.RecordPayment(ctx, s.gateway.Name(), telemetry.PaymentSourceWebhook, telemetry.PaymentStatusFailed)
	}

	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, checkout.ErrOrderSettled) {
			log.Warn("Webhook arrived after the order was settled",
				zap.String("event", event.Name),
				zap.String("order_id", order.ID.String()),
				zap.String("payment_id", event.PaymentID),
			)
			return nil
		}
		return fmt.Errorf("update order: %w", err)
	}

	log.Info("Webhook applied",
		zap.String("event", event.Name),
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	return nil
}

// GetOrder returns one of the user's orders. Orders of other users are reported as not found.
func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.BelongsTo(userID) {
		return nil, checkout.ErrOrderNotFound
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListOrders returns the user's orders, newest first
func (s *CheckoutService) ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderResponse, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out, nil
}

// recordFailure marks the order failed when it exists; the caller's error takes precedence.
// The request is unverified, so an order that is paid or holds another payment is left alone.
func (s *CheckoutService) recordFailure(ctx context.Context, gatewayOrderID, paymentID, reason string) {
	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return
	}
	log := logger.Ctx(ctx, s.logger)
	if order.IsPaid() || (order.PaymentID != "" && order.PaymentID != paymentID) {
		log.Warn("Ignoring unverified failure",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)),
			zap.String("payment_id", paymentID),
		)
		return
	}
	order.MarkFailed(paymentID, reason)
	if err := s.orders.Update(ctx, order); err != nil && !errors.Is(err, checkout.ErrOrderSettled) {
		log.Error("Failed to record failed payment", zap.Error(err))
	}
}

func (s *CheckoutService) priceBook(ctx context.Context, cart checkout.Cart) (checkout.PriceBook, error) {
	if s.prices == nil {
		return nil, nil
	}
	ids := cart.ProductIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	book, err := s.prices.PriceBook(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load catalog prices: %w", err)
	}
	return book, nil
}

func orderNotes(order *checkout.Order) map[string]string {
	notes := map[string]string{
		"order_id":  order.ID.String(),
		"total_qty": strconv.FormatInt(order.TotalQty, 10),
		"items":     strconv.Itoa(len(order.Items)),
	}
	if order.UserID != nil {
		notes["user_id"] = order.UserID.String()
	}
	return notes
}
