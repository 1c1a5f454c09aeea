package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives a nil meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Attribute keys on checkout metrics.
var (
	AttrCurrency      = attribute.Key("currency")
	AttrGateway       = attribute.Key("gateway")
	AttrPaymentStatus = attribute.Key("payment_status")
	AttrPaymentSource = attribute.Key("payment_source")
	AttrAuthenticated = attribute.Key("authenticated")
	AttrRepriced      = attribute.Key("repriced")
	AttrOutcome       = attribute.Key("outcome")
)

// GatewayDurationBuckets are bucket boundaries for payment gateway calls (seconds).
var GatewayDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// PaymentStatus labels the outcome of a payment confirmation.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentSource labels how the payment result reached the server.
type PaymentSource string

const (
	PaymentSourceVerify  PaymentSource = "verify"
	PaymentSourceWebhook PaymentSource = "webhook"
)

// CheckoutMetrics records storefront business metrics: orders created, the
// amount ordered in minor units, payment outcomes and gateway latency.
// A nil *CheckoutMetrics records nothing.
type CheckoutMetrics struct {
	ordersCreated   metric.Int64Counter
	orderAmount     metric.Int64Counter
	payments        metric.Int64Counter
	gatewayDuration metric.Float64Histogram
}

// NewCheckoutMetrics registers the checkout instruments on meter.
func NewCheckoutMetrics(meter metric.Meter) (*CheckoutMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	ordersCreated, err := meter.Int64Counter("storefront_orders_created_total",
		metric.WithDescription("Total number of payment orders created"),
		metric.WithUnit("{orders}"),
	)
	if err != nil {
		return nil, err
	}
	orderAmount, err := meter.Int64Counter("storefront_order_amount_total",
		metric.WithDescription("Total order amount in minor currency units"),
		metric.WithUnit("{minor_units}"),
	)
	if err != nil {
		return nil, err
	}
	payments, err := meter.Int64Counter("storefront_payments_total",
		metric.WithDescription("Total number of payment confirmations by status"),
		metric.WithUnit("{payments}"),
	)
	if err != nil {
		return nil, err
	}
	gatewayDuration, err := meter.Float64Histogram("storefront_gateway_request_duration_seconds",
		metric.WithDescription("Payment gateway order creation latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(GatewayDurationBuckets...),
	)
	if err != nil {
		return nil, err
	}

	return &CheckoutMetrics{
		ordersCreated:   ordersCreated,
		orderAmount:     orderAmount,
		payments:        payments,
		gatewayDuration: gatewayDuration,
	}, nil
}

// RecordOrderCreated counts one order and adds its minor-unit amount.
func (m *CheckoutMetrics) RecordOrderCreated(ctx context.Context, currency string, amountMinor int64, authenticated, repriced bool) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(
		AttrCurrency.String(currency),
		AttrAuthenticated.Bool(authenticated),
		AttrRepriced.Bool(repriced),
	))
	m.orderAmount.Add(ctx, amountMinor, metric.WithAttributes(AttrCurrency.String(currency)))
}

// RecordPayment counts a payment confirmation.
func (m *CheckoutMetrics) RecordPayment(ctx context.Context, gateway string, source PaymentSource, status PaymentStatus) {
	if m == nil {
		return
	}
	m.payments.Add(ctx, 1, metric.WithAttributes(
		AttrGateway.String(gateway),
		AttrPaymentSource.String(string(source)),
		AttrPaymentStatus.String(string(status)),
	))
}

// RecordGatewayCall records the latency of a gateway order creation.
func (m *CheckoutMetrics) RecordGatewayCall(ctx context.Context, gateway string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.gatewayDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		AttrGateway.String(gateway),
		AttrOutcome.String(outcome),
	))
}
