package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcheckout "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// WebhookSignatureHeader carries the gateway's HMAC of the raw webhook body
const WebhookSignatureHeader = "X-Razorpay-Signature"

const paymentFailedMessage = "Payment failed. Try again."

// CheckoutService is the checkout API the checkout handler drives
type CheckoutService interface {
	CreateSession(ctx context.Context, input appcheckout.CreateSessionInput) (*appcheckout.SessionResponse, error)
	VerifyPayment(ctx context.Context, input appcheckout.VerifyPaymentInput) (*appcheckout.OrderResponse, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*appcheckout.OrderResponse, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]appcheckout.OrderResponse, error)
}

// CheckoutHandler handles checkout, payment and order endpoints
type CheckoutHandler struct {
	BaseHandler
	checkoutService CheckoutService
	metrics         *middleware.HTTPMetrics
	requireAddress  bool
}

// CheckoutHandlerOption configures a CheckoutHandler
type CheckoutHandlerOption func(*CheckoutHandler)

// WithSessionMetrics counts checkout session outcomes
func WithSessionMetrics(metrics *middleware.HTTPMetrics) CheckoutHandlerOption {
	return func(h *CheckoutHandler) {
		h.metrics = metrics
	}
}

// WithRequireAddress makes the address mandatory for the {items, address} payload
func WithRequireAddress(required bool) CheckoutHandlerOption {
	return func(h *CheckoutHandler) {
		h.requireAddress = required
	}
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService CheckoutService, opts ...CheckoutHandlerOption) *CheckoutHandler {
	h := &CheckoutHandler{checkoutService: checkoutService}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// sessionRequest is the structured create-checkout-session payload
type sessionRequest struct {
	Items   []checkout.CartItem `json:"items"`
	Address string              `json:"address"`
}

// CreateSession godoc
// @ID           createCheckoutSession
// @Summary      Open a payment for the cart
// @Description  Accepts either a bare array of cart items or {items, address}.
// @Description  The response is not wrapped in an envelope.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body []checkout.CartItem true "Cart items"
// @Success      200 {object} appcheckout.SessionResponse
// @Failure      400 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /create-checkout-session [post]
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.metrics.RecordCheckoutSession(middleware.CheckoutResultRejected)
		h.HandleBindError(c, err)
		return
	}

	input, err := h.decodeSession(raw)
	if err != nil {
		h.metrics.RecordCheckoutSession(middleware.CheckoutResultRejected)
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			h.HandleError(c, err)
			return
		}
		h.HandleBindError(c, err)
		return
	}
	if userID := middleware.GetJWTUserID(c); userID != uuid.Nil {
		input.UserID = &userID
	}

	session, err := h.checkoutService.CreateSession(c.Request.Context(), input)
	if err != nil {
		status := statusFor(err)
		if status < http.StatusInternalServerError {
			h.metrics.RecordCheckoutSession(middleware.CheckoutResultRejected)
			h.HandleError(c, err)
			return
		}
		h.metrics.RecordCheckoutSession(middleware.CheckoutResultFailed)
		h.paymentFailed(c, status, err)
		return
	}

	h.metrics.RecordCheckoutSession(middleware.CheckoutResultCreated)
	c.JSON(http.StatusOK, session)
}

// decodeSession reads the legacy bare array or the structured object
func (h *CheckoutHandler) decodeSession(raw []byte) (appcheckout.CreateSessionInput, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return appcheckout.CreateSessionInput{}, checkout.ErrEmptyCart
	}

	if raw[0] == '[' {
		var items []checkout.CartItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return appcheckout.CreateSessionInput{}, err
		}
		return appcheckout.CreateSessionInput{Items: items}, nil
	}

	var req sessionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return appcheckout.CreateSessionInput{}, err
	}
	return appcheckout.CreateSessionInput{
		Items:          req.Items,
		Address:        req.Address,
		RequireAddress: h.requireAddress,
	}, nil
}

func (h *CheckoutHandler) paymentFailed(c *gin.Context, status int, err error) {
	code := dto.ErrCodeInternal
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = dto.NormalizeErrorCode(domainErr.Code)
	} else {
		logger.GetGinLogger(c).Error("Checkout session failed", zap.Error(err))
	}
	h.Error(c, status, code, paymentFailedMessage)
}

// VerifyPayment godoc
// @ID           verifyPayment
// @Summary      Confirm a payment returned by the checkout widget
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body appcheckout.VerifyPaymentInput true "Widget response"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /verify-payment [post]
func (h *CheckoutHandler) VerifyPayment(c *gin.Context) {
	var input appcheckout.VerifyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindError(c, err)
		return
	}

	order, err := h.checkoutService.VerifyPayment(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, "Payment successful", order)
}

// Webhook godoc
// @ID           razorpayWebhook
// @Summary      Receive payment gateway events
// @Description  The body is verified against the X-Razorpay-Signature header before parsing.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      400 {object} dto.Response
// @Router       /webhooks/razorpay [post]
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.HandleBindError(c, err)
		return
	}

	if err := h.checkoutService.HandleWebhook(c.Request.Context(), body, c.GetHeader(WebhookSignatureHeader)); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetOrder godoc
// @ID           getOrder
// @Summary      Get one of the caller's orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /orders/{id} [get]
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	order, err := h.checkoutService.GetOrder(c.Request.Context(), middleware.GetJWTUserID(c), uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, "", order)
}

// ListOrders godoc
// @ID           listOrders
// @Summary      List the caller's orders, newest first
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Router       /orders [get]
func (h *CheckoutHandler) ListOrders(c *gin.Context) {
	orders, err := h.checkoutService.ListOrders(c.Request.Context(), middleware.GetJWTUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, "", orders)
}
