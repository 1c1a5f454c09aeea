package checkout

import "github.com/storefront/backend/internal/domain/shared"

var (
	ErrEmptyCart        = shared.NewDomainError("EMPTY_CART", "Cart is empty")
	ErrInvalidCartItem  = shared.NewDomainError("INVALID_CART_ITEM", "Cart item is invalid")
	ErrInvalidAmount    = shared.NewDomainError("INVALID_AMOUNT", "Amount must be a positive number")
	ErrAddressRequired  = shared.NewDomainError("ADDRESS_REQUIRED", "Delivery address is required")
	ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Payment signature verification failed")
	ErrOrderNotFound    = shared.NewDomainError("NOT_FOUND", "Order not found")
	ErrOrderAlreadyPaid = shared.NewDomainError("CONFLICT", "Order already paid with a different payment")
	// ErrOrderSettled is returned when a write would replace a payment already stored
	ErrOrderSettled       = shared.NewDomainError("CONFLICT", "Order is already paid")
	ErrGatewayUnavailable = shared.NewDomainError("GATEWAY_UNAVAILABLE", "Payment gateway is unavailable")
	// ErrGatewayRequestFailed covers non-2xx responses from the gateway
	ErrGatewayRequestFailed = shared.NewDomainError("GATEWAY_REQUEST_FAILED", "Payment gateway request failed")
)
