package checkout

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for payment order persistence
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
	// ListByUser returns a user's orders, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
}
