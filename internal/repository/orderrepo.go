package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/shopkeeper/internal/model"
)

// OrderRepository persists orders and their line-item snapshots.
type OrderRepository interface {
	// Create inserts the order and all its items atomically. Either the full
	// order lands or nothing does.
	Create(ctx context.Context, o *model.Order) error
	// Get loads an order with its items.
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// UpdateStatus transitions an order from one status to another, recording
	// processor references. The update applies only when the current status
	// matches from; otherwise errs.ErrConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, paypalOrderID, paypalTxnID string) error
}
