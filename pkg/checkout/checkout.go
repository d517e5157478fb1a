// Package checkout turns a validated session cart and customer form into
// a persisted order and its notifications.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/example/dairyshop/pkg/auth"
	"github.com/example/dairyshop/pkg/cart"
	"github.com/example/dairyshop/pkg/models"
	"github.com/example/dairyshop/pkg/repository"
	"go.uber.org/zap"
)

// PersistenceError wraps a failed order write. The cause is logged, never
// surfaced; callers show a generic try-again message.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return "order could not be saved"
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// CartStore is the slot the session cart lives in.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (*models.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// Dispatcher fans out the order notifications.
type Dispatcher interface {
	OrderPlaced(ctx context.Context, order *models.Order)
}

type Service struct {
	engine   *cart.Engine
	carts    CartStore
	orders   repository.OrderRepository
	dispatch Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(engine *cart.Engine, carts CartStore, orders repository.OrderRepository, dispatch Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		carts:    carts,
		orders:   orders,
		dispatch: dispatch,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit runs one checkout attempt: form validation, cart re-validation
// against the live catalog, a single persist, best-effort notifications,
// and clearing the cart. No side effect happens before its predecessors
// succeed; notifications never undo a persisted order.
func (s *Service) Submit(ctx context.Context, identity *auth.Identity, sessionID string, form *Form) (string, error) {
	if identity == nil || identity.UserID == "" {
		return "", auth.ErrUnauthenticated
	}

	if msgs := ValidateForm(form); len(msgs) > 0 {
		return "", &ValidationError{Messages: msgs}
	}
	form.Sanitize()

	sessionCart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load cart: %w", err)
	}

	totals, err := s.engine.ValidateForCheckout(ctx, sessionCart)
	if err != nil {
		return "", err
	}

	items, err := s.engine.Snapshot(ctx, sessionCart)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot cart: %w", err)
	}

	now := s.now()
	order := &models.Order{
		ID:     generateOrderID(ctx, s.orders, now),
		UserID: identity.UserID,
		Customer: models.CustomerInfo{
			Name:     form.Name,
			Phone:    form.Phone,
			Address:  form.Address,
			Email:    form.Email,
			Landmark: form.Landmark,
		},
		Items:          items,
		DeliverySlot:   form.DeliverySlot,
		Instructions:   form.Instructions,
		Subtotal:       totals.Subtotal,
		DeliveryCharge: totals.DeliveryCharge,
		Total:          totals.Total,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if ok, msgs := ValidateOrder(order); !ok {
		return "", &ValidationError{Messages: msgs}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Failed to persist order",
			zap.String("order_id", order.ID),
			zap.String("user_id", order.UserID),
			zap.Error(err))
		return "", &PersistenceError{Cause: err}
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Float64("total", order.Total))

	// The order is already committed; a dropped client connection must not
	// cancel its notifications.
	s.dispatch.OrderPlaced(context.WithoutCancel(ctx), order)

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	return order.ID, nil
}
