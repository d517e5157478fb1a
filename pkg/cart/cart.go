// Package cart implements the session cart: item bookkeeping, pricing
// against the live catalog, and the pre-checkout checks.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/example/dairyshop/pkg/models"
	"github.com/example/dairyshop/pkg/repository"
)

// Catalog is the slice of the catalog service the engine depends on.
type Catalog interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Lookup(ctx context.Context) (map[string]models.Product, error)
}

// Config carries the pricing constants.
type Config struct {
	DeliveryCharge float64
	// FreeDeliveryAbove waives the charge once the subtotal reaches it;
	// zero disables waiving.
	FreeDeliveryAbove float64
	MinimumOrder      float64
	MaxItemQuantity   int
}

type Engine struct {
	catalog Catalog
	cfg     Config
}

func NewEngine(cat Catalog, cfg Config) *Engine {
	if cfg.MaxItemQuantity <= 0 {
		cfg.MaxItemQuantity = 99
	}
	return &Engine{catalog: cat, cfg: cfg}
}

// Add puts quantity units of a product into the cart, incrementing the
// existing line if one is present. Quantities are not capped here; the cap
// applies on update.
func (e *Engine) Add(ctx context.Context, c *models.Cart, productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	product, err := e.catalog.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNoDocument) {
			return ErrNotFound
		}
		return err
	}
	if !product.InStock {
		return &OutOfStockError{Products: []string{displayName(*product)}}
	}

	if i := c.Find(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return nil
	}

	c.Items = append(c.Items, models.CartItem{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
	return nil
}

// UpdateQuantity replaces the stored quantity, clamped to [1, max]. A value
// under 1 removes the item instead.
func (e *Engine) UpdateQuantity(c *models.Cart, productID string, quantity int) error {
	i := c.Find(productID)
	if i < 0 {
		return ErrNotFound
	}

	if quantity < 1 {
		e.Remove(c, productID)
		return nil
	}
	if quantity > e.cfg.MaxItemQuantity {
		quantity = e.cfg.MaxItemQuantity
	}
	c.Items[i].Quantity = quantity
	return nil
}

// Remove deletes the item if present and reports whether it did anything.
func (e *Engine) Remove(c *models.Cart, productID string) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (e *Engine) Clear(c *models.Cart) {
	c.Items = nil
}

// Totals prices the cart against the live catalog. Items whose product no
// longer exists are dropped from the computation; out-of-stock products
// still price (checkout validation rejects them separately).
func (e *Engine) Totals(ctx context.Context, c *models.Cart) (models.CartTotals, error) {
	byID, err := e.catalog.Lookup(ctx)
	if err != nil {
		return models.CartTotals{}, err
	}
	return e.totals(c, byID), nil
}

func (e *Engine) totals(c *models.Cart, byID map[string]models.Product) models.CartTotals {
	var subtotal float64
	for _, item := range c.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		subtotal += product.Price * float64(item.Quantity)
	}

	delivery := e.cfg.DeliveryCharge
	if e.cfg.FreeDeliveryAbove > 0 && subtotal >= e.cfg.FreeDeliveryAbove {
		delivery = 0
	}

	return models.CartTotals{
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		Total:          subtotal + delivery,
	}
}

// ValidateForCheckout re-checks the cart against current catalog state and
// returns the priced totals when it passes. Every unavailable product is
// reported, not just the first.
func (e *Engine) ValidateForCheckout(ctx context.Context, c *models.Cart) (models.CartTotals, error) {
	if len(c.Items) == 0 {
		return models.CartTotals{}, ErrEmptyCart
	}

	byID, err := e.catalog.Lookup(ctx)
	if err != nil {
		return models.CartTotals{}, err
	}

	var unavailable []string
	for _, item := range c.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			// Vanished from the catalog; the id is all we have left.
			unavailable = append(unavailable, item.ProductID)
			continue
		}
		if !product.InStock {
			unavailable = append(unavailable, displayName(product))
		}
	}
	if len(unavailable) > 0 {
		return models.CartTotals{}, &OutOfStockError{Products: unavailable}
	}

	totals := e.totals(c, byID)
	if totals.Subtotal < e.cfg.MinimumOrder {
		return models.CartTotals{}, &BelowMinimumError{Subtotal: totals.Subtotal, Minimum: e.cfg.MinimumOrder}
	}

	return totals, nil
}

// displayName prefers the product's name and falls back to its id when the
// catalog record carries none, so error lists read consistently.
func displayName(p models.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Snapshot copies the priced cart lines into order items decoupled from the
// live catalog.
func (e *Engine) Snapshot(ctx context.Context, c *models.Cart) ([]models.OrderItem, error) {
	byID, err := e.catalog.Lookup(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(c.Items))
	for _, item := range c.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    item.Quantity,
			Unit:        product.Unit,
		})
	}
	return items, nil
}
