package repository

import (
	"context"
	"errors"

	"github.com/example/dairyshop/pkg/models"
)

// ErrNoDocument is returned by repositories when a lookup matches nothing.
// Both backends normalize their driver-specific not-found errors to it.
var ErrNoDocument = errors.New("document not found")

// ProductRepository reads the external product catalog.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	ListInStock(ctx context.Context) ([]models.Product, error)
}

// OrderRepository persists order records. Create writes exactly one
// document; Exists supports collision checks on generated ids.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Exists(ctx context.Context, id string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
