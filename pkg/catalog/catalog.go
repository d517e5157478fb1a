// Package catalog serves the read-only product catalog maintained by the
// external sync process, with a cache in front of the store.
package catalog

import (
	"context"
	"time"

	"github.com/example/dairyshop/pkg/models"
	"github.com/example/dairyshop/pkg/repository"
	"go.uber.org/zap"
)

// Cache is the slice of the redis repository the catalog needs.
type Cache interface {
	GetCatalogCache(ctx context.Context) ([]models.Product, error)
	CacheCatalog(ctx context.Context, products []models.Product, ttl time.Duration) error
}

type Service struct {
	products repository.ProductRepository
	cache    Cache
	ttl      time.Duration
	logger   *zap.Logger
}

func NewService(products repository.ProductRepository, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		products: products,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// InStock returns every product currently marked in stock. Cache failures
// degrade to a direct store read.
func (s *Service) InStock(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		products, err := s.cache.GetCatalogCache(ctx)
		if err == nil {
			return products, nil
		}
	}

	products, err := s.products.ListInStock(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheCatalog(ctx, products, s.ttl); err != nil {
			s.logger.Warn("Failed to cache catalog", zap.Error(err))
		}
	}

	return products, nil
}

// Lookup returns the full catalog keyed by product id, for joining cart
// items against live products. It reads the store directly, never the
// cache: checkout must see current stock state, and out-of-stock products
// have to stay distinguishable from removed ones.
func (s *Service) Lookup(ctx context.Context) (map[string]models.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// Get fetches one product by id regardless of stock state.
func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}
