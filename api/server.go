// Package api exposes the storefront HTTP surface: catalog reads, session
// carts, checkout, and order lookup.
package api

import (
	"context"
	"fmt"

	"github.com/example/dairyshop/pkg/auth"
	"github.com/example/dairyshop/pkg/checkout"
	"github.com/example/dairyshop/pkg/config"
	"github.com/example/dairyshop/pkg/models"
	"github.com/example/dairyshop/pkg/ratelimit"
	"github.com/example/dairyshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog is what the handlers need from the catalog service.
type Catalog interface {
	InStock(ctx context.Context) ([]models.Product, error)
}

// CartStore is the session cart slot.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// CartEngine is the cart business logic the handlers drive.
type CartEngine interface {
	Add(ctx context.Context, c *models.Cart, productID string, quantity int) error
	UpdateQuantity(c *models.Cart, productID string, quantity int) error
	Remove(c *models.Cart, productID string) bool
	Totals(ctx context.Context, c *models.Cart) (models.CartTotals, error)
}

// Checkout runs one checkout attempt.
type Checkout interface {
	Submit(ctx context.Context, identity *auth.Identity, sessionID string, form *checkout.Form) (string, error)
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	catalog  Catalog
	engine   CartEngine
	carts    CartStore
	orders   repository.OrderRepository
	checkout Checkout
	verifier *auth.Verifier
	limiter  *ratelimit.Limiter
}

func NewServer(cfg *config.Config, logger *zap.Logger, cat Catalog, engine CartEngine, carts CartStore, orders repository.OrderRepository, co Checkout, verifier *auth.Verifier, limiter *ratelimit.Limiter) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))

	s := &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		catalog:  cat,
		engine:   engine,
		carts:    carts,
		orders:   orders,
		checkout: co,
		verifier: verifier,
		limiter:  limiter,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/products", s.listProducts)

		carts := v1.Group("/cart")
		{
			carts.GET("", s.getCart)
			carts.POST("/items", s.addCartItem)
			carts.PUT("/items/:productId", s.updateCartItem)
			carts.DELETE("/items/:productId", s.removeCartItem)
			carts.DELETE("", s.clearCart)
		}

		authed := v1.Group("")
		authed.Use(auth.Middleware(s.verifier))
		{
			keyFn := ratelimit.DefaultKeyFunc(s.config.RateLimit.ClientHeader, s.config.RateLimit.TrustProxy)
			authed.POST("/checkout", ratelimit.Middleware(s.limiter, keyFn), s.submitOrder)

			authed.GET("/orders", s.listOrders)
			authed.GET("/orders/:id", s.getOrder)
			authed.PUT("/orders/:id/status", s.updateOrderStatus)
		}
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("API server starting", zap.String("address", addr))
	return s.router.Run(addr)
}
