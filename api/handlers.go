package api

import (
	"errors"
	"net/http"

	"github.com/example/dairyshop/pkg/auth"
	"github.com/example/dairyshop/pkg/cart"
	"github.com/example/dairyshop/pkg/checkout"
	"github.com/example/dairyshop/pkg/models"
	"github.com/example/dairyshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionHeader = "X-Session-ID"

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.catalog.InStock(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to load catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
	})
}

func (s *Server) sessionID(c *gin.Context) (string, bool) {
	id := c.GetHeader(sessionHeader)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing " + sessionHeader + " header"})
		return "", false
	}
	return id, true
}

func (s *Server) getCart(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}

	sessionCart, err := s.carts.Load(c.Request.Context(), sessionID)
	if err != nil {
		s.cartError(c, err)
		return
	}
	totals, err := s.engine.Totals(c.Request.Context(), sessionCart)
	if err != nil {
		s.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":   sessionCart,
		"totals": totals,
	})
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) addCartItem(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx := c.Request.Context()
	sessionCart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		s.cartError(c, err)
		return
	}
	if err := s.engine.Add(ctx, sessionCart, req.ProductID, req.Quantity); err != nil {
		s.cartError(c, err)
		return
	}
	if err := s.carts.Save(ctx, sessionCart); err != nil {
		s.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": sessionCart})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) updateCartItem(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	sessionCart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		s.cartError(c, err)
		return
	}
	if err := s.engine.UpdateQuantity(sessionCart, c.Param("productId"), req.Quantity); err != nil {
		s.cartError(c, err)
		return
	}
	if err := s.carts.Save(ctx, sessionCart); err != nil {
		s.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": sessionCart})
}

func (s *Server) removeCartItem(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sessionCart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		s.cartError(c, err)
		return
	}
	removed := s.engine.Remove(sessionCart, c.Param("productId"))
	if err := s.carts.Save(ctx, sessionCart); err != nil {
		s.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
		"cart":    sessionCart,
	})
}

func (s *Server) clearCart(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	if err := s.carts.Clear(c.Request.Context(), sessionID); err != nil {
		s.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) submitOrder(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	identity, _ := auth.IdentityFrom(c)

	var form checkout.Form
	if err := c.BindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID, err := s.checkout.Submit(c.Request.Context(), identity, sessionID, &form)
	if err != nil {
		s.checkoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id": orderID,
		"message":  "Order placed successfully",
	})
}

func (s *Server) getOrder(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	order, err := s.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNoDocument) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		s.logger.Error("Failed to load order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load order"})
		return
	}
	if identity == nil || order.UserID != identity.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (s *Server) listOrders(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to continue.", "redirect": "/login"})
		return
	}

	orders, err := s.orders.ListByUser(c.Request.Context(), identity.UserID, 50)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateOrderStatus is the administrative path. Staff tokens may apply
// any valid transition; a customer may only cancel their own order.
func (s *Server) updateOrderStatus(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req updateStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	order, err := s.orders.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNoDocument) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		s.logger.Error("Failed to load order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load order"})
		return
	}

	if !identity.IsAdmin() {
		// Same response as getOrder: other users' orders do not exist.
		if identity == nil || order.UserID != identity.UserID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		if req.Status != models.StatusCancelled {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only cancellation is allowed"})
			return
		}
	}

	if !models.ValidStatusTransition(order.Status, req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Cannot move order from " + order.Status + " to " + req.Status,
		})
		return
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, req.Status); err != nil {
		s.logger.Error("Failed to update order status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     order.ID,
		"status": req.Status,
	})
}

// cartError translates cart-state errors into user-actionable responses.
func (s *Server) cartError(c *gin.Context, err error) {
	var oos *cart.OutOfStockError
	switch {
	case errors.Is(err, cart.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.As(err, &oos):
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Some items are out of stock",
			"products": oos.Products,
		})
	default:
		s.logger.Error("Cart operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
	}
}

// checkoutError maps the checkout taxonomy onto responses. Persistence
// causes stay in the logs; the caller only sees a generic message.
func (s *Server) checkoutError(c *gin.Context, err error) {
	var (
		validation  *checkout.ValidationError
		oos         *cart.OutOfStockError
		belowMin    *cart.BelowMinimumError
		persistence *checkout.PersistenceError
	)
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to continue.", "redirect": "/login"})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"errors": validation.Messages})
	case errors.Is(err, cart.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
	case errors.As(err, &oos):
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Some items are out of stock",
			"products": oos.Products,
		})
	case errors.As(err, &belowMin):
		c.JSON(http.StatusBadRequest, gin.H{"error": belowMin.Error()})
	case errors.As(err, &persistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
	default:
		s.logger.Error("Checkout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
	}
}
