// Package notify delivers order notifications through the transactional
// email provider. Delivery is best effort: failures are logged, never
// propagated to checkout.
package notify

import (
	"context"
	"sync"

	"github.com/example/dairyshop/pkg/config"
	"github.com/example/dairyshop/pkg/models"
	"go.uber.org/zap"
)

// Message is one templated send request to the provider.
type Message struct {
	To       string                 `json:"to"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data"`
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Fanout dispatches the owner notification and the optional customer
// confirmation for a placed order.
type Fanout struct {
	notifier Notifier
	cfg      *config.EmailConfig
	logger   *zap.Logger
}

func NewFanout(notifier Notifier, cfg *config.EmailConfig, logger *zap.Logger) *Fanout {
	return &Fanout{notifier: notifier, cfg: cfg, logger: logger}
}

// OrderPlaced sends both messages concurrently and waits for both. Neither
// outcome affects the other, and neither is retried.
func (f *Fanout) OrderPlaced(ctx context.Context, order *models.Order) {
	messages := []Message{
		{
			To:       f.cfg.OwnerAddress,
			Template: f.cfg.OwnerTemplate,
			Data:     orderData(order),
		},
	}
	if order.Customer.Email != "" {
		messages = append(messages, Message{
			To:       order.Customer.Email,
			Template: f.cfg.CustomerTemplate,
			Data:     orderData(order),
		})
	}

	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		go func(m Message) {
			defer wg.Done()
			if err := f.notifier.Send(ctx, m); err != nil {
				f.logger.Error("Notification not sent",
					zap.String("order_id", order.ID),
					zap.String("template", m.Template),
					zap.Error(err))
				return
			}
			f.logger.Info("Notification sent",
				zap.String("order_id", order.ID),
				zap.String("template", m.Template))
		}(msg)
	}
	wg.Wait()
}

func orderData(order *models.Order) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]interface{}{
			"name":     item.ProductName,
			"quantity": item.Quantity,
			"unit":     item.Unit,
			"price":    item.Price,
		})
	}
	return map[string]interface{}{
		"order_id":      order.ID,
		"customer":      order.Customer.Name,
		"phone":         order.Customer.Phone,
		"address":       order.Customer.Address,
		"delivery_slot": order.DeliverySlot,
		"items":         items,
		"subtotal":      order.Subtotal,
		"delivery":      order.DeliveryCharge,
		"total":         order.Total,
	}
}
