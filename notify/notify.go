// Package notify fans out the side effects of a placed order. Every failure is
// logged and swallowed: the order is already committed.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kkmt-store/mailer"
	"kkmt-store/models"
	"kkmt-store/settings"
)

// EventOrderCreated names the published event.
const EventOrderCreated = "order.created"

// SettingsSource resolves who sends and receives store mail.
type SettingsSource interface {
	Effective(ctx context.Context) (settings.Effective, error)
}

// Dispatcher sends the store notification, the optional customer receipt and
// the optional order event concurrently.
type Dispatcher struct {
	sender    mailer.Sender
	settings  SettingsSource
	publisher Publisher // nil disables events
	log       *zap.Logger
	timeout   time.Duration
}

func NewDispatcher(sender mailer.Sender, src SettingsSource, publisher Publisher, log *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{sender: sender, settings: src, publisher: publisher, log: log, timeout: timeout}
}

// OrderPlaced runs every notification for order and returns once all have
// finished or timed out. order.Items should have Product loaded for names.
func (d *Dispatcher) OrderPlaced(ctx context.Context, order *models.Order, sendReceipt bool) {
	// Notifications outlive a client that hangs up after the order is saved
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	log := d.log.With(zap.String("order_id", order.Code))

	var g errgroup.Group

	eff, err := d.settings.Effective(ctx)
	if err != nil {
		log.Error("resolve store settings", zap.Error(err))
	} else {
		data := mailer.NewOrderEmail(order, eff.StoreName)

		if eff.StoreEmail == "" {
			log.Error("no store email configured, skipping new order notification")
		} else {
			g.Go(func() error {
				msg, err := mailer.RenderNewOrder(eff.FromEmail, eff.StoreEmail, data)
				if err == nil {
					err = d.sender.Send(ctx, msg)
				}
				if err != nil {
					log.Error("send new order notification", zap.Error(err))
				}
				return nil
			})
		}

		if sendReceipt && order.CustomerEmail != "" {
			g.Go(func() error {
				msg, err := mailer.RenderReceipt(eff.FromEmail, order.CustomerEmail, data)
				if err == nil {
					err = d.sender.Send(ctx, msg)
				}
				if err != nil {
					log.Error("send customer receipt", zap.Error(err))
				}
				return nil
			})
		}
	}

	if d.publisher != nil {
		event := OrderEvent{
			Event:     EventOrderCreated,
			OrderID:   order.Code,
			Total:     order.Total.StringFixed(2),
			Items:     order.ItemCount(),
			CreatedAt: order.CreatedAt,
		}
		g.Go(func() error {
			if err := d.publisher.Publish(ctx, event); err != nil {
				log.Warn("publish order event", zap.Error(err))
			}
			return nil
		})
	}

	_ = g.Wait()
}
