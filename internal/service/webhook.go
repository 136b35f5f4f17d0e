package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"storefront-checkout/internal/client"
	"storefront-checkout/internal/model"
	"storefront-checkout/internal/repository"
	"storefront-checkout/internal/reservation"

	"gorm.io/gorm"
)

// WebhookService maps gateway events to order state transitions and
// stock commit/release. Delivery is at-least-once and out of order, so
// every path here must be idempotent.
type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type webhookServiceImpl struct {
	gateway  client.PaymentGateway
	orders   repository.OrderRepository
	events   repository.WebhookEventRepository
	reserver StockReserver
	mailer   client.Mailer
}

func NewWebhookService(
	gateway client.PaymentGateway,
	orders repository.OrderRepository,
	events repository.WebhookEventRepository,
	reserver StockReserver,
	mailer client.Mailer,
) WebhookService {
	return &webhookServiceImpl{
		gateway:  gateway,
		orders:   orders,
		events:   events,
		reserver: reserver,
		mailer:   mailer,
	}
}

func (s *webhookServiceImpl) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookVerification, err)
	}

	// Replayed deliveries are dropped before any side effect.
	processed, err := s.events.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		log.Printf("webhook event %s already processed, skipping", event.ID)
		return nil
	}

	switch event.Type {
	case client.EventPaymentSucceeded:
		err = s.handlePaymentSucceeded(ctx, event)
	case client.EventPaymentFailed:
		err = s.handlePaymentFailed(ctx, event)
	case client.EventChargeRefunded:
		err = s.handleChargeRefunded(ctx, event)
	default:
		log.Printf("ignoring webhook event type %s", event.Type)
	}
	if err != nil {
		return err
	}

	return s.events.MarkProcessed(ctx, event.ID, event.Type)
}

// findOrder resolves the order for an intent. An unknown intent is
// logged and dropped (stale intent or another environment), never
// retried indefinitely.
func (s *webhookServiceImpl) findOrder(ctx context.Context, event *client.WebhookEvent) (*model.Order, error) {
	if event.PaymentIntentID == "" {
		log.Printf("webhook event %s carries no payment intent id, dropping", event.ID)
		return nil, nil
	}
	order, err := s.orders.FindByPaymentIntentID(ctx, event.PaymentIntentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("no order for payment intent %s, dropping event %s", event.PaymentIntentID, event.ID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by intent: %w", err)
	}
	return order, nil
}

func (s *webhookServiceImpl) handlePaymentSucceeded(ctx context.Context, event *client.WebhookEvent) error {
	order, err := s.findOrder(ctx, event)
	if err != nil || order == nil {
		return err
	}

	changed, err := s.orders.UpdatePaymentStatus(ctx, nil, order.ID, model.PaymentStatusPending, model.PaymentStatusPaid)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if !changed {
		// The order already left PENDING. A PAID order may still owe its
		// stock commit: the earlier delivery can die between the status
		// flip and the commit, so the commit reruns here and the marker
		// inside it keeps a finished one from decrementing twice. Any
		// other status means the payment did not stand and stock stays
		// untouched.
		current, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		if current.PaymentStatus != model.PaymentStatusPaid {
			log.Printf("order %d is %s, skipping success side effects", order.ID, current.PaymentStatus)
			return nil
		}
	}

	token := event.Metadata[MetadataCheckoutToken]
	items, err := s.orders.GetOrderItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	commitItems := make([]reservation.Item, len(items))
	for i, item := range items {
		commitItems[i] = reservation.Item{SKU: item.SKU, Quantity: item.Quantity}
	}
	if err := s.reserver.Commit(ctx, token, commitItems); err != nil {
		return fmt.Errorf("commit stock reservation: %w", err)
	}

	// The confirmation goes out only with the status transition; a
	// commit-only retry must not mail the buyer again.
	if changed {
		if err := s.mailer.SendOrderConfirmation(ctx, order.Email, order.OrderNumber); err != nil {
			log.Printf("send confirmation for order %s: %v", order.OrderNumber, err)
		}
	}

	return nil
}

func (s *webhookServiceImpl) handlePaymentFailed(ctx context.Context, event *client.WebhookEvent) error {
	order, err := s.findOrder(ctx, event)
	if err != nil || order == nil {
		return err
	}

	changed, err := s.orders.UpdatePaymentStatus(ctx, nil, order.ID, model.PaymentStatusPending, model.PaymentStatusFailed)
	if err != nil {
		return fmt.Errorf("mark order failed: %w", err)
	}
	if !changed {
		return nil
	}

	if token := event.Metadata[MetadataCheckoutToken]; token != "" {
		if err := s.reserver.Release(ctx, token); err != nil {
			return fmt.Errorf("release stock reservation: %w", err)
		}
	}
	return nil
}

func (s *webhookServiceImpl) handleChargeRefunded(ctx context.Context, event *client.WebhookEvent) error {
	order, err := s.findOrder(ctx, event)
	if err != nil || order == nil {
		return err
	}

	if _, err := s.orders.UpdatePaymentStatus(ctx, nil, order.ID, model.PaymentStatusPaid, model.PaymentStatusRefunded); err != nil {
		return fmt.Errorf("mark order refunded: %w", err)
	}
	return nil
}
