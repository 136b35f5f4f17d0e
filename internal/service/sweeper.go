package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"storefront-checkout/internal/client"
	"storefront-checkout/internal/model"
	"storefront-checkout/internal/repository"
)

// Sweeper repairs orphan orders: rows stuck in PENDING past the age
// threshold because their webhook never arrived or their session died
// mid-completion. It is owned and started by the process lifecycle, not
// a package-level singleton.
type Sweeper struct {
	interval time.Duration
	maxAge   time.Duration
	orders   repository.OrderRepository
	gateway  client.PaymentGateway
	reserver StockReserver
}

func NewSweeper(
	orders repository.OrderRepository,
	gateway client.PaymentGateway,
	reserver StockReserver,
	interval, maxAge time.Duration,
) *Sweeper {
	return &Sweeper{
		interval: interval,
		maxAge:   maxAge,
		orders:   orders,
		gateway:  gateway,
		reserver: reserver,
	}
}

// Run blocks until ctx is cancelled, sweeping on a fixed interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	orders, err := s.orders.FindPendingOlderThan(ctx, time.Now().Add(-s.maxAge))
	if err != nil {
		log.Printf("sweeper: list pending orders: %v", err)
		return
	}

	for _, order := range orders {
		if err := s.repair(ctx, order); err != nil {
			log.Printf("sweeper: repair order %d: %v", order.ID, err)
		}
	}
}

func (s *Sweeper) repair(ctx context.Context, order *model.Order) error {
	// Crash between order insert and intent create: no intent to
	// inspect or cancel, and the holds self-expire via TTL.
	if order.PaymentIntentID == "" {
		_, err := s.orders.UpdatePaymentStatus(ctx, nil, order.ID, model.PaymentStatusPending, model.PaymentStatusFailed)
		return err
	}

	intent, err := s.gateway.GetIntent(ctx, order.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("read intent %s: %w", order.PaymentIntentID, err)
	}

	// A succeeded intent means the webhook is merely delayed; leave the
	// order for the reconciler rather than fighting it.
	if intent.Status == client.IntentStatusSucceeded {
		log.Printf("sweeper: intent %s succeeded, leaving order %d to the webhook", intent.ID, order.ID)
		return nil
	}

	if intent.Cancellable() {
		if err := s.gateway.CancelIntent(ctx, intent.ID); err != nil {
			// Best-effort, single attempt per cycle.
			log.Printf("sweeper: cancel intent %s: %v", intent.ID, err)
		}
	}

	if token := intent.Metadata[MetadataCheckoutToken]; token != "" {
		if err := s.reserver.Release(ctx, token); err != nil {
			return fmt.Errorf("release holds for %s: %w", token, err)
		}
	}

	_, err = s.orders.UpdatePaymentStatus(ctx, nil, order.ID, model.PaymentStatusPending, model.PaymentStatusFailed)
	return err
}
