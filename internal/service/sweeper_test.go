package service

import (
	"context"
	"testing"
	"time"

	"storefront-checkout/internal/client"
	"storefront-checkout/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) sweeper() *Sweeper {
	return NewSweeper(e.orders, e.gateway, e.engine, time.Minute, time.Hour)
}

// ageOrder pushes the order's creation time past the sweeper threshold.
func ageOrder(t *testing.T, env *testEnv, orderID uint, age time.Duration) {
	require.NoError(t, env.db.Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("created_at", time.Now().Add(-age)).Error)
}

// registerIntent plants an intent in the mock gateway as if completion
// had created it.
func registerIntent(env *testEnv, id, status, token string) {
	env.gateway.intents[id] = &client.Intent{
		ID:       id,
		Status:   status,
		Metadata: map[string]string{MetadataCheckoutToken: token},
	}
}

func TestSweep_RepairsOrphanInOnePass(t *testing.T) {
	env := setupEnv(t)
	env.seedProduct(t, "A", 1000, 0, 5)
	token := NewSessionToken()
	order := seedPendingOrder(t, env, token, "pi_1", "A", 2)
	ageOrder(t, env, order.ID, 2*time.Hour)
	registerIntent(env, "pi_1", "requires_payment_method", token)
	ctx := context.Background()

	env.sweeper().sweep(ctx)

	assert.Equal(t, model.PaymentStatusFailed, env.orderByID(t, order.ID).PaymentStatus)
	assert.Equal(t, []string{"pi_1"}, env.gateway.cancelled)
	assert.Equal(t, int32(5), env.stockOf(t, "A"))

	holds, err := env.engine.Status(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, holds)
}

func TestSweep_LeavesSucceededIntentToWebhook(t *testing.T) {
	env := setupEnv(t)
	env.seedProduct(t, "A", 1000, 0, 5)
	token := NewSessionToken()
	order := seedPendingOrder(t, env, token, "pi_1", "A", 2)
	ageOrder(t, env, order.ID, 2*time.Hour)
	registerIntent(env, "pi_1", "succeeded", token)

	env.sweeper().sweep(context.Background())

	// webhook is just delayed; do not fight it
	assert.Equal(t, model.PaymentStatusPending, env.orderByID(t, order.ID).PaymentStatus)
	assert.Empty(t, env.gateway.cancelled)
}

func TestSweep_IgnoresFreshOrders(t *testing.T) {
	env := setupEnv(t)
	env.seedProduct(t, "A", 1000, 0, 5)
	token := NewSessionToken()
	order := seedPendingOrder(t, env, token, "pi_1", "A", 2)
	registerIntent(env, "pi_1", "requires_payment_method", token)

	env.sweeper().sweep(context.Background())

	assert.Equal(t, model.PaymentStatusPending, env.orderByID(t, order.ID).PaymentStatus)
}

func TestSweep_OrderWithoutIntent(t *testing.T) {
	env := setupEnv(t)
	order := &model.Order{
		OrderNumber:   NewOrderNumber(),
		Email:         "jo@example.com",
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: "CARD",
		Currency:      "USD",
	}
	require.NoError(t, env.db.Create(order).Error)
	ageOrder(t, env, order.ID, 2*time.Hour)

	env.sweeper().sweep(context.Background())

	// crash before intent creation: nothing to cancel, holds self-expire
	assert.Equal(t, model.PaymentStatusFailed, env.orderByID(t, order.ID).PaymentStatus)
	assert.Empty(t, env.gateway.cancelled)
}

func TestSweep_OneFailureDoesNotAbortThePass(t *testing.T) {
	env := setupEnv(t)
	env.seedProduct(t, "A", 1000, 0, 5)
	env.seedProduct(t, "B", 1000, 0, 5)

	// first order's intent is unknown to the gateway: repair fails
	broken := seedPendingOrder(t, env, NewSessionToken(), "pi_missing", "A", 1)
	ageOrder(t, env, broken.ID, 2*time.Hour)

	token := NewSessionToken()
	ok := seedPendingOrder(t, env, token, "pi_2", "B", 1)
	ageOrder(t, env, ok.ID, 2*time.Hour)
	registerIntent(env, "pi_2", "requires_payment_method", token)

	env.sweeper().sweep(context.Background())

	assert.Equal(t, model.PaymentStatusPending, env.orderByID(t, broken.ID).PaymentStatus)
	assert.Equal(t, model.PaymentStatusFailed, env.orderByID(t, ok.ID).PaymentStatus)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	env := setupEnv(t)
	s := NewSweeper(env.orders, env.gateway, env.engine, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}
