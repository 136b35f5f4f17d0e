package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront-checkout/internal/cache"
	"storefront-checkout/internal/client"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/model"
	"storefront-checkout/internal/repository"
	"storefront-checkout/internal/reservation"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockGateway implements client.PaymentGateway without talking to
// Stripe. Created intents are held in memory for GetIntent.
type mockGateway struct {
	intents      map[string]*client.Intent
	createdCount int
	createErr    error
	getErr       error
	cancelled    []string
	cancelErr    error
	verifyEvent  *client.WebhookEvent
	verifyErr    error
}

func newMockGateway() *mockGateway {
	return &mockGateway{intents: make(map[string]*client.Intent)}
}

func (g *mockGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string, _ string) (*client.Intent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.createdCount++
	intent := &client.Intent{
		ID:           fmt.Sprintf("pi_test_%d", g.createdCount),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", g.createdCount),
		Status:       "requires_payment_method",
		Metadata:     metadata,
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *mockGateway) GetIntent(_ context.Context, id string) (*client.Intent, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	intent, ok := g.intents[id]
	if !ok {
		return nil, errors.New("no such payment intent")
	}
	return intent, nil
}

func (g *mockGateway) CancelIntent(_ context.Context, id string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, id)
	if intent, ok := g.intents[id]; ok {
		intent.Status = "canceled"
	}
	return nil
}

func (g *mockGateway) VerifyWebhook(_ []byte, _ string) (*client.WebhookEvent, error) {
	return g.verifyEvent, g.verifyErr
}

// flakyReserver delegates to the real engine but fails the first
// configured number of Commit calls, standing in for a store outage
// mid-commit.
type flakyReserver struct {
	*reservation.Engine
	commitFailures int
}

func (f *flakyReserver) Commit(ctx context.Context, token string, items []reservation.Item) error {
	if f.commitFailures > 0 {
		f.commitFailures--
		return errors.New("store connection reset")
	}
	return f.Engine.Commit(ctx, token, items)
}

// mockMailer counts confirmation sends.
type mockMailer struct {
	sent    []string
	sendErr error
}

func (m *mockMailer) SendOrderConfirmation(_ context.Context, _ string, orderNumber string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, orderNumber)
	return nil
}

// testEnv wires real repositories over sqlite and miniredis with mocked
// external collaborators.
type testEnv struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	store    *cache.RedisStore
	products repository.ProductRepository
	methods  repository.ShippingMethodRepository
	orders   repository.OrderRepository
	events   repository.WebhookEventRepository
	sessions repository.SessionRepository
	engine   *reservation.Engine
	gateway  *mockGateway
	mailer   *mockMailer
	cfg      config.Checkout
}

func setupEnv(t *testing.T) *testEnv {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.ShippingMethod{},
		&model.Order{},
		&model.OrderItem{},
		&model.WebhookEvent{},
	))

	cfg := config.Checkout{
		SessionTTL:         1800,
		StockHoldTTL:       900,
		CompletionCacheTTL: 3600,
		AccessTokenTTL:     600,
		AccessTokenSecret:  "test-secret",
		Currency:           "usd",
	}

	store := cache.NewRedisStore(redisClient)
	products := repository.NewProductRepository(db)

	return &testEnv{
		db:       db,
		mr:       mr,
		store:    store,
		products: products,
		methods:  repository.NewShippingMethodRepository(db),
		orders:   repository.NewOrderRepository(db),
		events:   repository.NewWebhookEventRepository(db),
		sessions: repository.NewSessionRepository(store, time.Duration(cfg.SessionTTL)*time.Second),
		engine:   reservation.NewEngine(db, store, products, time.Duration(cfg.StockHoldTTL)*time.Second),
		gateway:  newMockGateway(),
		mailer:   &mockMailer{},
		cfg:      cfg,
	}
}

func (e *testEnv) checkoutService() CheckoutService {
	return NewCheckoutService(e.db, e.store, e.sessions, e.products, e.methods, e.orders, e.engine, e.gateway, e.cfg)
}

func (e *testEnv) webhookService() WebhookService {
	return NewWebhookService(e.gateway, e.orders, e.events, e.engine, e.mailer)
}

func (e *testEnv) seedProduct(t *testing.T, sku string, price, discounted int64, stock int32) {
	require.NoError(t, e.db.Create(&model.Product{
		SKU: sku, Name: "Product " + sku, Price: price, DiscountedPrice: discounted,
		Currency: "USD", Stock: stock, IsActive: true,
	}).Error)
}

func (e *testEnv) seedMethod(t *testing.T, name string, price, minOrder int64) uint {
	m := model.ShippingMethod{Name: name, Price: price, MinOrderAmount: minOrder, IsActive: true}
	require.NoError(t, e.db.Create(&m).Error)
	return m.ID
}

func (e *testEnv) stockOf(t *testing.T, sku string) int32 {
	var p model.Product
	require.NoError(t, e.db.Where("sku = ?", sku).First(&p).Error)
	return p.Stock
}

func (e *testEnv) orderByID(t *testing.T, id uint) *model.Order {
	var o model.Order
	require.NoError(t, e.db.First(&o, id).Error)
	return &o
}

func (e *testEnv) orderCount(t *testing.T) int64 {
	var n int64
	require.NoError(t, e.db.Model(&model.Order{}).Count(&n).Error)
	return n
}
