package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront-checkout/internal/cache"
	"storefront-checkout/internal/client"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/dto"
	"storefront-checkout/internal/model"
	"storefront-checkout/internal/pricing"
	"storefront-checkout/internal/repository"
	"storefront-checkout/internal/reservation"

	"gorm.io/gorm"
)

// Metadata keys carried on every payment intent; they are the join
// between the gateway record, the session and the order.
const (
	MetadataCheckoutToken = "checkout_token"
	MetadataOrderNumber   = "order_number"
)

// StockReserver is the slice of the reservation engine the checkout
// flow needs.
type StockReserver interface {
	Reserve(ctx context.Context, token string, items []reservation.Item) error
	Release(ctx context.Context, token string) error
	Commit(ctx context.Context, token string, items []reservation.Item) error
	CheckAvailability(ctx context.Context, items []reservation.Item) ([]string, error)
	Status(ctx context.Context, token string) ([]reservation.Hold, error)
}

type CheckoutService interface {
	Create(ctx context.Context, items []*dto.Item) (*dto.CreateSessionResponse, error)
	Get(ctx context.Context, token string) (*model.CheckoutSession, error)
	SetShippingAddress(ctx context.Context, token string, req *dto.AddressRequest) (*model.CheckoutSession, error)
	SelectShippingMethod(ctx context.Context, token string, methodID uint) (*model.CheckoutSession, error)
	Complete(ctx context.Context, token string, paymentMethodType string) (*dto.CompleteResponse, error)
}

type checkoutServiceImpl struct {
	db          *gorm.DB
	store       cache.Store
	sessions    repository.SessionRepository
	products    repository.ProductRepository
	methods     repository.ShippingMethodRepository
	orders      repository.OrderRepository
	reserver    StockReserver
	gateway     client.PaymentGateway
	checkoutCfg config.Checkout
}

func NewCheckoutService(
	db *gorm.DB,
	store cache.Store,
	sessions repository.SessionRepository,
	products repository.ProductRepository,
	methods repository.ShippingMethodRepository,
	orders repository.OrderRepository,
	reserver StockReserver,
	gateway client.PaymentGateway,
	checkoutCfg config.Checkout,
) CheckoutService {
	return &checkoutServiceImpl{
		db:          db,
		store:       store,
		sessions:    sessions,
		products:    products,
		methods:     methods,
		orders:      orders,
		reserver:    reserver,
		gateway:     gateway,
		checkoutCfg: checkoutCfg,
	}
}

func completionKey(token string) string {
	return fmt.Sprintf("checkout:complete:%s", token)
}

func (s *checkoutServiceImpl) Create(ctx context.Context, items []*dto.Item) (*dto.CreateSessionResponse, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	skus := make([]string, len(items))
	wanted := make(map[string]int32, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, item.SKU)
		}
		skus[i] = item.SKU
		wanted[item.SKU] += item.Quantity
	}

	products, err := s.products.FindBySKUs(ctx, skus)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if len(products) != len(wanted) {
		return nil, ErrProductNotFound
	}

	// Availability pre-check against persisted stock. Holds themselves
	// do not enforce scarcity; the authoritative check repeats at
	// commit time.
	var failing []string
	lines := make([]model.CartLine, 0, len(products))
	for _, p := range products {
		qty := wanted[p.SKU]
		if p.Stock < qty {
			failing = append(failing, p.SKU)
			continue
		}
		lines = append(lines, model.CartLine{
			ProductID:       p.ID,
			SKU:             p.SKU,
			Name:            p.Name,
			ImageURL:        p.ImageURL,
			Quantity:        qty,
			UnitPrice:       p.Price,
			DiscountedPrice: p.DiscountedPrice,
			HasVariant:      p.HasVariant,
		})
	}
	if len(failing) > 0 {
		return nil, &reservation.ErrInsufficientStock{SKUs: failing}
	}

	snapshot := pricing.Snapshot(lines)
	token := NewSessionToken()

	reserveItems := make([]reservation.Item, len(lines))
	for i, l := range lines {
		reserveItems[i] = reservation.Item{SKU: l.SKU, Quantity: l.Quantity}
	}
	if err := s.reserver.Reserve(ctx, token, reserveItems); err != nil {
		return nil, fmt.Errorf("reserve stock: %w", err)
	}

	now := time.Now()
	session := &model.CheckoutSession{
		Token:        token,
		Step:         model.StepShipping,
		Status:       model.StatusActive,
		CartSnapshot: snapshot,
		Pricing:      pricing.Initial(snapshot),
		ExpiresAt:    now.Add(time.Duration(s.checkoutCfg.SessionTTL) * time.Second),
		CreatedAt:    now,
		UpdatedAt:    now,
		TTL:          s.checkoutCfg.SessionTTL,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		if relErr := s.reserver.Release(ctx, token); relErr != nil {
			log.Printf("release holds after failed save for %s: %v", token, relErr)
		}
		return nil, fmt.Errorf("save checkout session: %w", err)
	}

	return &dto.CreateSessionResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *checkoutServiceImpl) Get(ctx context.Context, token string) (*model.CheckoutSession, error) {
	return s.loadActive(ctx, token)
}

// loadActive performs the three mandatory precondition checks before
// any read or mutation: present, not expired, not completed.
func (s *checkoutServiceImpl) loadActive(ctx context.Context, token string) (*model.CheckoutSession, error) {
	if !ValidSessionToken(token) {
		return nil, ErrInvalidToken
	}

	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	if session.Status == model.StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	return session, nil
}

func (s *checkoutServiceImpl) SetShippingAddress(ctx context.Context, token string, req *dto.AddressRequest) (*model.CheckoutSession, error) {
	session, err := s.loadActive(ctx, token)
	if err != nil {
		return nil, err
	}

	update := model.AddressUpdate{Shipping: req.Shipping}
	if req.SameAsShipping || req.Billing == nil {
		update.Billing = req.Shipping
	} else {
		update.Billing = *req.Billing
	}

	session.ShippingAddress = &update.Shipping
	session.BillingAddress = &update.Billing
	// Forward transition only; re-submitting an address from a later
	// step does not move the session backwards.
	if session.Step == model.StepShipping {
		session.Step = model.StepShippingMethod
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout session: %w", err)
	}
	return session, nil
}

func (s *checkoutServiceImpl) SelectShippingMethod(ctx context.Context, token string, methodID uint) (*model.CheckoutSession, error) {
	session, err := s.loadActive(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.ShippingAddress == nil {
		return nil, ErrShippingAddressRequired
	}

	method, err := s.methods.FindActiveByID(ctx, methodID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShippingMethodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load shipping method: %w", err)
	}

	cost := pricing.ShippingCost(method, session.CartSnapshot.Subtotal)
	update := model.ShippingMethodUpdate{
		MethodID: method.ID,
		Pricing:  pricing.WithShipping(session.Pricing, cost),
	}

	session.ShippingMethodID = update.MethodID
	session.Pricing = update.Pricing
	if session.Step == model.StepShippingMethod {
		session.Step = model.StepPayment
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update checkout session: %w", err)
	}
	return session, nil
}

// Complete turns the session into a durable order with a pending
// payment intent. The full response is cached under the completion key
// before the session is deleted, so retries converge on one order.
func (s *checkoutServiceImpl) Complete(ctx context.Context, token string, paymentMethodType string) (*dto.CompleteResponse, error) {
	if !ValidSessionToken(token) {
		return nil, ErrInvalidToken
	}

	// Idempotency: checked before any side effect.
	var cached dto.CompleteResponse
	err := s.store.Get(ctx, completionKey(token), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("read completion cache: %w", err)
	}

	session, err := s.loadActive(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.ShippingAddress == nil {
		return nil, ErrShippingAddressRequired
	}
	if session.ShippingMethodID == 0 {
		return nil, ErrShippingMethodRequired
	}

	method := model.PaymentMethodType(strings.ToUpper(paymentMethodType))
	switch method {
	case model.PaymentMethodCard:
	case model.PaymentMethodBankTransfer, model.PaymentMethodCashOnDelivery:
		return nil, fmt.Errorf("%w: %s", ErrPaymentMethodNotSupported, method)
	default:
		return nil, fmt.Errorf("%w: %s", ErrPaymentMethodNotSupported, method)
	}

	items := make([]reservation.Item, len(session.CartSnapshot.Lines))
	for i, l := range session.CartSnapshot.Lines {
		items[i] = reservation.Item{SKU: l.SKU, Quantity: l.Quantity}
	}

	// The hold TTL is independent of the session TTL; a silently expired
	// hold means availability must be re-proven before re-reserving.
	holds, err := s.reserver.Status(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("read hold status: %w", err)
	}
	if len(holds) == 0 {
		failing, err := s.reserver.CheckAvailability(ctx, items)
		if err != nil {
			return nil, fmt.Errorf("re-check availability: %w", err)
		}
		if len(failing) > 0 {
			return nil, &reservation.ErrInsufficientStock{SKUs: failing}
		}
		if err := s.reserver.Reserve(ctx, token, items); err != nil {
			return nil, fmt.Errorf("re-reserve stock: %w", err)
		}
	}

	orderNumber := NewOrderNumber()
	shippingJSON, _ := json.Marshal(session.ShippingAddress)
	billingJSON, _ := json.Marshal(session.BillingAddress)

	order := &model.Order{
		OrderNumber:     orderNumber,
		Email:           session.ShippingAddress.Email,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   string(method),
		Subtotal:        session.Pricing.Subtotal,
		ShippingCost:    session.Pricing.ShippingCost,
		Discount:        session.Pricing.Discount,
		Tax:             session.Pricing.Tax,
		Total:           session.Pricing.Total,
		Currency:        strings.ToUpper(s.checkoutCfg.Currency),
		ShippingAddress: string(shippingJSON),
		BillingAddress:  string(billingJSON),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		orderItems := make([]*model.OrderItem, len(session.CartSnapshot.Lines))
		for i, l := range session.CartSnapshot.Lines {
			orderItems[i] = &model.OrderItem{
				OrderID:   order.ID,
				ProductID: l.ProductID,
				SKU:       l.SKU,
				Name:      l.Name,
				Quantity:  l.Quantity,
				UnitPrice: l.EffectivePrice(),
				Currency:  order.Currency,
			}
		}
		if err := s.orders.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A failure past this point leaves the order PENDING; the orphan
	// sweeper owns the repair.
	intent, err := s.gateway.CreateIntent(ctx, order.Total, s.checkoutCfg.Currency, map[string]string{
		MetadataCheckoutToken: token,
		MetadataOrderNumber:   orderNumber,
	}, completionKey(token))
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	if err := s.orders.SetPaymentIntentID(ctx, nil, order.ID, intent.ID); err != nil {
		return nil, fmt.Errorf("persist payment intent id: %w", err)
	}

	accessToken, err := NewOrderAccessToken(
		s.checkoutCfg.AccessTokenSecret,
		time.Duration(s.checkoutCfg.AccessTokenTTL)*time.Second,
		order.ID,
		orderNumber,
	)
	if err != nil {
		return nil, err
	}

	resp := &dto.CompleteResponse{
		OrderID:                   order.ID,
		OrderNumber:               orderNumber,
		PaymentIntentClientSecret: intent.ClientSecret,
		OrderAccessToken:          accessToken,
	}

	// Stamp the session completed before it goes away; if the delete
	// below fails, reads see ALREADY_COMPLETED instead of a live session
	// pointing at nothing.
	update := model.CompletionUpdate{
		PaymentMethodType: method,
		OrderNumber:       orderNumber,
	}
	session.PaymentMethodType = update.PaymentMethodType
	session.OrderNumber = update.OrderNumber
	session.Step = model.StepCompleted
	session.Status = model.StatusCompleted
	if err := s.sessions.Update(ctx, session); err != nil {
		log.Printf("mark checkout session %s completed: %v", token, err)
	}

	// Cache the response before deleting the session so a crash in
	// between still lets a retry short-circuit to the same order.
	ttl := time.Duration(s.checkoutCfg.CompletionCacheTTL) * time.Second
	if err := s.store.Set(ctx, completionKey(token), resp, ttl); err != nil {
		return nil, fmt.Errorf("cache completion response: %w", err)
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		log.Printf("delete checkout session %s: %v", token, err)
	}

	return resp, nil
}
