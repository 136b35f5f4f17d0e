// Package reservation places, queries, releases, and commits temporary
// per-SKU inventory holds keyed by a checkout token.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront-checkout/internal/cache"
	"storefront-checkout/internal/repository"

	"gorm.io/gorm"
)

// Item is a (sku, quantity) pair being held or committed.
type Item struct {
	SKU      string `json:"sku"`
	Quantity int32  `json:"quantity"`
}

// Hold is one live reservation entry for a token.
type Hold struct {
	SKU      string
	Quantity int32
}

// ErrInsufficientStock reports the SKUs whose persisted stock no longer
// covers the requested quantities.
type ErrInsufficientStock struct {
	SKUs []string
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for: %s", strings.Join(e.SKUs, ", "))
}

type Engine struct {
	db       *gorm.DB
	store    cache.Store
	products repository.ProductRepository
	holdTTL  time.Duration
	// commit markers outlive the holds so a replayed webhook long after
	// payment still sees the first commit.
	commitMarkerTTL time.Duration
}

func NewEngine(db *gorm.DB, store cache.Store, products repository.ProductRepository, holdTTL time.Duration) *Engine {
	return &Engine{
		db:              db,
		store:           store,
		products:        products,
		holdTTL:         holdTTL,
		commitMarkerTTL: 24 * time.Hour,
	}
}

func holdKey(token, sku string) string {
	return fmt.Sprintf("stock:hold:%s:%s", token, sku)
}

func holdPattern(token string) string {
	return fmt.Sprintf("stock:hold:%s:*", token)
}

func commitKey(token string) string {
	return fmt.Sprintf("stock:commit:%s", token)
}

// Reserve places one TTL-bounded hold per SKU. Each hold is an
// independent key, not a shared counter; availability against persisted
// stock is the caller's pre-check, re-verified at commit time.
func (e *Engine) Reserve(ctx context.Context, token string, items []Item) error {
	for _, item := range items {
		if err := e.store.Set(ctx, holdKey(token, item.SKU), item.Quantity, e.holdTTL); err != nil {
			return fmt.Errorf("place hold for %s: %w", item.SKU, err)
		}
	}
	return nil
}

// Release drops every hold for the token. Idempotent: absent or expired
// holds are not an error.
func (e *Engine) Release(ctx context.Context, token string) error {
	keys, err := e.store.Keys(ctx, holdPattern(token))
	if err != nil {
		return fmt.Errorf("scan holds: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return e.store.Delete(ctx, keys...)
}

// Commit turns the holds into a permanent stock decrement and drops
// them. Safe to call twice: a SETNX marker makes the second call a
// no-op, because webhook delivery is at-least-once.
func (e *Engine) Commit(ctx context.Context, token string, items []Item) error {
	acquired, err := e.store.SetNX(ctx, commitKey(token), time.Now().Unix(), e.commitMarkerTTL)
	if err != nil {
		return fmt.Errorf("acquire commit marker: %w", err)
	}
	if !acquired {
		log.Printf("reservation %s already committed, skipping", token)
		return nil
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var failing []string
		for _, item := range items {
			ok, decErr := e.products.DecrementStock(ctx, tx, item.SKU, item.Quantity)
			if decErr != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.SKU, decErr)
			}
			if !ok {
				failing = append(failing, item.SKU)
			}
		}
		if len(failing) > 0 {
			return &ErrInsufficientStock{SKUs: failing}
		}
		return nil
	})
	if err != nil {
		// The decrement never happened; let a retry attempt the commit
		// again instead of leaving it permanently marked done.
		if delErr := e.store.Delete(ctx, commitKey(token)); delErr != nil {
			log.Printf("drop commit marker for %s: %v", token, delErr)
		}
		return err
	}

	if err := e.Release(ctx, token); err != nil {
		log.Printf("drop holds after commit for %s: %v", token, err)
	}
	return nil
}

// CheckAvailability re-reads persisted stock and reports the SKUs that
// can no longer cover the requested quantities.
func (e *Engine) CheckAvailability(ctx context.Context, items []Item) ([]string, error) {
	skus := make([]string, len(items))
	wanted := make(map[string]int32, len(items))
	for i, item := range items {
		skus[i] = item.SKU
		wanted[item.SKU] = item.Quantity
	}

	products, err := e.products.FindBySKUs(ctx, skus)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	available := make(map[string]int32, len(products))
	for _, p := range products {
		available[p.SKU] = p.Stock
	}

	var failing []string
	for sku, qty := range wanted {
		if available[sku] < qty {
			failing = append(failing, sku)
		}
	}
	return failing, nil
}

// Status lists the holds currently live for a token. An empty result
// means the holds expired (or were never placed) and the caller should
// re-validate and re-reserve.
func (e *Engine) Status(ctx context.Context, token string) ([]Hold, error) {
	keys, err := e.store.Keys(ctx, holdPattern(token))
	if err != nil {
		return nil, fmt.Errorf("scan holds: %w", err)
	}

	prefix := fmt.Sprintf("stock:hold:%s:", token)
	holds := make([]Hold, 0, len(keys))
	for _, key := range keys {
		var qty int32
		err := e.store.Get(ctx, key, &qty)
		if errors.Is(err, cache.ErrCacheMiss) {
			continue // expired between scan and read
		}
		if err != nil {
			return nil, fmt.Errorf("read hold %s: %w", key, err)
		}
		holds = append(holds, Hold{
			SKU:      strings.TrimPrefix(key, prefix),
			Quantity: qty,
		})
	}
	return holds, nil
}
