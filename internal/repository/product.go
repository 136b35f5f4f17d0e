package repository

import (
	"context"
	"time"

	"storefront-checkout/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	FindBySKUs(ctx context.Context, skus []string) ([]*model.Product, error)
	// DecrementStock subtracts quantity from the persisted stock of sku,
	// guarded by a stock floor. Returns false when the guard matched no
	// row, i.e. stock no longer suffices.
	DecrementStock(ctx context.Context, tx *gorm.DB, sku string, quantity int32) (bool, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{SKU: "TS-BLK-M", Name: "Black T-Shirt (M)", Price: 2500, Currency: "USD", Stock: 50, IsActive: true},
		{SKU: "TS-WHT-L", Name: "White T-Shirt (L)", Price: 2500, DiscountedPrice: 1900, Currency: "USD", Stock: 30, IsActive: true},
		{SKU: "HD-GRY-M", Name: "Grey Hoodie (M)", Price: 6500, Currency: "USD", Stock: 12, HasVariant: true, IsActive: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindBySKUs(ctx context.Context, skus []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("sku IN ?", skus).
		Where("is_active = ?", true).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, sku string, quantity int32) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("sku = ? AND stock >= ?", sku, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
