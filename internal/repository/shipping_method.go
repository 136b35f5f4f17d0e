package repository

import (
	"context"
	"strings"

	"storefront-checkout/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShippingMethodRepository interface {
	Seed(ctx context.Context) error
	FindActiveByID(ctx context.Context, id uint) (*model.ShippingMethod, error)
	// FindActiveForCountry lists active methods serving the country;
	// methods with an empty country list serve everywhere.
	FindActiveForCountry(ctx context.Context, country string) ([]*model.ShippingMethod, error)
}

type shippingMethodRepoImpl struct {
	db *gorm.DB
}

func NewShippingMethodRepository(db *gorm.DB) ShippingMethodRepository {
	return &shippingMethodRepoImpl{
		db: db,
	}
}

func (r *shippingMethodRepoImpl) Seed(ctx context.Context) error {
	methods := []model.ShippingMethod{
		{Name: "Standard", Price: 500, MinOrderAmount: 10000, IsActive: true},
		{Name: "Express", Price: 1500, IsActive: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&methods).Error
}

func (r *shippingMethodRepoImpl) FindActiveByID(ctx context.Context, id uint) (*model.ShippingMethod, error) {
	var method model.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("is_active = ?", true).
		First(&method).Error

	if err != nil {
		return nil, err
	}

	return &method, nil
}

func (r *shippingMethodRepoImpl) FindActiveForCountry(ctx context.Context, country string) ([]*model.ShippingMethod, error) {
	var methods []*model.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&methods).
		Error

	if err != nil {
		return nil, err
	}

	if country == "" {
		return methods, nil
	}

	filtered := methods[:0]
	for _, m := range methods {
		if m.Countries == "" || containsCountry(m.Countries, country) {
			filtered = append(filtered, m)
		}
	}

	return filtered, nil
}

func containsCountry(list, country string) bool {
	for _, c := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(c), country) {
			return true
		}
	}
	return false
}
