package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/models"
)

// Catalog serves the read side of the public site plus a few admin helpers.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// PublishedModels lists published models, optionally restricted to a brand slug.
func (c *Catalog) PublishedModels(ctx context.Context, brandSlug string) ([]models.CarModel, error) {
	q := c.db.WithContext(ctx).
		Preload("Brand").Preload("Category").Preload("FuelType").
		Where("car_models.is_published = ?", true)
	if brandSlug != "" {
		q = q.Joins("JOIN brands ON brands.id = car_models.brand_id").Where("brands.slug = ?", brandSlug)
	}
	out := make([]models.CarModel, 0)
	err := q.Order("car_models.name").Find(&out).Error
	return out, err
}

// PublishedModel returns one published model with its versions and colors.
func (c *Catalog) PublishedModel(ctx context.Context, id uint) (models.CarModel, error) {
	var m models.CarModel
	err := c.db.WithContext(ctx).
		Preload("Brand").Preload("Category").Preload("FuelType").
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("versions.price") }).
		Preload("Versions.Colors").
		Where("is_published = ?", true).
		First(&m, id).Error
	return m, translate(err)
}

func (c *Catalog) Brands(ctx context.Context) ([]models.Brand, error) {
	out := make([]models.Brand, 0)
	err := c.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// ActiveBanners returns the home page slides in display order.
func (c *Catalog) ActiveBanners(ctx context.Context) ([]models.Banner, error) {
	out := make([]models.Banner, 0)
	err := c.db.WithContext(ctx).Where("is_active = ?", true).Order("position, id").Find(&out).Error
	return out, err
}

// ReplaceVersionColors sets the colors offered for a version.
func (c *Catalog) ReplaceVersionColors(ctx context.Context, versionID uint, colorIDs []uint) (models.Version, error) {
	var v models.Version
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&v, versionID).Error; err != nil {
			return err
		}
		colors := make([]models.Color, 0, len(colorIDs))
		if len(colorIDs) > 0 {
			if err := tx.Where("id IN ?", colorIDs).Find(&colors).Error; err != nil {
				return err
			}
			if len(colors) != len(uniq(colorIDs)) {
				return gorm.ErrRecordNotFound
			}
		}
		if err := tx.Model(&v).Association("Colors").Replace(colors); err != nil {
			return err
		}
		return tx.Preload("Colors").First(&v, versionID).Error
	})
	return v, translate(err)
}

func uniq(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Counts summarizes the catalog for the admin dashboard.
type Counts struct {
	Brands   int64 `json:"brands"`
	Models   int64 `json:"models"`
	Versions int64 `json:"versions"`
	Banners  int64 `json:"banners"`
	Users    int64 `json:"users"`
}

func (c *Catalog) Counts(ctx context.Context) (Counts, error) {
	var out Counts
	q := c.db.WithContext(ctx)
	for _, item := range []struct {
		model any
		dst   *int64
	}{
		{&models.Brand{}, &out.Brands},
		{&models.CarModel{}, &out.Models},
		{&models.Version{}, &out.Versions},
		{&models.Banner{}, &out.Banners},
		{&models.UserProfile{}, &out.Users},
	} {
		if err := q.Model(item.model).Count(item.dst).Error; err != nil {
			return Counts{}, err
		}
	}
	return out, nil
}
