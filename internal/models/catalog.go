package models

import (
	"time"

	"github.com/diewo77/go-dealership/internal/validation"
)

// Base holds the columns shared by every catalog table.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) GetID() uint { return b.ID }

// SetID pins the primary key, used when an update payload is decoded over a loaded row.
func (b *Base) SetID(id uint) { b.ID = id }

// Brand is a car manufacturer shown on the site.
type Brand struct {
	Base
	Name    string `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Slug    string `gorm:"uniqueIndex;size:120;not null" json:"slug" validate:"required,max=120"`
	LogoURL string `gorm:"size:500" json:"logo_url,omitempty" validate:"omitempty,url,max=500"`
}

// Category groups car models (SUV, sedan, pickup...).
type Category struct {
	Base
	Name        string `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Slug        string `gorm:"uniqueIndex;size:120;not null" json:"slug" validate:"required,max=120"`
	Description string `gorm:"size:500" json:"description,omitempty" validate:"max=500"`
}

type FuelType struct {
	Base
	Name string `gorm:"uniqueIndex;size:60;not null" json:"name" validate:"required,max=60"`
}

type Color struct {
	Base
	Name    string `gorm:"size:60;not null" json:"name" validate:"required,max=60"`
	HexCode string `gorm:"size:7;not null" json:"hex_code" validate:"required,hexcolor"`
}

// CarModel is a model line of a brand, e.g. "Corolla".
type CarModel struct {
	Base
	BrandID     uint      `gorm:"index;not null" json:"brand_id" validate:"required"`
	Brand       *Brand    `gorm:"constraint:OnDelete:RESTRICT" json:"brand,omitempty" validate:"-"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty" validate:"-"`
	FuelTypeID  *uint     `gorm:"index" json:"fuel_type_id"`
	FuelType    *FuelType `gorm:"constraint:OnDelete:SET NULL" json:"fuel_type,omitempty" validate:"-"`
	Name        string    `gorm:"size:120;not null" json:"name" validate:"required,max=120"`
	Slug        string    `gorm:"uniqueIndex;size:150;not null" json:"slug" validate:"required,max=150"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Year        int       `json:"year,omitempty"`
	BasePrice   float64   `gorm:"not null" json:"base_price"`
	ImageURL    string    `gorm:"size:500" json:"image_url,omitempty" validate:"omitempty,url,max=500"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	Versions    []Version `gorm:"constraint:OnDelete:CASCADE" json:"versions,omitempty" validate:"-"`
}

// Check applies the rules struct tags cannot express.
func (m *CarModel) Check(v validation.Violations) {
	if m.Year != 0 {
		validation.RangeFloat("year", float64(m.Year), 1900, 2100, v)
	}
	if m.BasePrice != 0 {
		validation.PositiveFloat("base_price", m.BasePrice, v)
	}
}

// Version is a trim level of a car model with its own price and specs.
type Version struct {
	Base
	CarModelID   uint     `gorm:"index;not null" json:"car_model_id" validate:"required"`
	Name         string   `gorm:"size:120;not null" json:"name" validate:"required,max=120"`
	Price        float64  `gorm:"not null" json:"price"`
	Engine       string   `gorm:"size:120" json:"engine,omitempty" validate:"max=120"`
	Transmission string   `gorm:"size:20" json:"transmission,omitempty" validate:"omitempty,oneof=manual automatic cvt dct"`
	Horsepower   int      `json:"horsepower,omitempty" validate:"gte=0"`
	Colors       []Color  `gorm:"many2many:version_colors;" json:"colors,omitempty" validate:"-"`
}

func (m *Version) Check(v validation.Violations) {
	validation.PositiveFloat("price", m.Price, v)
}

// Banner is a hero slide on the public home page.
type Banner struct {
	Base
	Title    string `gorm:"size:150;not null" json:"title" validate:"required,max=150"`
	Subtitle string `gorm:"size:300" json:"subtitle,omitempty" validate:"max=300"`
	ImageURL string `gorm:"size:500;not null" json:"image_url" validate:"required,url,max=500"`
	LinkURL  string `gorm:"size:500" json:"link_url,omitempty" validate:"omitempty,max=500"`
	Position int    `gorm:"not null;index" json:"position" validate:"gte=0"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}
