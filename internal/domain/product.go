package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	ID             uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	Slug           string                              `gorm:"uniqueIndex;size:140" json:"slug"`
	Name           string                              `gorm:"size:180;not null" json:"name"`
	Price          decimal.Decimal                     `gorm:"type:decimal(12,2);not null" json:"price"`
	IsAvailable    bool                                `gorm:"not null;index" json:"isAvailable"`
	Unit           string                              `gorm:"size:40" json:"unit"`
	Specifications datatypes.JSONMap                   `json:"specifications"`
	HasVariants    bool                                `gorm:"default:false" json:"hasVariants"`
	Variants       datatypes.JSONSlice[ProductVariant] `json:"variants"`
	CategoryID     *uuid.UUID                          `gorm:"type:uuid;index" json:"categoryId,omitempty"`
	Category       *Category                           `json:"category,omitempty"`
	ProductTypeID  *uuid.UUID                          `gorm:"type:uuid;index" json:"productTypeId,omitempty"`
	ProductType    *ProductType                        `json:"productType,omitempty"`
	Images         []Image                             `json:"images"`
	CreatedAt      time.Time                           `json:"createdAt"`
	UpdatedAt      time.Time                           `json:"updatedAt"`
}

// ProductVariant es una fila de la tabla de precios del producto. IsAvailable
// es opcional; nil significa que sigue al producto.
type ProductVariant struct {
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	IsAvailable   *bool            `json:"isAvailable,omitempty"`
}

// FindVariant busca por nombre exacto. Un producto sin variantes nunca coincide.
func (p *Product) FindVariant(name string) (*ProductVariant, bool) {
	if !p.HasVariants || name == "" {
		return nil, false
	}
	for i := range p.Variants {
		if p.Variants[i].Name == name {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

type Image struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"productId"`
	URL       string    `gorm:"size:255" json:"url"`
	Alt       string    `gorm:"size:140" json:"alt"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug string    `gorm:"uniqueIndex;size:140" json:"slug"`
	Name string    `gorm:"size:140" json:"name"`
}

type ProductType struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug string    `gorm:"uniqueIndex;size:140" json:"slug"`
	Name string    `gorm:"size:140" json:"name"`
}

type ProductFilter struct {
	Query         string
	CategoryID    *uuid.UUID
	OnlyAvailable bool
	Sort          string
	Page          int
	PageSize      int
}
