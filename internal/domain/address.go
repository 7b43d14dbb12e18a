package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AddressType string

const (
	AddressTypeHome  AddressType = "home"
	AddressTypeWork  AddressType = "work"
	AddressTypeOther AddressType = "other"
)

// Address es un destino de entrega. Las direcciones de invitado no tienen
// UserID y nunca se asocian después a una cuenta.
type Address struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       *uuid.UUID  `gorm:"type:uuid;index" json:"userId"`
	FullName     string      `gorm:"size:140;not null" json:"fullName"`
	Phone        string      `gorm:"size:40;not null" json:"phone"`
	AddressLine1 string      `gorm:"size:255;not null" json:"addressLine1"`
	AddressLine2 string      `gorm:"size:255" json:"addressLine2,omitempty"`
	City         string      `gorm:"size:100;not null" json:"city"`
	State        string      `gorm:"size:100" json:"state"`
	PostalCode   string      `gorm:"size:20" json:"postalCode"`
	Country      string      `gorm:"size:100" json:"country"`
	Type         AddressType `gorm:"type:varchar(10);default:'home'" json:"type"`
	IsDefault    bool        `gorm:"not null;default:false" json:"isDefault"`
	Instructions string      `gorm:"type:text" json:"instructions,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type AddressInput struct {
	FullName     string      `json:"fullName" validate:"required,max=140"`
	Phone        string      `json:"phone" validate:"required,max=40"`
	AddressLine1 string      `json:"addressLine1" validate:"required,max=255"`
	AddressLine2 string      `json:"addressLine2" validate:"max=255"`
	City         string      `json:"city" validate:"required,max=100"`
	State        string      `json:"state" validate:"max=100"`
	PostalCode   string      `json:"postalCode" validate:"max=20"`
	Country      string      `json:"country" validate:"max=100"`
	Type         AddressType `json:"type" validate:"omitempty,oneof=home work other"`
	IsDefault    bool        `json:"isDefault"`
	Instructions string      `json:"instructions" validate:"max=1000"`
}

// RegionDefaults completa provincia y país cuando no vienen en el pedido.
type RegionDefaults struct {
	State   string
	Country string
}

// NewAddress arma una dirección sin guardar a partir de in, con los valores por defecto de la región.
func NewAddress(userID *uuid.UUID, in AddressInput, def RegionDefaults) *Address {
	a := &Address{
		ID:           uuid.New(),
		UserID:       userID,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		AddressLine1: strings.TrimSpace(in.AddressLine1),
		AddressLine2: strings.TrimSpace(in.AddressLine2),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		PostalCode:   strings.TrimSpace(in.PostalCode),
		Country:      strings.TrimSpace(in.Country),
		Type:         in.Type,
		IsDefault:    in.IsDefault,
		Instructions: strings.TrimSpace(in.Instructions),
	}
	if a.State == "" {
		a.State = def.State
	}
	if a.Country == "" {
		a.Country = def.Country
	}
	if a.Type == "" {
		a.Type = AddressTypeHome
	}
	return a
}
