package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SettingType string

const (
	SettingTypeBoolean SettingType = "boolean"
	SettingTypeNumber  SettingType = "number"
	SettingTypeString  SettingType = "string"
	SettingTypeJSON    SettingType = "json"
)

const (
	SettingDeliveryEnabled       = "delivery_enabled"
	SettingDeliveryFee           = "delivery_fee"
	SettingFreeDeliveryThreshold = "free_delivery_threshold"
)

type Setting struct {
	Key         string      `gorm:"size:100;primaryKey" json:"key"`
	Value       string      `gorm:"type:text" json:"value"`
	Type        SettingType `gorm:"type:varchar(10);default:'string'" json:"type"`
	Description string      `gorm:"size:255" json:"description,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// DeliverySettings es una foto de las claves de envío. Las claves sin definir
// quedan nil o inválidas para distinguir "sin configurar" de cero.
type DeliverySettings struct {
	IsDeliveryEnabled     *bool               `json:"isDeliveryEnabled"`
	DeliveryFee           decimal.NullDecimal `json:"deliveryFee"`
	FreeDeliveryThreshold decimal.NullDecimal `json:"freeDeliveryThreshold"`
}

type DeliveryQuote struct {
	Fee    decimal.Decimal `json:"fee"`
	IsFree bool            `json:"isFree"`
	Reason string          `json:"reason"`
}
