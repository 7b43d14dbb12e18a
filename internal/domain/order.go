package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// fulfilmentRank ordena la cadena principal; cancelled y refunded quedan afuera.
var fulfilmentRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

func (s OrderStatus) Valid() bool {
	if _, ok := fulfilmentRank[s]; ok {
		return true
	}
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// Los estados terminales no aceptan más cambios de estado ni de campos.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// CanTransitionTo indica si se puede pasar de s a next. En la cadena de
// preparación solo se avanza; cancelled y refunded se alcanzan desde cualquier
// estado no terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderStatusCancelled || next == OrderStatusRefunded {
		return true
	}
	return fulfilmentRank[next] > fulfilmentRank[s]
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMobileWallet PaymentMethod = "mobile_wallet"
)

type Order struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber        string          `gorm:"size:32;uniqueIndex;not null" json:"orderNumber"`
	UserID             *uuid.UUID      `gorm:"type:uuid;index" json:"userId"`
	AddressID          uuid.UUID       `gorm:"type:uuid;index;not null" json:"addressId"`
	Address            *Address        `gorm:"constraint:OnDelete:RESTRICT" json:"address,omitempty"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DeliveryFee        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"deliveryFee"`
	Discount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	Status             OrderStatus     `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentMethod      PaymentMethod   `gorm:"type:varchar(30);index;not null" json:"paymentMethod"`
	PaymentStatus      PaymentStatus   `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	PaymentReference   string          `gorm:"size:140" json:"paymentReference,omitempty"`
	Notes              string          `gorm:"type:text" json:"notes,omitempty"`
	TrackingNumber     string          `gorm:"size:80" json:"trackingNumber,omitempty"`
	EstimatedDelivery  *time.Time      `json:"estimatedDelivery,omitempty"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `gorm:"type:text" json:"cancellationReason,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (o *Order) IsGuest() bool { return o.UserID == nil }

// BalanceHolds verifica totalAmount = subtotal + deliveryFee - discount.
func (o *Order) BalanceHolds() bool {
	return o.TotalAmount.Equal(o.Subtotal.Add(o.DeliveryFee).Sub(o.Discount))
}

// OrderItem es el registro histórico de una línea vendida. Se escribe una sola
// vez con el pedido y no se actualiza.
type OrderItem struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID              uuid.UUID         `gorm:"type:uuid;index;not null" json:"orderId"`
	ProductID            uuid.UUID         `gorm:"type:uuid;index" json:"productId"`
	LineNo               int               `gorm:"not null" json:"lineNo"`
	ItemName             string            `gorm:"size:255;not null" json:"itemName"`
	ItemImage            string            `gorm:"size:255" json:"itemImage,omitempty"`
	UnitPrice            decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	Quantity             int               `gorm:"not null" json:"quantity"`
	TotalPrice           decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
	Unit                 string            `gorm:"size:40" json:"unit,omitempty"`
	Specifications       datatypes.JSONMap `json:"specifications,omitempty"`
	SelectedVariant      string            `gorm:"size:140" json:"selectedVariant,omitempty"`
	VariantPrice         *decimal.Decimal  `gorm:"type:decimal(12,2)" json:"variantPrice,omitempty"`
	VariantOriginalPrice *decimal.Decimal  `gorm:"type:decimal(12,2)" json:"variantOriginalPrice,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
}

// CreateOrderInput es el carrito unificado que se envía. AddressID se usa en
// modo propio y Address en modo invitado.
type CreateOrderInput struct {
	AddressID     *uuid.UUID       `json:"addressId"`
	Address       *AddressInput    `json:"address" validate:"omitempty"`
	Items         []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod PaymentMethod    `json:"paymentMethod" validate:"required,oneof=cod card bank_transfer mobile_wallet"`
	Notes         string           `json:"notes" validate:"max=2000"`
}

type OrderItemInput struct {
	ProductID            uuid.UUID        `json:"productId" validate:"required"`
	Quantity             int              `json:"quantity" validate:"gt=0,lte=1000"`
	SelectedVariant      string           `json:"selectedVariant" validate:"max=140"`
	VariantPrice         *decimal.Decimal `json:"variantPrice"`
	VariantOriginalPrice *decimal.Decimal `json:"variantOriginalPrice"`
}

type StatusUpdate struct {
	Status            OrderStatus `json:"status"`
	TrackingNumber    *string     `json:"trackingNumber"`
	EstimatedDelivery *time.Time  `json:"estimatedDelivery"`
}

type PaymentUpdate struct {
	Status    PaymentStatus `json:"status"`
	Reference *string       `json:"reference"`
}

type OrderStats struct {
	TotalOrders      int64                 `json:"totalOrders"`
	ByStatus         map[OrderStatus]int64 `json:"byStatus"`
	DeliveredRevenue decimal.Decimal       `json:"deliveredRevenue"`
	GuestOrders      int64                 `json:"guestOrders"`
}

type OrderFilter struct {
	From     *time.Time
	To       *time.Time
	Status   OrderStatus
	Page     int
	PageSize int
}
