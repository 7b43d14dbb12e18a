package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/phenrril/marketplace/internal/domain"
)

// CalculateDeliveryFee cotiza el envío de subtotal con la configuración dada.
// Sin flag de habilitado se toma como habilitado y sin costo como cero. Sin
// umbral el envío nunca es gratis.
func CalculateDeliveryFee(subtotal decimal.Decimal, s domain.DeliverySettings) domain.DeliveryQuote {
	if s.IsDeliveryEnabled != nil && !*s.IsDeliveryEnabled {
		return domain.DeliveryQuote{Fee: decimal.Zero, IsFree: true, Reason: "delivery disabled"}
	}
	fee := decimal.Zero
	if s.DeliveryFee.Valid {
		fee = s.DeliveryFee.Decimal
	}
	if !s.FreeDeliveryThreshold.Valid {
		return domain.DeliveryQuote{Fee: fee, IsFree: false, Reason: "flat delivery fee applies"}
	}
	threshold := s.FreeDeliveryThreshold.Decimal
	if subtotal.GreaterThanOrEqual(threshold) {
		return domain.DeliveryQuote{
			Fee:    decimal.Zero,
			IsFree: true,
			Reason: fmt.Sprintf("free delivery on orders of %s or more", threshold.StringFixed(2)),
		}
	}
	remaining := threshold.Sub(subtotal)
	return domain.DeliveryQuote{
		Fee:    fee,
		IsFree: false,
		Reason: fmt.Sprintf("add %s more for free delivery", remaining.StringFixed(2)),
	}
}
