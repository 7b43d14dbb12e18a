package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/marketplace/internal/domain"
)

func (uc *OrderUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now().UTC()
	}
	return time.Now().UTC()
}

// Get carga un pedido. Con userID el pedido tiene que ser de ese usuario; un
// pedido ajeno se informa como no encontrado.
func (uc *OrderUC) Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*domain.Order, error) {
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrder(err, id.String())
	}
	if userID != nil && (o.UserID == nil || *o.UserID != *userID) {
		return nil, domain.NotFound("order %s not found", id)
	}
	return o, nil
}

// GetByNumber sirve al seguimiento de pedidos de invitados.
func (uc *OrderUC) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, domain.InvalidInput("order number is required")
	}
	o, err := uc.Orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, notFoundOrder(err, number)
	}
	return o, nil
}

// NormalizePage lleva page y pageSize a los valores que usa ListForUser.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func (uc *OrderUC) ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	return uc.Orders.ListByUser(ctx, userID, page, pageSize)
}

func (uc *OrderUC) Stats(ctx context.Context) (*domain.OrderStats, error) {
	return uc.Orders.Stats(ctx)
}

// UpdateStatus avanza un pedido en su ciclo de vida. Solo escribe estado,
// tracking y fechas; los montos no se tocan.
func (uc *OrderUC) UpdateStatus(ctx context.Context, id uuid.UUID, upd domain.StatusUpdate) (*domain.Order, error) {
	if !upd.Status.Valid() {
		return nil, domain.InvalidInput("unknown status %q", upd.Status)
	}
	var out *domain.Order
	err := uc.Tx.Do(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		o, err := uow.Orders().FindByID(ctx, id)
		if err != nil {
			return notFoundOrder(err, id.String())
		}
		if o.Status.Terminal() {
			return domain.InvalidState("order %s is %s and can no longer be updated", o.OrderNumber, o.Status)
		}
		fields := map[string]any{}
		if upd.Status != o.Status {
			if !o.Status.CanTransitionTo(upd.Status) {
				return domain.InvalidState("cannot move order %s from %s to %s", o.OrderNumber, o.Status, upd.Status)
			}
			fields["status"] = upd.Status
			now := uc.now()
			switch upd.Status {
			case domain.OrderStatusDelivered:
				fields["delivered_at"] = now
			case domain.OrderStatusCancelled:
				fields["cancelled_at"] = now
			}
		}
		if upd.TrackingNumber != nil {
			fields["tracking_number"] = strings.TrimSpace(*upd.TrackingNumber)
		}
		if upd.EstimatedDelivery != nil {
			fields["estimated_delivery"] = upd.EstimatedDelivery.UTC()
		}
		if len(fields) > 0 {
			if err := uow.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
				return err
			}
		}
		out, err = uow.Orders().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("order_number", out.OrderNumber).Str("status", string(out.Status)).Msg("estado de pedido actualizado")
	return out, nil
}

// Cancel cancela un pedido en nombre de userID (nil para staff). Cancelar un
// pedido ya cancelado lo devuelve sin cambios.
func (uc *OrderUC) Cancel(ctx context.Context, id uuid.UUID, userID *uuid.UUID, reason string) (*domain.Order, error) {
	var out *domain.Order
	err := uc.Tx.Do(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		o, err := uow.Orders().FindByID(ctx, id)
		if err != nil {
			return notFoundOrder(err, id.String())
		}
		if userID != nil && (o.UserID == nil || *o.UserID != *userID) {
			return domain.NotFound("order %s not found", id)
		}
		if o.Status == domain.OrderStatusCancelled {
			out = o
			return nil
		}
		if !o.Status.CanTransitionTo(domain.OrderStatusCancelled) {
			return domain.InvalidState("order %s is %s and cannot be cancelled", o.OrderNumber, o.Status)
		}
		fields := map[string]any{
			"status":       domain.OrderStatusCancelled,
			"cancelled_at": uc.now(),
		}
		if r := strings.TrimSpace(reason); r != "" {
			fields["cancellation_reason"] = r
		}
		if err := uow.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
			return err
		}
		out, err = uow.Orders().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePayment registra el resultado del pago informado por quien lo procesó.
func (uc *OrderUC) UpdatePayment(ctx context.Context, id uuid.UUID, upd domain.PaymentUpdate) (*domain.Order, error) {
	if !upd.Status.Valid() {
		return nil, domain.InvalidInput("unknown payment status %q", upd.Status)
	}
	var out *domain.Order
	err := uc.Tx.Do(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		o, err := uow.Orders().FindByID(ctx, id)
		if err != nil {
			return notFoundOrder(err, id.String())
		}
		if o.Status.Terminal() {
			return domain.InvalidState("order %s is %s and can no longer be updated", o.OrderNumber, o.Status)
		}
		fields := map[string]any{"payment_status": upd.Status}
		if upd.Reference != nil {
			fields["payment_reference"] = strings.TrimSpace(*upd.Reference)
		}
		if err := uow.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
			return err
		}
		out, err = uow.Orders().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func notFoundOrder(err error, ref string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("order %s not found", ref)
	}
	return fmt.Errorf("buscar pedido %s: %w", ref, err)
}
