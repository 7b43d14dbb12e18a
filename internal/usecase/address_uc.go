package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/phenrril/marketplace/internal/domain"
)

// AddressUC administra la libreta de direcciones de un usuario.
type AddressUC struct {
	Tx        domain.Transactor
	Addresses domain.AddressRepo
	Regions   domain.RegionDefaults
}

// Create guarda una dirección nueva para userID. La primera dirección de un
// usuario queda como predeterminada; marcar una como predeterminada desmarca la
// anterior en la misma transacción.
func (uc *AddressUC) Create(ctx context.Context, userID uuid.UUID, in domain.AddressInput) (*domain.Address, error) {
	if userID == uuid.Nil {
		return nil, domain.InvalidInput("user is required")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	a := domain.NewAddress(&userID, in, uc.Regions)
	err := uc.Tx.Do(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		n, err := uow.Addresses().CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := uow.Addresses().UnsetDefaults(ctx, userID); err != nil {
				return err
			}
		}
		return uow.Addresses().Create(ctx, a)
	})
	if err != nil {
		return nil, fmt.Errorf("crear dirección: %w", err)
	}
	return a, nil
}

func (uc *AddressUC) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	var out *domain.Address
	err := uc.Tx.Do(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		a, err := uow.Addresses().FindOwned(ctx, addressID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("address %s not found", addressID)
			}
			return err
		}
		if err := uow.Addresses().UnsetDefaults(ctx, userID); err != nil {
			return err
		}
		if err := uow.Addresses().MarkDefault(ctx, a.ID); err != nil {
			return err
		}
		a.IsDefault = true
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *AddressUC) List(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	return uc.Addresses.ListByUser(ctx, userID)
}
