package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/phenrril/marketplace/internal/domain"
)

// AddressResolver devuelve la dirección de entrega del pedido que se arma.
// Corre dentro de la unidad de trabajo del pedido, así la dirección de un
// invitado se confirma o se descarta junto con el pedido.
type AddressResolver interface {
	Resolve(ctx context.Context, uow domain.UnitOfWork) (*domain.Address, error)
}

type ownedAddress struct {
	userID    uuid.UUID
	addressID *uuid.UUID
}

func (r ownedAddress) Resolve(ctx context.Context, uow domain.UnitOfWork) (*domain.Address, error) {
	if r.addressID == nil || *r.addressID == uuid.Nil {
		return nil, domain.InvalidInput("addressId is required")
	}
	a, err := uow.Addresses().FindOwned(ctx, *r.addressID, r.userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("address %s not found", *r.addressID)
		}
		return nil, fmt.Errorf("buscar dirección: %w", err)
	}
	return a, nil
}

type guestAddress struct {
	input    *domain.AddressInput
	defaults domain.RegionDefaults
}

func (r guestAddress) Resolve(ctx context.Context, uow domain.UnitOfWork) (*domain.Address, error) {
	if r.input == nil {
		return nil, domain.InvalidInput("address is required for guest orders")
	}
	if err := validateInput(r.input); err != nil {
		return nil, err
	}
	a := domain.NewAddress(nil, *r.input, r.defaults)
	a.IsDefault = true
	if err := uow.Addresses().Create(ctx, a); err != nil {
		return nil, fmt.Errorf("crear dirección de invitado: %w", err)
	}
	return a, nil
}

// resolverFor elige el modo propio si hay usuario y el de invitado si no.
func resolverFor(userID *uuid.UUID, in domain.CreateOrderInput, def domain.RegionDefaults) AddressResolver {
	if userID != nil {
		return ownedAddress{userID: *userID, addressID: in.AddressID}
	}
	return guestAddress{input: in.Address, defaults: def}
}
