package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepo interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	Save(ctx context.Context, p *Product) error
}

type AddressRepo interface {
	FindOwned(ctx context.Context, id, userID uuid.UUID) (*Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Address, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Create(ctx context.Context, a *Address) error
	UnsetDefaults(ctx context.Context, userID uuid.UUID) error
	MarkDefault(ctx context.Context, id uuid.UUID) error
}

type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	CreateItems(ctx context.Context, items []OrderItem) error
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Order, int64, error)
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Stats(ctx context.Context) (*OrderStats, error)
}

type SettingRepo interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, s *Setting) error
	List(ctx context.Context) ([]Setting, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Save(ctx context.Context, u *User) error
}

// UnitOfWork entrega repositorios atados a una transacción abierta.
type UnitOfWork interface {
	Products() ProductRepo
	Addresses() AddressRepo
	Orders() OrderRepo
}

// Transactor corre fn dentro de una transacción: commit si fn devuelve nil,
// rollback ante error o panic.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// Cache es un cache de strings sin garantías. Un error significa "leer del
// store", nunca "fallar la operación".
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
