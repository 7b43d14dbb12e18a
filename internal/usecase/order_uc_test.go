package usecase

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/marketplace/internal/domain"
)

type orderFixture struct {
	tx       *memTx
	settings *staticSettings
	uc       *OrderUC

	userID   uuid.UUID
	addrID   uuid.UUID
	tomatoes domain.Product
	honey    domain.Product
	cheese   domain.Product
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func decPtrStr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		tx:       newMemTx(),
		settings: &staticSettings{s: deliverySettings(true, 150, 2000)},
		userID:   uuid.New(),
		addrID:   uuid.New(),
	}
	yes, no := true, false
	f.tomatoes = domain.Product{
		ID: uuid.New(), Name: "Tomatoes", Price: dec(100), Unit: "kg", IsAvailable: true,
		Specifications: map[string]any{"origin": "Santa Fe"},
		Images:         []domain.Image{{URL: "/img/tomatoes.jpg"}},
	}
	f.honey = domain.Product{
		ID: uuid.New(), Name: "Honey", Price: dec(200), Unit: "jar", IsAvailable: true, HasVariants: true,
		Variants: []domain.ProductVariant{
			{Name: "Small", Price: dec(200)},
			{Name: "Large", Price: dec(300), OriginalPrice: decPtr(350), IsAvailable: &yes},
			{Name: "Family", Price: dec(520), IsAvailable: &no},
		},
	}
	f.cheese = domain.Product{ID: uuid.New(), Name: "Goat Cheese", Price: dec(450), IsAvailable: false}

	s := f.tx.store()
	for _, p := range []domain.Product{f.tomatoes, f.honey, f.cheese} {
		s.products[p.ID] = p
	}
	s.addresses[f.addrID] = domain.Address{
		ID: f.addrID, UserID: &f.userID, FullName: "Ana", Phone: "341", AddressLine1: "Calle 1", City: "Rosario", IsDefault: true,
	}

	f.uc = &OrderUC{
		Tx:       f.tx,
		Orders:   f.tx.committedOrders(),
		Settings: f.settings,
		Numbers:  NewOrderNumberGenerator(),
		Regions:  domain.RegionDefaults{State: "Santa Fe", Country: "Argentina"},
	}
	return f
}

func (f *orderFixture) ownedInput(items ...domain.OrderItemInput) domain.CreateOrderInput {
	return domain.CreateOrderInput{AddressID: &f.addrID, Items: items, PaymentMethod: domain.PaymentMethodCOD}
}

func guestAddressInput() *domain.AddressInput {
	return &domain.AddressInput{FullName: "Guest", Phone: "555", AddressLine1: "Av. Siempreviva 742", City: "Rosario"}
}

var orderNumberRe = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

func TestCreateUnifiedOrderOwned(t *testing.T) {
	f := newOrderFixture(t)

	o, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID,
		f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 2}))
	require.NoError(t, err)

	assert.True(t, o.Subtotal.Equal(dec(200)))
	assert.True(t, o.DeliveryFee.Equal(dec(150)))
	assert.True(t, o.TotalAmount.Equal(dec(350)))
	assert.True(t, o.Discount.IsZero())
	assert.True(t, o.BalanceHolds())
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
	assert.Regexp(t, orderNumberRe, o.OrderNumber)
	require.NotNil(t, o.UserID)
	assert.Equal(t, f.userID, *o.UserID)
	assert.Equal(t, f.addrID, o.AddressID)

	require.Len(t, o.Items, 1)
	it := o.Items[0]
	assert.Equal(t, "Tomatoes", it.ItemName)
	assert.Equal(t, "/img/tomatoes.jpg", it.ItemImage)
	assert.Equal(t, "kg", it.Unit)
	assert.Equal(t, "Santa Fe", it.Specifications["origin"])
	assert.True(t, it.UnitPrice.Equal(dec(100)))
	assert.True(t, it.TotalPrice.Equal(dec(200)))
	assert.Nil(t, it.VariantPrice)
	assert.Equal(t, 1, f.tx.commits)
}

func TestCreateUnifiedOrderGuestFreeDelivery(t *testing.T) {
	f := newOrderFixture(t)
	in := domain.CreateOrderInput{
		Address:       guestAddressInput(),
		Items:         []domain.OrderItemInput{{ProductID: f.tomatoes.ID, Quantity: 25}},
		PaymentMethod: domain.PaymentMethodCard,
	}

	o, err := f.uc.CreateUnifiedOrder(context.Background(), nil, in)
	require.NoError(t, err)

	assert.Nil(t, o.UserID)
	assert.True(t, o.IsGuest())
	assert.True(t, o.Subtotal.Equal(dec(2500)))
	assert.True(t, o.DeliveryFee.IsZero())
	assert.True(t, o.TotalAmount.Equal(dec(2500)))

	require.NotNil(t, o.Address)
	assert.Nil(t, o.Address.UserID)
	assert.True(t, o.Address.IsDefault)
	assert.Equal(t, "Santa Fe", o.Address.State)
	assert.Equal(t, "Argentina", o.Address.Country)
	assert.Equal(t, domain.AddressTypeHome, o.Address.Type)
	assert.Len(t, f.tx.store().addresses, 2)
}

func TestCreateUnifiedOrderRejectsUnavailableProduct(t *testing.T) {
	f := newOrderFixture(t)
	in := domain.CreateOrderInput{
		Address: guestAddressInput(),
		Items: []domain.OrderItemInput{
			{ProductID: f.tomatoes.ID, Quantity: 1},
			{ProductID: f.cheese.ID, Quantity: 1},
		},
		PaymentMethod: domain.PaymentMethodCOD,
	}

	_, err := f.uc.CreateUnifiedOrder(context.Background(), nil, in)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Goat Cheese")

	// la dirección de invitado creada antes de validar productos también se revierte
	assert.Empty(t, f.tx.store().orders)
	assert.Len(t, f.tx.store().addresses, 1)
	assert.Zero(t, f.tx.commits)
}

func TestCreateUnifiedOrderVariantPricing(t *testing.T) {
	tests := []struct {
		name      string
		trust     bool
		line      domain.OrderItemInput
		wantName  string
		wantUnit  int64
		wantVar   *decimal.Decimal
		wantOrig  *decimal.Decimal
		wantTotal int64
	}{
		{
			name:     "catalog variant price",
			line:     domain.OrderItemInput{Quantity: 2, SelectedVariant: "Large"},
			wantName: "Honey - Large", wantUnit: 300, wantVar: decPtr(300), wantOrig: decPtr(350), wantTotal: 600,
		},
		{
			name:     "submitted price ignored by default",
			line:     domain.OrderItemInput{Quantity: 1, SelectedVariant: "Large", VariantPrice: decPtr(250)},
			wantName: "Honey - Large", wantUnit: 300, wantVar: decPtr(300), wantOrig: decPtr(350), wantTotal: 300,
		},
		{
			name:     "submitted price trusted",
			trust:    true,
			line:     domain.OrderItemInput{Quantity: 1, SelectedVariant: "Large", VariantPrice: decPtr(250), VariantOriginalPrice: decPtr(400)},
			wantName: "Honey - Large", wantUnit: 250, wantVar: decPtr(250), wantOrig: decPtr(400), wantTotal: 250,
		},
		{
			name:     "trailing zeros are not extra precision",
			trust:    true,
			line:     domain.OrderItemInput{Quantity: 2, SelectedVariant: "Large", VariantPrice: decPtrStr("250.000")},
			wantName: "Honey - Large", wantUnit: 250, wantVar: decPtr(250), wantOrig: decPtr(350), wantTotal: 500,
		},
		{
			name:     "unknown variant falls back to base price",
			line:     domain.OrderItemInput{Quantity: 1, SelectedVariant: "Huge"},
			wantName: "Honey", wantUnit: 200, wantTotal: 200,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.uc.TrustClientVariantPrice = tt.trust
			tt.line.ProductID = f.honey.ID

			o, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID, f.ownedInput(tt.line))
			require.NoError(t, err)
			require.Len(t, o.Items, 1)

			it := o.Items[0]
			assert.Equal(t, tt.wantName, it.ItemName)
			assert.Equal(t, tt.line.SelectedVariant, it.SelectedVariant)
			assert.True(t, it.UnitPrice.Equal(dec(tt.wantUnit)), "unit price %s", it.UnitPrice)
			assert.True(t, it.TotalPrice.Equal(dec(tt.wantTotal)))
			assert.True(t, o.Subtotal.Equal(dec(tt.wantTotal)))
			if tt.wantVar == nil {
				assert.Nil(t, it.VariantPrice)
			} else {
				require.NotNil(t, it.VariantPrice)
				assert.True(t, it.VariantPrice.Equal(*tt.wantVar))
			}
			if tt.wantOrig == nil {
				assert.Nil(t, it.VariantOriginalPrice)
			} else {
				require.NotNil(t, it.VariantOriginalPrice)
				assert.True(t, it.VariantOriginalPrice.Equal(*tt.wantOrig))
			}
		})
	}
}

func TestCreateUnifiedOrderKeepsDuplicateLines(t *testing.T) {
	f := newOrderFixture(t)

	o, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID, f.ownedInput(
		domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1},
		domain.OrderItemInput{ProductID: f.honey.ID, Quantity: 1, SelectedVariant: "Small"},
		domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 3},
	))
	require.NoError(t, err)

	require.Len(t, o.Items, 3)
	for i, it := range o.Items {
		assert.Equal(t, i+1, it.LineNo)
	}
	assert.Equal(t, 3, o.Items[2].Quantity)
	assert.True(t, o.Subtotal.Equal(dec(600)))
}

func TestCreateUnifiedOrderErrors(t *testing.T) {
	other := uuid.New()
	otherAddr := uuid.New()

	tests := []struct {
		name    string
		userID  func(f *orderFixture) *uuid.UUID
		input   func(f *orderFixture) domain.CreateOrderInput
		kind    error
		message string
	}{
		{
			name:   "unknown product",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				return f.ownedInput(domain.OrderItemInput{ProductID: uuid.New(), Quantity: 1})
			},
			kind: domain.ErrInvalidInput, message: "one or more products not found",
		},
		{
			name:   "unavailable variant",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				return f.ownedInput(domain.OrderItemInput{ProductID: f.honey.ID, Quantity: 1, SelectedVariant: "Family"})
			},
			kind: domain.ErrInvalidInput, message: "not available",
		},
		{
			name:   "address of another user",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				f.tx.store().addresses[otherAddr] = domain.Address{ID: otherAddr, UserID: &other, City: "Rosario"}
				in := f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1})
				in.AddressID = &otherAddr
				return in
			},
			kind: domain.ErrNotFound, message: "address",
		},
		{
			name:   "user without addressId",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				in := f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1})
				in.AddressID = nil
				in.Address = guestAddressInput()
				return in
			},
			kind: domain.ErrInvalidInput, message: "addressId is required",
		},
		{
			name:   "guest without address",
			userID: func(*orderFixture) *uuid.UUID { return nil },
			input: func(f *orderFixture) domain.CreateOrderInput {
				return domain.CreateOrderInput{
					Items:         []domain.OrderItemInput{{ProductID: f.tomatoes.ID, Quantity: 1}},
					PaymentMethod: domain.PaymentMethodCOD,
				}
			},
			kind: domain.ErrInvalidInput, message: "address is required",
		},
		{
			name:   "guest address missing city",
			userID: func(*orderFixture) *uuid.UUID { return nil },
			input: func(f *orderFixture) domain.CreateOrderInput {
				a := guestAddressInput()
				a.City = ""
				return domain.CreateOrderInput{
					Address:       a,
					Items:         []domain.OrderItemInput{{ProductID: f.tomatoes.ID, Quantity: 1}},
					PaymentMethod: domain.PaymentMethodCOD,
				}
			},
			kind: domain.ErrInvalidInput, message: "city",
		},
		{
			name:   "zero quantity",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				return f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 0})
			},
			kind: domain.ErrInvalidInput, message: "quantity",
		},
		{
			name:   "empty basket",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				return f.ownedInput()
			},
			kind: domain.ErrInvalidInput, message: "items",
		},
		{
			name:   "unknown payment method",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				in := f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1})
				in.PaymentMethod = "barter"
				return in
			},
			kind: domain.ErrInvalidInput, message: "paymentMethod",
		},
		{
			name:   "negative submitted variant price",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				return f.ownedInput(domain.OrderItemInput{ProductID: f.honey.ID, Quantity: 1, SelectedVariant: "Large", VariantPrice: decPtr(-1)})
			},
			kind: domain.ErrInvalidInput, message: "variantPrice",
		},
		{
			name:   "sub-cent submitted variant price",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				p := decimal.RequireFromString("0.005")
				return f.ownedInput(domain.OrderItemInput{ProductID: f.honey.ID, Quantity: 3, SelectedVariant: "Large", VariantPrice: &p})
			},
			kind: domain.ErrInvalidInput, message: "items[0].variantPrice must have at most 2 decimal places",
		},
		{
			name:   "sub-cent submitted original price",
			userID: func(f *orderFixture) *uuid.UUID { return &f.userID },
			input: func(f *orderFixture) domain.CreateOrderInput {
				p := decimal.RequireFromString("350.001")
				return f.ownedInput(domain.OrderItemInput{ProductID: f.honey.ID, Quantity: 1, SelectedVariant: "Large", VariantOriginalPrice: &p})
			},
			kind: domain.ErrInvalidInput, message: "variantOriginalPrice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			in := tt.input(f)

			o, err := f.uc.CreateUnifiedOrder(context.Background(), tt.userID(f), in)
			require.Error(t, err)
			assert.Nil(t, o)
			assert.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), tt.message)
			assert.Empty(t, f.tx.store().orders)
			assert.Empty(t, f.tx.store().items)
		})
	}
}

func TestCreateUnifiedOrderRollsBackOnItemFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.tx.store().failCreateItems = errors.New("disk full")
	in := domain.CreateOrderInput{
		Address:       guestAddressInput(),
		Items:         []domain.OrderItemInput{{ProductID: f.tomatoes.ID, Quantity: 1}},
		PaymentMethod: domain.PaymentMethodCOD,
	}

	_, err := f.uc.CreateUnifiedOrder(context.Background(), nil, in)
	require.Error(t, err)
	assert.Nil(t, domain.KindOf(err))

	assert.Empty(t, f.tx.store().orders)
	assert.Len(t, f.tx.store().addresses, 1)
	assert.Zero(t, f.tx.commits)
}

func TestCreateUnifiedOrderNumberAllocation(t *testing.T) {
	t.Run("retries past a taken number", func(t *testing.T) {
		f := newOrderFixture(t)
		taken := domain.Order{ID: uuid.New(), OrderNumber: "ORD-20260101-1111"}
		f.tx.store().orders[taken.ID] = taken
		f.uc.Numbers = &seqNumbers{list: []string{"ORD-20260101-1111", "ORD-20260101-2222"}}

		o, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID,
			f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1}))
		require.NoError(t, err)
		assert.Equal(t, "ORD-20260101-2222", o.OrderNumber)
	})

	t.Run("conflict after exhausting attempts", func(t *testing.T) {
		f := newOrderFixture(t)
		taken := domain.Order{ID: uuid.New(), OrderNumber: "ORD-20260101-1111"}
		f.tx.store().orders[taken.ID] = taken
		f.uc.Numbers = &seqNumbers{list: []string{"ORD-20260101-1111"}}
		f.uc.NumberAttempts = 3

		_, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID,
			f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1}))
		require.ErrorIs(t, err, domain.ErrConflict)
		assert.Len(t, f.tx.store().orders, 1)
	})
}

func TestCreateUnifiedOrderDeliverySettings(t *testing.T) {
	t.Run("disabled delivery is free", func(t *testing.T) {
		f := newOrderFixture(t)
		f.settings.s = deliverySettings(false, 150, 2000)

		o, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID,
			f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1}))
		require.NoError(t, err)
		assert.True(t, o.DeliveryFee.IsZero())
		assert.True(t, o.TotalAmount.Equal(dec(100)))
	})

	t.Run("settings failure aborts before the transaction", func(t *testing.T) {
		f := newOrderFixture(t)
		f.settings.err = errors.New("db down")

		_, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID,
			f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1}))
		require.Error(t, err)
		assert.Zero(t, f.tx.calls)
	})
}

func TestExportWritesListedOrders(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID,
		f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1}))
	require.NoError(t, err)

	exp := &captureExporter{}
	f.uc.Exporter = exp
	require.NoError(t, f.uc.Export(context.Background(), domain.OrderFilter{}, nil))
	require.Len(t, exp.orders, 1)
	assert.Len(t, exp.orders[0].Items, 1)

	f.uc.Exporter = nil
	assert.Error(t, f.uc.Export(context.Background(), domain.OrderFilter{}, nil))
}

// inflatedTotal informa más pedidos de los que puede devolver.
type inflatedTotal struct{ domain.OrderRepo }

func (r inflatedTotal) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	list, total, err := r.OrderRepo.List(ctx, f)
	return list, total + 10, err
}

func TestExportWalksEveryPage(t *testing.T) {
	f := newOrderFixture(t)
	f.uc.Numbers = &seqNumbers{list: []string{"ORD-20240101-1001", "ORD-20240101-1002", "ORD-20240101-1003"}}
	for range 3 {
		_, err := f.uc.CreateUnifiedOrder(context.Background(), &f.userID,
			f.ownedInput(domain.OrderItemInput{ProductID: f.tomatoes.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	exp := &captureExporter{}
	f.uc.Exporter = exp
	require.NoError(t, f.uc.Export(context.Background(), domain.OrderFilter{PageSize: 2}, nil))
	assert.Len(t, exp.orders, 3)

	f.uc.Orders = inflatedTotal{f.uc.Orders}
	exp.orders = nil
	require.NoError(t, f.uc.Export(context.Background(), domain.OrderFilter{PageSize: 2}, nil))
	assert.Len(t, exp.orders, 3)
}
