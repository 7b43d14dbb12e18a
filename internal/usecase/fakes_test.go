package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/marketplace/internal/domain"
)

// memStore es una foto de toda la base; memTx la copia por unidad de trabajo y
// la reemplaza solo en el commit.
type memStore struct {
	products  map[uuid.UUID]domain.Product
	addresses map[uuid.UUID]domain.Address
	orders    map[uuid.UUID]domain.Order
	items     map[uuid.UUID][]domain.OrderItem

	failCreateItems error
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[uuid.UUID]domain.Product{},
		addresses: map[uuid.UUID]domain.Address{},
		orders:    map[uuid.UUID]domain.Order{},
		items:     map[uuid.UUID][]domain.OrderItem{},
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]domain.OrderItem(nil), v...)
	}
	c.failCreateItems = s.failCreateItems
	return c
}

type memTx struct {
	mu      sync.Mutex
	s       *memStore
	commits int
	calls   int
}

func newMemTx() *memTx { return &memTx{s: newMemStore()} }

func (t *memTx) Do(ctx context.Context, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	work := t.s.clone()
	if err := fn(ctx, memUOW{s: work}); err != nil {
		return err
	}
	t.s = work
	t.commits++
	return nil
}

func (t *memTx) store() *memStore { return t.s }

// committed devuelve repositorios que leen la última foto confirmada.
func (t *memTx) committedOrders() *memOrders {
	return &memOrders{get: t.store}
}

func (t *memTx) committedAddresses() *memAddresses {
	return &memAddresses{get: t.store}
}

type memUOW struct{ s *memStore }

func (u memUOW) get() *memStore { return u.s }

func (u memUOW) Products() domain.ProductRepo  { return &memProducts{get: u.get} }
func (u memUOW) Addresses() domain.AddressRepo { return &memAddresses{get: u.get} }
func (u memUOW) Orders() domain.OrderRepo      { return &memOrders{get: u.get} }

type memProducts struct{ get func() *memStore }

func (r *memProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := r.get().products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.get().products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memProducts) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, p := range r.get().products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memProducts) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, p := range r.get().products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProducts) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	out := []domain.Product{}
	for _, p := range r.get().products {
		if f.OnlyAvailable && !p.IsAvailable {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *memProducts) Save(_ context.Context, p *domain.Product) error {
	r.get().products[p.ID] = *p
	return nil
}

type memAddresses struct{ get func() *memStore }

func (r *memAddresses) FindOwned(_ context.Context, id, userID uuid.UUID) (*domain.Address, error) {
	a, ok := r.get().addresses[id]
	if !ok || a.UserID == nil || *a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *memAddresses) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Address, error) {
	out := []domain.Address{}
	for _, a := range r.get().addresses {
		if a.UserID != nil && *a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IsDefault && !out[j].IsDefault })
	return out, nil
}

func (r *memAddresses) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	l, _ := r.ListByUser(ctx, userID)
	return int64(len(l)), nil
}

func (r *memAddresses) Create(_ context.Context, a *domain.Address) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.get().addresses[a.ID] = *a
	return nil
}

func (r *memAddresses) UnsetDefaults(_ context.Context, userID uuid.UUID) error {
	s := r.get()
	for id, a := range s.addresses {
		if a.UserID != nil && *a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			s.addresses[id] = a
		}
	}
	return nil
}

func (r *memAddresses) MarkDefault(_ context.Context, id uuid.UUID) error {
	s := r.get()
	a, ok := s.addresses[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.IsDefault = true
	s.addresses[id] = a
	return nil
}

type memOrders struct{ get func() *memStore }

func (r *memOrders) Create(_ context.Context, o *domain.Order) error {
	s := r.get()
	for _, other := range s.orders {
		if other.OrderNumber == o.OrderNumber {
			return domain.Conflict("order number %s already exists, retry", o.OrderNumber)
		}
	}
	cp := *o
	cp.Address, cp.Items = nil, nil
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.orders[o.ID] = cp
	return nil
}

func (r *memOrders) CreateItems(_ context.Context, items []domain.OrderItem) error {
	s := r.get()
	if s.failCreateItems != nil {
		return s.failCreateItems
	}
	for _, it := range items {
		s.items[it.OrderID] = append(s.items[it.OrderID], it)
	}
	return nil
}

func (r *memOrders) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, o := range r.get().orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *memOrders) hydrate(o domain.Order) *domain.Order {
	s := r.get()
	if a, ok := s.addresses[o.AddressID]; ok {
		o.Address = &a
	}
	o.Items = append([]domain.OrderItem(nil), s.items[o.ID]...)
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].LineNo < o.Items[j].LineNo })
	return &o
}

func (r *memOrders) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := r.get().orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.hydrate(o), nil
}

func (r *memOrders) FindByNumber(_ context.Context, number string) (*domain.Order, error) {
	for _, o := range r.get().orders {
		if o.OrderNumber == number {
			return r.hydrate(o), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memOrders) all(keep func(domain.Order) bool) []domain.Order {
	out := []domain.Order{}
	for _, o := range r.get().orders {
		if keep(o) {
			out = append(out, *r.hydrate(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out
}

func (r *memOrders) ListByUser(_ context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error) {
	list := r.all(func(o domain.Order) bool { return o.UserID != nil && *o.UserID == userID })
	return paginate(list, page, pageSize), int64(len(list)), nil
}

func (r *memOrders) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	list := r.all(func(o domain.Order) bool { return f.Status == "" || o.Status == f.Status })
	return paginate(list, f.Page, f.PageSize), int64(len(list)), nil
}

func paginate(list []domain.Order, page, size int) []domain.Order {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if size <= 0 || start >= len(list) {
		if size <= 0 {
			return list
		}
		return []domain.Order{}
	}
	end := start + size
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}

func (r *memOrders) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s := r.get()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(domain.OrderStatus)
		case "payment_status":
			o.PaymentStatus = v.(domain.PaymentStatus)
		case "payment_reference":
			o.PaymentReference = v.(string)
		case "tracking_number":
			o.TrackingNumber = v.(string)
		case "cancellation_reason":
			o.CancellationReason = v.(string)
		case "estimated_delivery":
			t := v.(time.Time)
			o.EstimatedDelivery = &t
		case "delivered_at":
			t := v.(time.Time)
			o.DeliveredAt = &t
		case "cancelled_at":
			t := v.(time.Time)
			o.CancelledAt = &t
		default:
			panic("unexpected order field " + k)
		}
	}
	s.orders[id] = o
	return nil
}

func (r *memOrders) Stats(_ context.Context) (*domain.OrderStats, error) {
	st := &domain.OrderStats{ByStatus: map[domain.OrderStatus]int64{}, DeliveredRevenue: decimal.Zero}
	for _, o := range r.get().orders {
		st.TotalOrders++
		st.ByStatus[o.Status]++
		if o.Status == domain.OrderStatusDelivered {
			st.DeliveredRevenue = st.DeliveredRevenue.Add(o.TotalAmount)
		}
		if o.UserID == nil {
			st.GuestOrders++
		}
	}
	return st, nil
}

type staticSettings struct {
	s     domain.DeliverySettings
	err   error
	calls int
}

func (f *staticSettings) GetDeliverySettings(context.Context) (domain.DeliverySettings, error) {
	f.calls++
	return f.s, f.err
}

// seqNumbers entrega los números dados en orden y repite el último.
type seqNumbers struct {
	list []string
	i    int
}

func (g *seqNumbers) Generate() string {
	n := g.list[g.i]
	if g.i < len(g.list)-1 {
		g.i++
	}
	return n
}

func deliverySettings(enabled bool, fee, threshold int64) domain.DeliverySettings {
	return domain.DeliverySettings{
		IsDeliveryEnabled:     &enabled,
		DeliveryFee:           decimal.NewNullDecimal(decimal.NewFromInt(fee)),
		FreeDeliveryThreshold: decimal.NewNullDecimal(decimal.NewFromInt(threshold)),
	}
}
