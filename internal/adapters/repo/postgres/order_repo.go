package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/marketplace/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func itemsByLine(db *gorm.DB) *gorm.DB { return db.Order("line_no asc") }

// Create inserta solo la cabecera; los ítems van por CreateItems.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
	if isUniqueViolation(err) {
		return domain.Conflict("order number %s already exists, retry", o.OrderNumber)
	}
	return err
}

func (r *OrderRepo) CreateItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *OrderRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("order_number = ?", number).Count(&n).Error
	return n > 0, err
}

func (r *OrderRepo) hydrated(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Address").Preload("Items", itemsByLine)
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.hydrated(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var o domain.Order
	if err := r.hydrated(ctx).First(&o, "order_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	list := []domain.Order{}
	err := q.Order("created_at desc").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Preload("Address").Preload("Items", itemsByLine).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 50
	}
	list := []domain.Order{}
	err := q.Order("created_at asc").
		Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).
		Preload("Address").Preload("Items", itemsByLine).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateFields escribe las columnas indicadas de un pedido.
func (r *OrderRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats agrega fuera de cualquier transacción de pedido; puede no incluir
// pedidos que se están confirmando en paralelo.
func (r *OrderRepo) Stats(ctx context.Context) (*domain.OrderStats, error) {
	type statusCount struct {
		Status domain.OrderStatus
		N      int64
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	st := &domain.OrderStats{ByStatus: map[domain.OrderStatus]int64{}}
	for _, row := range rows {
		st.ByStatus[row.Status] = row.N
		st.TotalOrders += row.N
	}

	revenue := decimal.Zero
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status = ?", domain.OrderStatusDelivered).
		Row().Scan(&revenue); err != nil {
		return nil, err
	}
	st.DeliveredRevenue = revenue

	if err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id IS NULL").Count(&st.GuestOrders).Error; err != nil {
		return nil, err
	}
	return st, nil
}
