package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/marketplace/internal/domain"
)

type DeliverySettingsSource interface {
	GetDeliverySettings(ctx context.Context) (domain.DeliverySettings, error)
}

type NumberGenerator interface {
	Generate() string
}

type OrderExporter interface {
	WriteOrders(w io.Writer, orders []domain.Order) error
}

type OrderUC struct {
	Tx       domain.Transactor
	Orders   domain.OrderRepo
	Settings DeliverySettingsSource
	Numbers  NumberGenerator
	Exporter OrderExporter
	Regions  domain.RegionDefaults

	// NumberAttempts limita cuántos números se prueban antes de devolver
	// Conflict.
	NumberAttempts int
	// TrustClientVariantPrice permite que el variantPrice enviado reemplace
	// el precio de catálogo de la variante.
	TrustClientVariantPrice bool

	Now func() time.Time
}

// CreateUnifiedOrder convierte un carrito en un pedido persistido. userID nil
// es compra como invitado. Todo corre en una unidad de trabajo: ante cualquier
// error no queda nada del intento (pedido, ítems, dirección de invitado).
func (uc *OrderUC) CreateUnifiedOrder(ctx context.Context, userID *uuid.UUID, in domain.CreateOrderInput) (*domain.Order, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := checkClientPrices(in.Items); err != nil {
		return nil, err
	}

	settings, err := uc.Settings.GetDeliverySettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings de envío: %w", err)
	}
	resolver := resolverFor(userID, in, uc.Regions)

	var created *domain.Order
	err = uc.Tx.Do(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		addr, err := resolver.Resolve(ctx, uow)
		if err != nil {
			return err
		}

		products, err := uc.loadProducts(ctx, uow, in.Items)
		if err != nil {
			return err
		}

		orderID := uuid.New()
		items, subtotal, err := uc.buildItems(orderID, in.Items, products)
		if err != nil {
			return err
		}

		quote := CalculateDeliveryFee(subtotal, settings)

		number, err := uc.nextNumber(ctx, uow)
		if err != nil {
			return err
		}

		o := &domain.Order{
			ID:            orderID,
			OrderNumber:   number,
			UserID:        userID,
			AddressID:     addr.ID,
			Subtotal:      subtotal,
			DeliveryFee:   quote.Fee,
			Discount:      decimal.Zero,
			TotalAmount:   subtotal.Add(quote.Fee),
			Status:        domain.OrderStatusPending,
			PaymentMethod: in.PaymentMethod,
			PaymentStatus: domain.PaymentStatusPending,
			Notes:         in.Notes,
		}
		if err := uow.Orders().Create(ctx, o); err != nil {
			return err
		}
		if err := uow.Orders().CreateItems(ctx, items); err != nil {
			return err
		}

		created, err = uow.Orders().FindByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("recargar pedido: %w", err)
		}
		return nil
	})
	if err != nil {
		if domain.KindOf(err) == nil {
			log.Error().Err(err).Msg("creación de pedido revertida")
		}
		return nil, err
	}

	log.Info().
		Str("order_id", created.ID.String()).
		Str("order_number", created.OrderNumber).
		Bool("guest", created.IsGuest()).
		Str("total", created.TotalAmount.StringFixed(2)).
		Msg("pedido creado")
	return created, nil
}

// loadProducts trae los productos pedidos sin repetir y verifica, en el orden
// del pedido, que existan y estén disponibles.
func (uc *OrderUC) loadProducts(ctx context.Context, uow domain.UnitOfWork, lines []domain.OrderItemInput) (map[uuid.UUID]*domain.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	found, err := uow.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("buscar productos: %w", err)
	}
	if len(found) != len(ids) {
		return nil, domain.InvalidInput("one or more products not found")
	}

	byID := make(map[uuid.UUID]*domain.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, domain.InvalidInput("one or more products not found")
		}
		if !p.IsAvailable {
			return nil, domain.InvalidInput("product %q is not available", p.Name)
		}
	}
	return byID, nil
}

// buildItems cotiza cada línea y guarda su foto. Las líneas se mantienen una a
// una con lo enviado, duplicadas incluidas.
func (uc *OrderUC) buildItems(orderID uuid.UUID, lines []domain.OrderItemInput, products map[uuid.UUID]*domain.Product) ([]domain.OrderItem, decimal.Decimal, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for i, l := range lines {
		p := products[l.ProductID]

		item := domain.OrderItem{
			ID:              uuid.New(),
			OrderID:         orderID,
			ProductID:       p.ID,
			LineNo:          i + 1,
			ItemName:        p.Name,
			ItemImage:       p.FirstImage(),
			UnitPrice:       p.Price,
			Quantity:        l.Quantity,
			Unit:            p.Unit,
			Specifications:  copySpecs(p.Specifications),
			SelectedVariant: l.SelectedVariant,
		}

		if v, ok := p.FindVariant(l.SelectedVariant); ok {
			if v.IsAvailable != nil && !*v.IsAvailable {
				return nil, decimal.Zero, domain.InvalidInput("variant %q of product %q is not available", v.Name, p.Name)
			}
			price := uc.variantPrice(p, v, l)
			item.UnitPrice = price
			item.ItemName = p.Name + " - " + v.Name
			item.VariantPrice = &price
			switch {
			case l.VariantOriginalPrice != nil:
				orig := *l.VariantOriginalPrice
				item.VariantOriginalPrice = &orig
			case v.OriginalPrice != nil:
				orig := *v.OriginalPrice
				item.VariantOriginalPrice = &orig
			}
		}

		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(item.TotalPrice)
		items = append(items, item)
	}
	return items, subtotal, nil
}

func (uc *OrderUC) variantPrice(p *domain.Product, v *domain.ProductVariant, l domain.OrderItemInput) decimal.Decimal {
	if l.VariantPrice == nil {
		return v.Price
	}
	if uc.TrustClientVariantPrice {
		return *l.VariantPrice
	}
	if !l.VariantPrice.Equal(v.Price) {
		log.Warn().
			Str("product_id", p.ID.String()).
			Str("variant", v.Name).
			Str("submitted", l.VariantPrice.String()).
			Str("catalog", v.Price.String()).
			Msg("se ignora precio de variante enviado")
	}
	return v.Price
}

// nextNumber genera números hasta encontrar uno libre dentro de la transacción.
func (uc *OrderUC) nextNumber(ctx context.Context, uow domain.UnitOfWork) (string, error) {
	attempts := uc.NumberAttempts
	if attempts <= 0 {
		attempts = 5
	}
	for i := 0; i < attempts; i++ {
		n := uc.Numbers.Generate()
		taken, err := uow.Orders().ExistsByNumber(ctx, n)
		if err != nil {
			return "", fmt.Errorf("verificar número de pedido: %w", err)
		}
		if !taken {
			return n, nil
		}
	}
	return "", domain.Conflict("could not allocate a unique order number, retry")
}

func checkClientPrices(lines []domain.OrderItemInput) error {
	for i, l := range lines {
		if err := checkClientPrice(l.VariantPrice, i, "variantPrice"); err != nil {
			return err
		}
		if err := checkClientPrice(l.VariantOriginalPrice, i, "variantOriginalPrice"); err != nil {
			return err
		}
	}
	return nil
}

// Los montos se guardan en columnas decimal(12,2).
func checkClientPrice(d *decimal.Decimal, i int, field string) error {
	if d == nil {
		return nil
	}
	if d.IsNegative() {
		return domain.InvalidInput("items[%d].%s must not be negative", i, field)
	}
	if !d.Equal(d.Round(2)) {
		return domain.InvalidInput("items[%d].%s must have at most 2 decimal places", i, field)
	}
	return nil
}

func copySpecs(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Export escribe en w una planilla con los pedidos que cumplen f.
func (uc *OrderUC) Export(ctx context.Context, f domain.OrderFilter, w io.Writer) error {
	if uc.Exporter == nil {
		return errors.New("exportación de pedidos no configurada")
	}
	if f.PageSize <= 0 {
		f.PageSize = 500
	}
	orders := []domain.Order{}
	for f.Page = 1; ; f.Page++ {
		batch, total, err := uc.Orders.List(ctx, f)
		if err != nil {
			return fmt.Errorf("listar pedidos (página %d): %w", f.Page, err)
		}
		orders = append(orders, batch...)
		if len(batch) == 0 || int64(len(orders)) >= total {
			break
		}
	}
	return uc.Exporter.WriteOrders(w, orders)
}
