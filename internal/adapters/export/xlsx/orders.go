// Package xlsx genera reportes de pedidos como planillas de Excel.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/marketplace/internal/domain"
)

const (
	ordersSheet = "Orders"
	itemsSheet  = "Items"
)

var orderHeader = []any{
	"Order number", "Created", "Status", "Payment method", "Payment status",
	"Guest", "City", "Subtotal", "Delivery fee", "Discount", "Total",
}

var itemHeader = []any{
	"Order number", "Line", "Item", "Variant", "Unit price", "Quantity", "Total",
}

type Writer struct{}

func NewWriter() *Writer { return &Writer{} }

// WriteOrders escribe una fila por pedido en la primera hoja y una fila por
// ítem en la segunda.
func (Writer) WriteOrders(w io.Writer, orders []domain.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeader); err != nil {
		return err
	}
	if err := f.SetSheetRow(itemsSheet, "A1", &itemHeader); err != nil {
		return err
	}

	itemRow := 2
	for i, o := range orders {
		city := ""
		if o.Address != nil {
			city = o.Address.City
		}
		row := []any{
			o.OrderNumber,
			o.CreatedAt.UTC().Format("2006-01-02 15:04"),
			string(o.Status),
			string(o.PaymentMethod),
			string(o.PaymentStatus),
			o.IsGuest(),
			city,
			o.Subtotal.InexactFloat64(),
			o.DeliveryFee.InexactFloat64(),
			o.Discount.InexactFloat64(),
			o.TotalAmount.InexactFloat64(),
		}
		if err := f.SetSheetRow(ordersSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
		for _, it := range o.Items {
			line := []any{
				o.OrderNumber,
				it.LineNo,
				it.ItemName,
				it.SelectedVariant,
				it.UnitPrice.InexactFloat64(),
				it.Quantity,
				it.TotalPrice.InexactFloat64(),
			}
			if err := f.SetSheetRow(itemsSheet, fmt.Sprintf("A%d", itemRow), &line); err != nil {
				return err
			}
			itemRow++
		}
	}

	_, err := f.WriteTo(w)
	return err
}
