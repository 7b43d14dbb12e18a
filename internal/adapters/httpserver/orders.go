package httpserver

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/phenrril/marketplace/internal/domain"
	"github.com/phenrril/marketplace/internal/usecase"
)

func (s *Server) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateOrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.orders.CreateUnifiedOrder(r.Context(), currentUserID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) apiListOrders(w http.ResponseWriter, r *http.Request) {
	u := requireUser(w, r)
	if u == nil {
		return
	}
	p, size := usecase.NormalizePage(queryInt(r, "page", 1), queryInt(r, "pageSize", 20))
	list, total, err := s.orders.ListForUser(r.Context(), u.ID, p, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page[domain.Order]{Items: list, Total: total, Page: p, PageSize: size})
}

func (s *Server) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	owner := currentUserID(r)
	if isAdmin(r) {
		owner = nil
	}
	o, err := s.orders.Get(r.Context(), id, owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) apiCancelOrder(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, err)
			return
		}
	}
	owner := currentUserID(r)
	if isAdmin(r) {
		owner = nil
	}
	o, err := s.orders.Cancel(r.Context(), id, owner, body.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// trackedOrder es la vista pública de un pedido buscado por número; no incluye
// la dirección de entrega ni los datos de contacto.
type trackedOrder struct {
	OrderNumber    string               `json:"orderNumber"`
	Status         domain.OrderStatus   `json:"status"`
	PaymentStatus  domain.PaymentStatus `json:"paymentStatus"`
	TotalAmount    decimal.Decimal      `json:"totalAmount"`
	TrackingNumber string               `json:"trackingNumber,omitempty"`
	Items          []domain.OrderItem   `json:"items"`
}

func (s *Server) apiTrackOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.GetByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trackedOrder{
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		TotalAmount:    o.TotalAmount,
		TrackingNumber: o.TrackingNumber,
		Items:          o.Items,
	})
}

func (s *Server) apiDeliveryQuote(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("subtotal")
	subtotal, err := decimal.NewFromString(raw)
	if err != nil || subtotal.IsNegative() {
		writeError(w, r, domain.InvalidInput("subtotal must be a non-negative number"))
		return
	}
	q, err := s.settings.QuoteDelivery(r.Context(), subtotal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
