package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phenrril/marketplace/internal/domain"
	"github.com/phenrril/marketplace/internal/usecase"
)

const maxBodyBytes = 1 << 20

type Server struct {
	mux       *http.ServeMux
	products  *usecase.ProductUC
	orders    *usecase.OrderUC
	addresses *usecase.AddressUC
	settings  *usecase.SettingsUC
	auth      *Authenticator
}

type Deps struct {
	Products  *usecase.ProductUC
	Orders    *usecase.OrderUC
	Addresses *usecase.AddressUC
	Settings  *usecase.SettingsUC
	Auth      *Authenticator
}

func New(d Deps) http.Handler {
	s := &Server{
		mux:       http.NewServeMux(),
		products:  d.Products,
		orders:    d.Orders,
		addresses: d.Addresses,
		settings:  d.Settings,
		auth:      d.Auth,
	}
	s.routes()
	return Chain(s.mux,
		RequestID,
		Logging,
		Recovery,
		s.auth.Middleware,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("GET /api/products", s.apiProducts)
	s.mux.HandleFunc("GET /api/products/{ref}", s.apiProduct)
	s.mux.HandleFunc("GET /api/delivery/quote", s.apiDeliveryQuote)

	s.mux.HandleFunc("POST /api/orders", s.apiCreateOrder)
	s.mux.HandleFunc("GET /api/orders", s.apiListOrders)
	s.mux.HandleFunc("GET /api/orders/{id}", s.apiGetOrder)
	s.mux.HandleFunc("POST /api/orders/{id}/cancel", s.apiCancelOrder)
	s.mux.HandleFunc("GET /api/track/{number}", s.apiTrackOrder)

	s.mux.HandleFunc("GET /api/addresses", s.apiListAddresses)
	s.mux.HandleFunc("POST /api/addresses", s.apiCreateAddress)
	s.mux.HandleFunc("POST /api/addresses/{id}/default", s.apiDefaultAddress)

	s.mux.HandleFunc("PATCH /api/admin/orders/{id}/status", s.admin(s.apiAdminOrderStatus))
	s.mux.HandleFunc("PATCH /api/admin/orders/{id}/payment", s.admin(s.apiAdminOrderPayment))
	s.mux.HandleFunc("GET /api/admin/orders/stats", s.admin(s.apiAdminOrderStats))
	s.mux.HandleFunc("GET /api/admin/orders/export", s.admin(s.apiAdminOrderExport))
	s.mux.HandleFunc("GET /api/admin/settings", s.admin(s.apiAdminSettings))
	s.mux.HandleFunc("PUT /api/admin/settings/{key}", s.admin(s.apiAdminPutSetting))
}

type errorDetail struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduce los tipos de error del dominio a status HTTP. Lo que no
// tiene tipo se loguea y sale como un 500 genérico.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		code int
		d    errorDetail
	)
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		code, d = http.StatusNotFound, errorDetail{Kind: "not_found"}
	case domain.ErrInvalidInput:
		code, d = http.StatusBadRequest, errorDetail{Kind: "invalid_input"}
	case domain.ErrInvalidState:
		code, d = http.StatusConflict, errorDetail{Kind: "invalid_state"}
	case domain.ErrConflict:
		code, d = http.StatusConflict, errorDetail{Kind: "conflict", Retryable: true}
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request fallido")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{Kind: "internal", Message: "internal error"}})
		return
	}
	d.Message = domain.Message(err)
	writeJSON(w, code, errorBody{Error: d})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.InvalidInput("request body is required")
		}
		return domain.InvalidInput("malformed request body")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.InvalidInput("%s must be a valid id", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return def
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	return b
}

type page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}
