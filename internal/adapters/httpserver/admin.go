package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/phenrril/marketplace/internal/domain"
)

func (s *Server) apiAdminOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var upd domain.StatusUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.orders.UpdateStatus(r.Context(), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) apiAdminOrderPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var upd domain.PaymentUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.orders.UpdatePayment(r.Context(), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) apiAdminOrderStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.orders.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// apiAdminOrderExport devuelve un xlsx de pedidos. from/to son fechas
// (YYYY-MM-DD) y to es exclusivo.
func (s *Server) apiAdminOrderExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.OrderFilter{Status: domain.OrderStatus(q.Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, r, domain.InvalidInput("unknown status %q", f.Status))
		return
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, r, domain.InvalidInput("%s must be a date (YYYY-MM-DD)", name))
			return
		}
		*dst = &t
	}

	var buf bytes.Buffer
	if err := s.orders.Export(r.Context(), f, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=orders-%s.xlsx", time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) apiAdminSettings(w http.ResponseWriter, r *http.Request) {
	list, err := s.settings.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) apiAdminPutSetting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string             `json:"value"`
		Type  domain.SettingType `json:"type"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.settings.Set(r.Context(), r.PathValue("key"), body.Value, body.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
