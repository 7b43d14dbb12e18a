package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/marketplace/internal/domain"
)

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.ProductFilter{
		Query:         strings.TrimSpace(q.Get("q")),
		OnlyAvailable: queryBool(r, "available"),
		Sort:          q.Get("sort"),
		Page:          queryInt(r, "page", 1),
		PageSize:      queryInt(r, "pageSize", 20),
	}
	if c := q.Get("category"); c != "" {
		id, err := uuid.Parse(c)
		if err != nil {
			writeError(w, r, domain.InvalidInput("category must be a valid id"))
			return
		}
		f.CategoryID = &id
	}
	list, total, err := s.products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page[domain.Product]{Items: list, Total: total, Page: f.Page, PageSize: f.PageSize})
}

// apiProduct acepta el id o el slug del producto.
func (s *Server) apiProduct(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	var (
		p   *domain.Product
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		p, err = s.products.Get(r.Context(), id)
	} else {
		p, err = s.products.GetBySlug(r.Context(), ref)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) apiListAddresses(w http.ResponseWriter, r *http.Request) {
	u := requireUser(w, r)
	if u == nil {
		return
	}
	list, err := s.addresses.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) apiCreateAddress(w http.ResponseWriter, r *http.Request) {
	u := requireUser(w, r)
	if u == nil {
		return
	}
	var in domain.AddressInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.addresses.Create(r.Context(), u.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) apiDefaultAddress(w http.ResponseWriter, r *http.Request) {
	u := requireUser(w, r)
	if u == nil {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.addresses.SetDefault(r.Context(), u.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
