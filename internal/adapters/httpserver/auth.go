package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phenrril/marketplace/internal/domain"
)

type ctxKey int

const userKey ctxKey = iota

// Authenticator verifica los bearer tokens que emite el servicio de identidad:
// HS256 con el id de usuario en "sub". Sin token, el request es de un invitado.
type Authenticator struct {
	secret []byte
	users  domain.UserRepo
}

func NewAuthenticator(secret string, users domain.UserRepo) *Authenticator {
	return &Authenticator{secret: []byte(secret), users: users}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(tok) == "" {
			writeUnauthorized(w, "invalid authorization header")
			return
		}
		u, err := a.userFromToken(r.Context(), strings.TrimSpace(tok))
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("token rechazado")
			writeUnauthorized(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

func (a *Authenticator) userFromToken(ctx context.Context, tok string) (*domain.User, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("verificación de token deshabilitada")
	}
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("token inválido")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, err
	}
	return a.users.FindByID(ctx, id)
}

func currentUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userKey).(*domain.User)
	return u
}

func currentUserID(r *http.Request) *uuid.UUID {
	if u := currentUser(r); u != nil {
		id := u.ID
		return &id
	}
	return nil
}

func isAdmin(r *http.Request) bool {
	u := currentUser(r)
	return u != nil && u.Role == domain.RoleAdmin
}

// requireUser responde 401 y devuelve nil para invitados.
func requireUser(w http.ResponseWriter, r *http.Request) *domain.User {
	u := currentUser(r)
	if u == nil {
		writeUnauthorized(w, "authentication required")
	}
	return u
}

func (s *Server) admin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if requireUser(w, r) == nil {
			return
		}
		if !isAdmin(r) {
			writeJSON(w, http.StatusForbidden, errorBody{Error: errorDetail{Kind: "forbidden", Message: "admin role required"}})
			return
		}
		h(w, r)
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{Kind: "unauthorized", Message: msg}})
}
