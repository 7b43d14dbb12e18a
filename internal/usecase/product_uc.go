package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/marketplace/internal/domain"
)

// ProductUC es la lectura del catálogo que usan los clientes del checkout.
type ProductUC struct {
	Products domain.ProductRepo
}

func (uc *ProductUC) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	return uc.Products.List(ctx, f)
}

func (uc *ProductUC) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if id == uuid.Nil {
		return nil, domain.InvalidInput("product id is required")
	}
	p, err := uc.Products.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("product %s not found", id)
	}
	return p, err
}

func (uc *ProductUC) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.InvalidInput("slug is required")
	}
	p, err := uc.Products.FindBySlug(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("product %q not found", slug)
	}
	return p, err
}

// Create guarda un producto y, si no trae slug, lo deriva del nombre.
// Lo usan el seed y los tests; la administración del catálogo está en otro lado.
func (uc *ProductUC) Create(ctx context.Context, p *domain.Product) error {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return domain.InvalidInput("product name is required")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		slug, err := uc.uniqueSlug(ctx, p.Name)
		if err != nil {
			return err
		}
		p.Slug = slug
	}
	if len(p.Variants) > 0 {
		p.HasVariants = true
	}
	for i := range p.Images {
		if p.Images[i].ID == uuid.Nil {
			p.Images[i].ID = uuid.New()
		}
		p.Images[i].ProductID = p.ID
		p.Images[i].Position = i
	}
	return uc.Products.Save(ctx, p)
}

// uniqueSlug deriva el slug del nombre y agrega -2, -3, ... hasta encontrar uno libre.
func (uc *ProductUC) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	slug := base
	for i := 2; ; i++ {
		taken, err := uc.Products.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("verificar slug %s: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
