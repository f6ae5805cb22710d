package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// ProductService implements the admin-managed product catalog.
type ProductService struct {
	products ports.ProductRepository
	logger   zerolog.Logger
}

func NewProductService(products ports.ProductRepository, logger zerolog.Logger) *ProductService {
	return &ProductService{products: products, logger: logger}
}

func (s *ProductService) CreateProduct(ctx context.Context, actor domain.Actor, input ports.CreateProductInput) (*domain.Product, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	product := &domain.Product{
		Name:        input.Name,
		Type:        input.Type,
		Description: input.Description,
		Price:       input.Price,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("product_id", created.ID).Str("name", created.Name).Msg("product created")
	return created, nil
}

func (s *ProductService) GetProduct(ctx context.Context, actor domain.Actor, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *ProductService) ListProducts(ctx context.Context, actor domain.Actor, page, limit int) ([]*domain.Product, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.products.List(ctx, page, limit)
}

func (s *ProductService) UpdateProduct(ctx context.Context, actor domain.Actor, id string, input ports.UpdateProductInput) (*domain.Product, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Type != nil {
		product.Type = *input.Type
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	return s.products.Update(ctx, product)
}

// DeleteProduct removes a catalog item. Existing client bindings are left
// dangling; analytics excludes them rather than failing.
func (s *ProductService) DeleteProduct(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}
