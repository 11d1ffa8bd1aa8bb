package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
	"github.com/and161185/shopkeeper/internal/repository"
)

// CatalogService provides validated product and category management. Writes
// are admin-only; the gate lives in the HTTP layer.
type CatalogService interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context, categoryID int64) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type CatalogServiceImpl struct {
	repo repository.CatalogRepository
}

// NewCatalogService constructs a catalog service.
func NewCatalogService(repo repository.CatalogRepository) *CatalogServiceImpl {
	return &CatalogServiceImpl{repo: repo}
}

func (s *CatalogServiceImpl) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", errs.ErrValidation)
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogServiceImpl) ListProducts(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return s.repo.ListProducts(ctx, categoryID)
}

func (s *CatalogServiceImpl) CreateProduct(ctx context.Context, p *model.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.repo.InsertProduct(ctx, p)
}

func (s *CatalogServiceImpl) UpdateProduct(ctx context.Context, p *model.Product) error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: invalid product id", errs.ErrValidation)
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, p)
}

func (s *CatalogServiceImpl) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", errs.ErrValidation)
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *CatalogServiceImpl) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogServiceImpl) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty category name", errs.ErrValidation)
	}
	c := &model.Category{Name: name}
	if err := s.repo.InsertCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes an empty category; the repository reports
// errs.ErrConflict when products still reference it.
func (s *CatalogServiceImpl) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", errs.ErrValidation)
	}
	return s.repo.DeleteCategory(ctx, id)
}

func validateProduct(p *model.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty product name", errs.ErrValidation)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: negative price", errs.ErrValidation)
	}
	if p.CategoryID <= 0 {
		return fmt.Errorf("%w: invalid category id", errs.ErrValidation)
	}
	return nil
}
