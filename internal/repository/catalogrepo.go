package repository

import (
	"context"

	"github.com/and161185/shopkeeper/internal/model"
)

// CatalogRepository provides CRUD access to products and categories. The
// checkout orchestrator reads authoritative names and prices through it.
type CatalogRepository interface {
	// GetProduct loads a single product by id.
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	// ListProducts returns products, optionally filtered by category
	// (categoryID == 0 means all).
	ListProducts(ctx context.Context, categoryID int64) ([]model.Product, error)
	// InsertProduct stores a new product and sets its generated id.
	InsertProduct(ctx context.Context, p *model.Product) error
	// UpdateProduct rewrites mutable product fields.
	UpdateProduct(ctx context.Context, p *model.Product) error
	// DeleteProduct removes a product by id.
	DeleteProduct(ctx context.Context, id int64) error

	// ListCategories returns all categories.
	ListCategories(ctx context.Context) ([]model.Category, error)
	// InsertCategory stores a new category and sets its generated id.
	InsertCategory(ctx context.Context, c *model.Category) error
	// DeleteCategory removes an empty category; errs.ErrConflict when
	// products still reference it.
	DeleteCategory(ctx context.Context, id int64) error
}
