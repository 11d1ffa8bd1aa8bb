package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
)

// CatalogRepo implements CatalogRepository using PostgreSQL.
type CatalogRepo struct{ db *DB }

// NewCatalogRepo constructs a catalog repository.
func NewCatalogRepo(db *DB) *CatalogRepo { return &CatalogRepo{db: db} }

// GetProduct loads a single product by id.
func (r *CatalogRepo) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	const q = `
SELECT id, category_id, name, price_cents, image_path, created_at, updated_at
FROM products WHERE id=$1`
	var p model.Product
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.PriceCents, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListProducts returns products, optionally filtered by category.
func (r *CatalogRepo) ListProducts(ctx context.Context, categoryID int64) ([]model.Product, error) {
	const q = `
SELECT id, category_id, name, price_cents, image_path, created_at, updated_at
FROM products
WHERE $1 = 0 OR category_id = $1
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.PriceCents, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertProduct stores a new product and fills in the generated id.
func (r *CatalogRepo) InsertProduct(ctx context.Context, p *model.Product) error {
	const q = `
INSERT INTO products (category_id, name, price_cents, image_path)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := r.db.Pool.QueryRow(ctx, q, p.CategoryID, p.Name, p.PriceCents, p.ImagePath).Scan(&p.ID)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// UpdateProduct rewrites mutable product fields.
func (r *CatalogRepo) UpdateProduct(ctx context.Context, p *model.Product) error {
	const q = `
UPDATE products
SET category_id=$2, name=$3, price_cents=$4, image_path=$5, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, p.ID, p.CategoryID, p.Name, p.PriceCents, p.ImagePath)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product by id.
func (r *CatalogRepo) DeleteProduct(ctx context.Context, id int64) error {
	const q = `DELETE FROM products WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListCategories returns all categories.
func (r *CatalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, name, created_at FROM categories ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCategory stores a new category and fills in the generated id.
func (r *CatalogRepo) InsertCategory(ctx context.Context, c *model.Category) error {
	const q = `INSERT INTO categories (name) VALUES ($1) RETURNING id`
	err := r.db.Pool.QueryRow(ctx, q, c.Name).Scan(&c.ID)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// DeleteCategory removes an empty category. The products.category_id FK is
// RESTRICT, so a category with products fails with a FK violation.
func (r *CatalogRepo) DeleteCategory(ctx context.Context, id int64) error {
	const q = `DELETE FROM categories WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
