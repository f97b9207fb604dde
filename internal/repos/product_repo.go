package repos

import (
	"catalogd/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// ProductDetail is a product with everything hanging off it, as the admin
// detail endpoint shows it.
type ProductDetail struct {
	domain.Product
	Images   []domain.ProductImage `json:"images"`
	Category *domain.Category      `json:"category,omitempty"`
	Tags     []domain.Tag          `json:"tags"`
}

func (r *ProductRepo) Get(id int64) (*ProductDetail, error) {
	var d ProductDetail
	if err := r.db.Get(&d.Product, `
	  SELECT id, name, description, price_amount, currency, slug, status,
	         created_at, updated_at, deleted_at
	  FROM products WHERE id = ?
	`, id); err != nil {
		return nil, err
	}

	if err := r.db.Select(&d.Images, `
	  SELECT id, product_id, path, created_at
	  FROM product_images WHERE product_id = ? ORDER BY id
	`, id); err != nil {
		return nil, err
	}

	var cat domain.Category
	err := r.db.Get(&cat, `
	  SELECT c.id, c.name
	  FROM product_categories pc JOIN categories c ON c.id = pc.category_id
	  WHERE pc.product_id = ?
	`, id)
	if err == nil {
		d.Category = &cat
	}

	if err := r.db.Select(&d.Tags, `
	  SELECT t.id, t.name
	  FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
	  WHERE pt.product_id = ? ORDER BY t.name
	`, id); err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *ProductRepo) List(limit, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT id, name, description, price_amount, currency, slug, status,
	         created_at, updated_at, deleted_at
	  FROM products
	  ORDER BY created_at DESC, id DESC
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

func (r *ProductRepo) ImagePaths(id int64) ([]string, error) {
	var out []string
	err := r.db.Select(&out, `SELECT path FROM product_images WHERE product_id = ? ORDER BY id`, id)
	return out, err
}

func (r *ProductRepo) CountImages(id int64) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM product_images WHERE product_id = ?`, id)
	return n, err
}
