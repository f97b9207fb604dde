package services

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// LinkCategory upserts the single category row of a product. The unique
// product_id key guarantees at most one row per product; linking again
// replaces the previous category.
func LinkCategory(ext sqlx.Ext, productID, categoryID int64) error {
	if categoryID <= 0 {
		return ErrInvalidCategory
	}
	_, err := ext.Exec(`
	  INSERT INTO product_categories(product_id, category_id)
	  VALUES(?, ?)
	  ON CONFLICT(product_id) DO UPDATE SET category_id = excluded.category_id
	`, productID, categoryID)
	if err != nil {
		return fmt.Errorf("link category: %w", err)
	}
	return nil
}
