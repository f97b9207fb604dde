package domain

import "database/sql"

type Product struct {
	ID          int64          `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	PriceAmount int64          `db:"price_amount" json:"price_amount"` // minor units
	Currency    string         `db:"currency" json:"currency"`
	Slug        string         `db:"slug" json:"slug"`
	Status      string         `db:"status" json:"status"` // active | inactive
	CreatedAt   string         `db:"created_at" json:"created_at"`
	UpdatedAt   sql.NullString `db:"updated_at" json:"updated_at"`
	DeletedAt   sql.NullString `db:"deleted_at" json:"deleted_at"`
}

type ProductImage struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Path      string `db:"path" json:"path"` // relative to the media root
	CreatedAt string `db:"created_at" json:"created_at"`
}

type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"` // normalized: trimmed, lower-cased
}

type AdminActivityEntry struct {
	ID        int64          `db:"id" json:"id"`
	AdminID   string         `db:"admin_id" json:"admin_id"`
	Action    string         `db:"action" json:"action"`
	TableName sql.NullString `db:"table_name" json:"table_name"`
	RecordID  sql.NullInt64  `db:"record_id" json:"record_id"`
	Detail    sql.NullString `db:"detail" json:"detail"`
	CreatedAt string         `db:"created_at" json:"created_at"`
}

type Admin struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
}

// MutationResult is what every catalog mutation returns to its caller.
// Message is always safe to show; internals stay in the log.
type MutationResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ProductID int64  `json:"product_id,omitempty"`
}
