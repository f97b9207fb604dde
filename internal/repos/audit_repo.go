package repos

import (
	"catalogd/internal/domain"

	"github.com/jmoiron/sqlx"
)

type AuditRepo struct{ db *sqlx.DB }

func NewAuditRepo(db *sqlx.DB) *AuditRepo { return &AuditRepo{db: db} }

// Insert appends one activity row. The log is append-only; there is no update
// or delete path.
func (r *AuditRepo) Insert(adminID, action, tableName string, recordID int64, detail string) error {
	_, err := r.db.Exec(`
	  INSERT INTO admin_activity_log(admin_id, action, table_name, record_id, detail)
	  VALUES(?, ?, NULLIF(?,''), NULLIF(?,0), NULLIF(?,''))
	`, adminID, action, tableName, recordID, detail)
	return err
}

func (r *AuditRepo) ListLatest(limit int) ([]domain.AdminActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.AdminActivityEntry
	err := r.db.Select(&out, `
	  SELECT id, admin_id, action, table_name, record_id, detail, created_at
	  FROM admin_activity_log
	  ORDER BY id DESC
	  LIMIT ?
	`, limit)
	return out, err
}
