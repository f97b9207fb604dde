package services

import (
	"go.uber.org/zap"

	"catalogd/internal/logging"
	"catalogd/internal/repos"
	"catalogd/internal/sanitize"
)

// AuditLog records successful mutations. Writes happen after commit and are
// fire-and-forget: a failed audit insert is logged and swallowed, it never
// unwinds the mutation it describes.
type AuditLog struct {
	Repo *repos.AuditRepo
	San  *sanitize.Sanitizer
}

func NewAuditLog(repo *repos.AuditRepo, san *sanitize.Sanitizer) *AuditLog {
	return &AuditLog{Repo: repo, San: san}
}

func (a *AuditLog) Record(adminID, action, tableName string, recordID int64, detail string) {
	err := a.Repo.Insert(
		a.San.Text(adminID),
		a.San.Text(action),
		a.San.Text(tableName),
		recordID,
		a.San.Text(detail),
	)
	if err != nil {
		logging.L().Warn("audit write failed",
			zap.String("action", action),
			zap.Int64("record_id", recordID),
			zap.Error(err))
	}
}
