package handlers

import (
	"github.com/jmoiron/sqlx"

	"catalogd/internal/config"
	"catalogd/internal/repos"
	"catalogd/internal/sanitize"
	"catalogd/internal/services"
	"catalogd/internal/storage"
)

type Deps struct {
	ProductHandler *ProductHandler
	AdminHandler   *AdminHandler
	AdminRepo      *repos.AdminRepo
}

func NewDeps(db *sqlx.DB, cfg config.Config) (*Deps, error) {
	images, err := storage.NewImageStore(cfg.MediaDir, cfg.Images)
	if err != nil {
		return nil, err
	}

	prodRepo := repos.NewProductRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	auditRepo := repos.NewAuditRepo(db)
	adminRepo := repos.NewAdminRepo(db)

	san := sanitize.New()
	tags := services.NewTagResolver()
	audit := services.NewAuditLog(auditRepo, san)
	engine := services.NewMutationEngine(db, images, tags, audit, san, cfg.Images)

	return &Deps{
		ProductHandler: &ProductHandler{Products: prodRepo, Categories: catRepo},
		AdminHandler: &AdminHandler{
			DB:     db,
			Engine: engine,
			Tags:   tags,
			Audit:  auditRepo,
		},
		AdminRepo: adminRepo,
	}, nil
}
