package main

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"catalogd/internal/config"
	"catalogd/internal/http/handlers"
	"catalogd/internal/logging"
	"catalogd/internal/repos"
)

func main() {
	cfg := config.Load()

	if err := logging.Init(cfg.LogLevel, cfg.Env); err != nil {
		log.Fatal(err)
	}
	defer logging.Sync()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	deps, err := handlers.NewDeps(db, cfg)
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logging.L().Error("server error", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Something went wrong. Please try again.",
			})
		},
	})
	// Body guard: limits plus multipart overhead for a full image set.
	app.Server().MaxRequestBodySize = int(cfg.Images.MaxBytes)*cfg.Images.MaxCount + 1<<20

	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/media/")
		},
	}))

	// Guarded media serving (no traversal, no absolute paths).
	mediaDir := cfg.MediaDir
	if abs, err := filepath.Abs(mediaDir); err == nil {
		mediaDir = abs
	}
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		lower := strings.ToLower(path)
		if strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.Contains(lower, "\x00") {
			logging.L().Warn("media traversal blocked", zap.String("path", path), zap.String("ip", c.IP()))
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			logging.L().Warn("media traversal blocked", zap.String("path", path), zap.String("ip", c.IP()))
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	admin := app.Group("/admin", handlers.RequireAdmin(deps.AdminRepo))
	admin.Get("/products", deps.ProductHandler.List)
	admin.Get("/products/:id", deps.ProductHandler.Detail)
	admin.Get("/categories", deps.ProductHandler.ListCategories)
	admin.Post("/products", deps.AdminHandler.Create)
	admin.Post("/products/batch-delete", deps.AdminHandler.BatchDelete)
	admin.Post("/products/:id", deps.AdminHandler.Update)
	admin.Post("/products/:id/delete", deps.AdminHandler.Delete)
	admin.Post("/products/:id/soft-delete", deps.AdminHandler.SoftDelete)
	admin.Post("/tags", deps.AdminHandler.CreateTags)
	admin.Get("/activity", deps.AdminHandler.Activity)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	log.Fatal(app.Listen(":" + cfg.Port))
}
