package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"catalogd/internal/repos"
)

// ProductHandler serves the read side of the admin surface.
type ProductHandler struct {
	Products   *repos.ProductRepo
	Categories *repos.CategoryRepo
}

// GET /admin/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	products, err := h.Products.List(limit, offset)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not load products"})
	}
	return c.JSON(fiber.Map{"products": products})
}

// GET /admin/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid product id"})
	}
	d, err := h.Products.Get(int64(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "product not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "could not load product"})
	}
	return c.JSON(d)
}

// GET /admin/categories
func (h *ProductHandler) ListCategories(c *fiber.Ctx) error {
	cats, err := h.Categories.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not load categories"})
	}
	return c.JSON(fiber.Map{"categories": cats})
}
