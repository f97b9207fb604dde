package handlers

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"catalogd/internal/domain"
	"catalogd/internal/repos"
	"catalogd/internal/services"
	"catalogd/internal/validate"
)

// AdminHandler translates the admin HTTP surface into mutation-engine calls.
// It parses input and maps MutationResult to JSON; everything else is the
// engine's business.
type AdminHandler struct {
	DB     *sqlx.DB
	Engine *services.MutationEngine
	Tags   *services.TagResolver
	Audit  *repos.AuditRepo
}

// POST /admin/products
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "multipart form required"})
	}

	req := services.AddRequest{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
		Price:       formValue(form, "price"),
		Currency:    formValue(form, "currency"),
		Slug:        formValue(form, "slug"),
		Status:      formValue(form, "status"),
		CategoryID:  formInt64(form, "category_id"),
		Tags:        formList(form, "tags"),
		Images:      form.File["images"],
	}
	if req.Slug == "" {
		req.Slug = validate.Slugify(req.Name)
	}

	res := h.Engine.Add(actorID(c), req)
	return writeResult(c, res)
}

// POST /admin/products/:id
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid product id"})
	}
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "multipart form required"})
	}

	_, tagsProvided := form.Value["tags"]
	req := services.UpdateRequest{
		ID:           int64(id),
		Name:         formValue(form, "name"),
		Description:  formValue(form, "description"),
		Price:        formValue(form, "price"),
		Currency:     formValue(form, "currency"),
		Slug:         formValue(form, "slug"),
		Status:       formValue(form, "status"),
		CategoryID:   formInt64(form, "category_id"),
		Tags:         formList(form, "tags"),
		TagsProvided: tagsProvided,
		DeleteImages: form.Value["delete_images"],
		NewImages:    form.File["images"],
	}
	if req.Slug == "" {
		req.Slug = validate.Slugify(req.Name)
	}

	res := h.Engine.Update(actorID(c), req)
	return writeResult(c, res)
}

// POST /admin/products/:id/delete
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid product id"})
	}
	return writeResult(c, h.Engine.Delete(actorID(c), int64(id)))
}

// POST /admin/products/:id/soft-delete
func (h *AdminHandler) SoftDelete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid product id"})
	}
	return writeResult(c, h.Engine.SoftDelete(actorID(c), int64(id)))
}

// POST /admin/products/batch-delete
func (h *AdminHandler) BatchDelete(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	var raw []string
	if err == nil {
		raw = form.Value["ids"]
	} else {
		raw = strings.Split(c.FormValue("ids"), ",")
	}

	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil || n <= 0 {
				return c.Status(400).JSON(fiber.Map{"error": "invalid product id: " + part})
			}
			ids = append(ids, n)
		}
	}

	return writeResult(c, h.Engine.BatchDelete(actorID(c), ids))
}

// POST /admin/tags
func (h *AdminHandler) CreateTags(c *fiber.Ctx) error {
	var names []string
	if form, err := c.MultipartForm(); err == nil {
		names = formList(form, "names")
	} else {
		names = splitList([]string{c.FormValue("names")})
	}
	out, err := h.Tags.BulkCreate(h.DB, names)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not create tags"})
	}
	return c.JSON(out)
}

// GET /admin/activity
func (h *AdminHandler) Activity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	entries, err := h.Audit.ListLatest(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not load activity"})
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func writeResult(c *fiber.Ctx, res domain.MutationResult) error {
	status := fiber.StatusOK
	if !res.Success {
		status = fiber.StatusBadRequest
		if res.Message == "product not found" {
			status = fiber.StatusNotFound
		}
	}
	return c.Status(status).JSON(res)
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func formInt64(form *multipart.Form, key string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(formValue(form, key)), 10, 64)
	return n
}

// formList accepts either repeated fields or one comma-separated field.
func formList(form *multipart.Form, key string) []string {
	return splitList(form.Value[key])
}

func splitList(vs []string) []string {
	var out []string
	for _, v := range vs {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
