package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"catalogd/internal/config"
	"catalogd/internal/domain"
	"catalogd/internal/logging"
	"catalogd/internal/sanitize"
	"catalogd/internal/storage"
	"catalogd/internal/validate"
)

// MutationEngine owns every write path of the catalog. It sequences the
// relational transaction, the non-transactional image writes, and the
// compensating cleanup when the two disagree.
//
// Ordering contract: image files are staged on disk before the transaction
// opens; the transaction is authoritative. If it rolls back, the engine
// deletes exactly the files this call wrote (tracked in a local list, never
// found by scanning). Hard delete inverts the order: rows commit first, files
// go afterwards best-effort, since a committed delete makes the files
// unreachable either way.
type MutationEngine struct {
	db     *sqlx.DB
	images *storage.ImageStore
	tags   *TagResolver
	audit  *AuditLog
	san    *sanitize.Sanitizer
	limits config.ImageLimits
}

func NewMutationEngine(db *sqlx.DB, images *storage.ImageStore, tags *TagResolver, audit *AuditLog, san *sanitize.Sanitizer, limits config.ImageLimits) *MutationEngine {
	return &MutationEngine{db: db, images: images, tags: tags, audit: audit, san: san, limits: limits}
}

// AddRequest carries a create call. Field values arrive raw (as strings) so
// validation owns the present/typed distinction.
type AddRequest struct {
	Name        string
	Description string
	Price       string
	Currency    string
	Slug        string
	Status      string
	CategoryID  int64
	Tags        []string
	Images      []*multipart.FileHeader
}

// UpdateRequest carries an edit call. TagsProvided distinguishes "replace the
// tag set with Tags" from "leave tags alone". DeleteImages lists relative
// paths of images to drop.
type UpdateRequest struct {
	ID           int64
	Name         string
	Description  string
	Price        string
	Currency     string
	Slug         string
	Status       string
	CategoryID   int64
	Tags         []string
	TagsProvided bool
	DeleteImages []string
	NewImages    []*multipart.FileHeader
}

// Add creates a product with its images, category link and tags in one
// transaction. Files are validated and stored first; any failure after that
// rolls the transaction back and deletes every file this call wrote.
func (e *MutationEngine) Add(adminID string, req AddRequest) domain.MutationResult {
	violations := validate.Product(validate.ProductInput{
		Name: req.Name, Description: req.Description, Price: req.Price,
		Currency: req.Currency, Slug: req.Slug,
	})
	if v := validate.ImageCount(0, 0, len(req.Images), e.limits); v != nil {
		violations = append(violations, *v)
	}
	if len(violations) > 0 {
		return failValidation(violations)
	}

	// Validate every upload before writing anything.
	validated := make([]*storage.ValidatedImage, 0, len(req.Images))
	for i, fh := range req.Images {
		v, err := e.images.Validate(fh)
		if err != nil {
			return fail(fmt.Sprintf("image %d: %v", i+1, err))
		}
		validated = append(validated, v)
	}

	written := make([]string, 0, len(validated))
	for _, v := range validated {
		rel, err := e.images.Store(v)
		if err != nil {
			logging.L().Error("image store failed", zap.Error(err))
			e.cleanupFiles(written)
			return fail("could not store uploaded images")
		}
		written = append(written, rel)
	}

	productID, err := e.addTx(req, written)
	if err != nil {
		logging.L().Error("product add failed", zap.Error(err))
		e.cleanupFiles(written)
		return fail(failureMessage("create", err))
	}

	e.audit.Record(adminID, "add", "products", productID,
		fmt.Sprintf("created product %q with %d image(s)", req.Name, len(written)))
	return domain.MutationResult{Success: true, Message: "product created", ProductID: productID}
}

func (e *MutationEngine) addTx(req AddRequest, paths []string) (int64, error) {
	price, _ := strconv.ParseInt(strings.TrimSpace(req.Price), 10, 64)

	tx, err := e.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
	  INSERT INTO products(name, description, price_amount, currency, slug, status)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, e.san.Text(req.Name), e.san.Text(req.Description), price,
		strings.ToUpper(strings.TrimSpace(req.Currency)), req.Slug, normalizeStatus(req.Status))
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	productID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range paths {
		if _, err := tx.Exec(`INSERT INTO product_images(product_id, path) VALUES(?, ?)`, productID, p); err != nil {
			return 0, fmt.Errorf("insert image row: %w", err)
		}
	}

	if err := LinkCategory(tx, productID, req.CategoryID); err != nil {
		return 0, err
	}

	if len(req.Tags) > 0 {
		if err := e.replaceTags(tx, productID, req.Tags); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return productID, nil
}

// Update edits core fields and adjusts the image set, category and tags.
// New files are staged before the transaction; on failure only those new
// files are deleted, surviving images stay untouched.
func (e *MutationEngine) Update(adminID string, req UpdateRequest) domain.MutationResult {
	violations := validate.Product(validate.ProductInput{
		Name: req.Name, Description: req.Description, Price: req.Price,
		Currency: req.Currency, Slug: req.Slug,
	})

	current, toDelete, err := e.imageCounts(req.ID, req.DeleteImages)
	if err != nil {
		logging.L().Error("image count lookup failed", zap.Int64("product_id", req.ID), zap.Error(err))
		return fail("could not update product")
	}
	if v := validate.ImageCount(current, toDelete, len(req.NewImages), e.limits); v != nil {
		violations = append(violations, *v)
	}
	if len(violations) > 0 {
		return failValidation(violations)
	}

	validated := make([]*storage.ValidatedImage, 0, len(req.NewImages))
	for i, fh := range req.NewImages {
		v, err := e.images.Validate(fh)
		if err != nil {
			return fail(fmt.Sprintf("image %d: %v", i+1, err))
		}
		validated = append(validated, v)
	}

	written := make([]string, 0, len(validated))
	for _, v := range validated {
		rel, err := e.images.Store(v)
		if err != nil {
			logging.L().Error("image store failed", zap.Error(err))
			e.cleanupFiles(written)
			return fail("could not store uploaded images")
		}
		written = append(written, rel)
	}

	if err := e.updateTx(req, written); err != nil {
		logging.L().Error("product update failed", zap.Int64("product_id", req.ID), zap.Error(err))
		e.cleanupFiles(written)
		return fail(failureMessage("update", err))
	}

	e.audit.Record(adminID, "update", "products", req.ID,
		fmt.Sprintf("updated product %q (+%d/-%d images)", req.Name, len(written), toDelete))
	return domain.MutationResult{Success: true, Message: "product updated", ProductID: req.ID}
}

func (e *MutationEngine) updateTx(req UpdateRequest, newPaths []string) error {
	price, _ := strconv.ParseInt(strings.TrimSpace(req.Price), 10, 64)

	tx, err := e.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
	  UPDATE products
	  SET name = ?, description = ?, price_amount = ?, currency = ?, slug = ?,
	      status = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND deleted_at IS NULL
	`, e.san.Text(req.Name), e.san.Text(req.Description), price,
		strings.ToUpper(strings.TrimSpace(req.Currency)), req.Slug, normalizeStatus(req.Status), req.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	// Zero rows is reported as not-found even though an identical resubmission
	// lands here too; the two cases are not distinguished.
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	for _, p := range req.DeleteImages {
		res, err := tx.Exec(`DELETE FROM product_images WHERE product_id = ? AND path = ?`, req.ID, p)
		if err != nil {
			return fmt.Errorf("delete image row: %w", err)
		}
		// Zero rows means the path is not one of this product's images; its
		// file must stay, another product may own it.
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		// The file goes inside the transaction window; a later rollback
		// cannot restore it.
		if err := e.images.Delete(p); err != nil {
			return fmt.Errorf("delete image file: %w", err)
		}
	}

	for _, p := range newPaths {
		if _, err := tx.Exec(`INSERT INTO product_images(product_id, path) VALUES(?, ?)`, req.ID, p); err != nil {
			return fmt.Errorf("insert image row: %w", err)
		}
	}

	if err := LinkCategory(tx, req.ID, req.CategoryID); err != nil {
		return err
	}

	if req.TagsProvided {
		// Full replacement, not a diff: mapping row ids are not stable across
		// updates and nothing downstream depends on them.
		if _, err := tx.Exec(`DELETE FROM product_tags WHERE product_id = ?`, req.ID); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		if err := e.replaceTags(tx, req.ID, req.Tags); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes a product and everything attached to it. Rows commit first;
// image files are deleted afterwards best-effort, a failure there is logged
// but cannot invalidate the committed delete.
func (e *MutationEngine) Delete(adminID string, productID int64) domain.MutationResult {
	paths, err := e.deleteTx(productID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.L().Error("product delete failed", zap.Int64("product_id", productID), zap.Error(err))
		}
		return fail(failureMessage("delete", err))
	}

	for _, p := range paths {
		if err := e.images.Delete(p); err != nil {
			logging.L().Warn("post-commit image cleanup failed",
				zap.Int64("product_id", productID), zap.String("path", p), zap.Error(err))
		}
	}

	e.audit.Record(adminID, "delete", "products", productID,
		fmt.Sprintf("deleted product and %d image file(s)", len(paths)))
	return domain.MutationResult{Success: true, Message: "product deleted", ProductID: productID}
}

func (e *MutationEngine) deleteTx(productID int64) ([]string, error) {
	tx, err := e.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var paths []string
	if err := tx.Select(&paths, `SELECT path FROM product_images WHERE product_id = ?`, productID); err != nil {
		return nil, fmt.Errorf("read image paths: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM product_categories WHERE product_id = ?`, productID); err != nil {
		return nil, fmt.Errorf("delete category mapping: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM product_tags WHERE product_id = ?`, productID); err != nil {
		return nil, fmt.Errorf("delete tag mappings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM product_images WHERE product_id = ?`, productID); err != nil {
		return nil, fmt.Errorf("delete image rows: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM products WHERE id = ?`, productID)
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return paths, nil
}

// SoftDelete stamps the product as logically removed. Rows, mappings and
// files all stay; customer-facing queries are expected to filter on the
// timestamp themselves.
func (e *MutationEngine) SoftDelete(adminID string, productID int64) domain.MutationResult {
	res, err := e.db.Exec(`
	  UPDATE products SET deleted_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND deleted_at IS NULL
	`, productID)
	if err != nil {
		logging.L().Error("soft delete failed", zap.Int64("product_id", productID), zap.Error(err))
		return fail("could not remove product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fail("product not found")
	}

	e.audit.Record(adminID, "soft_delete", "products", productID, "")
	return domain.MutationResult{Success: true, Message: "product removed", ProductID: productID}
}

// BatchDelete removes products in a single multi-row statement. It is all or
// nothing: one failing row fails the whole batch. Image files are NOT cleaned
// up here — dependent rows cascade away, files stay on disk until an offline
// cleanup. Known gap, kept deliberately; see DESIGN.md.
func (e *MutationEngine) BatchDelete(adminID string, ids []int64) domain.MutationResult {
	if len(ids) == 0 {
		return fail("no products selected")
	}

	query, args, err := sqlx.In(`DELETE FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return fail("could not delete products")
	}
	res, err := e.db.Exec(query, args...)
	if err != nil {
		logging.L().Error("batch delete failed", zap.Int64s("ids", ids), zap.Error(err))
		return fail("could not delete products")
	}
	n, _ := res.RowsAffected()

	e.audit.Record(adminID, "batch_delete", "products", 0,
		fmt.Sprintf("deleted %d of %d requested product(s)", n, len(ids)))
	return domain.MutationResult{Success: true, Message: fmt.Sprintf("%d product(s) deleted", n)}
}

func (e *MutationEngine) replaceTags(tx *sqlx.Tx, productID int64, names []string) error {
	tagIDs, err := e.tags.ResolveOrCreate(tx, names)
	if err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(`INSERT INTO product_tags(product_id, tag_id) VALUES(?, ?)`, productID, tagID); err != nil {
			return fmt.Errorf("insert tag mapping: %w", err)
		}
	}
	return nil
}

// imageCounts returns the current image count and how many of the requested
// deletions actually match rows of this product. Bogus paths in the deletion
// list do not shrink the effective count.
func (e *MutationEngine) imageCounts(productID int64, deletePaths []string) (current, toDelete int, err error) {
	if err = e.db.Get(&current, `SELECT COUNT(*) FROM product_images WHERE product_id = ?`, productID); err != nil {
		return 0, 0, err
	}
	if len(deletePaths) == 0 {
		return current, 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM product_images WHERE product_id = ? AND path IN (?)`, productID, deletePaths)
	if err != nil {
		return 0, 0, err
	}
	if err = e.db.Get(&toDelete, query, args...); err != nil {
		return 0, 0, err
	}
	return current, toDelete, nil
}

func (e *MutationEngine) cleanupFiles(paths []string) {
	for _, p := range paths {
		if err := e.images.Delete(p); err != nil {
			logging.L().Warn("compensating file cleanup failed", zap.String("path", p), zap.Error(err))
		}
	}
}

func normalizeStatus(s string) string {
	if strings.TrimSpace(s) == "inactive" {
		return "inactive"
	}
	return "active"
}

func fail(msg string) domain.MutationResult {
	return domain.MutationResult{Success: false, Message: msg}
}

func failValidation(violations []validate.Violation) domain.MutationResult {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	return fail(strings.Join(msgs, "; "))
}

func failureMessage(op string, err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "product not found"
	case errors.Is(err, ErrInvalidCategory):
		return "invalid category"
	default:
		return "could not " + op + " product"
	}
}
