package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"catalogd/internal/validate"
)

// TagResolver maps tag names to ids, creating rows on first use. Methods take
// an sqlx.Ext so they run equally inside an open transaction or directly on
// the database.
type TagResolver struct{}

func NewTagResolver() *TagResolver { return &TagResolver{} }

// Normalize trims and lower-cases a tag name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveOrCreate returns the tag id for every usable name, inserting tags
// that do not exist yet. Empty names are skipped, duplicates within the batch
// collapse to one lookup.
//
// The lookup-then-insert is racy against a concurrent request inserting the
// same name; the UNIQUE(name) index decides the winner and the loser re-reads
// the id instead of surfacing the constraint error.
func (t *TagResolver) ResolveOrCreate(ext sqlx.Ext, names []string) ([]int64, error) {
	seen := make(map[string]bool, len(names))
	ids := make([]int64, 0, len(names))

	for _, raw := range names {
		name := Normalize(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		id, err := t.lookup(ext, name)
		if err == nil {
			ids = append(ids, id)
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tag lookup %q: %w", name, err)
		}

		res, err := ext.Exec(`INSERT INTO tags(name) VALUES(?)`, name)
		if err != nil {
			if !isUniqueViolation(err) {
				return nil, fmt.Errorf("tag insert %q: %w", name, err)
			}
			// Lost the race: another request created it between our lookup
			// and insert. Exactly one re-lookup.
			id, err = t.lookup(ext, name)
			if err != nil {
				return nil, fmt.Errorf("tag re-lookup %q: %w", name, err)
			}
			ids = append(ids, id)
			continue
		}
		id, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("tag insert id %q: %w", name, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (t *TagResolver) lookup(ext sqlx.Ext, name string) (int64, error) {
	var id int64
	err := sqlx.Get(ext, &id, `SELECT id FROM tags WHERE name = ?`, name)
	return id, err
}

// BulkCreateResult reports the outcome of a bulk tag creation: names that were
// inserted, names that already existed (informational, not failures), and
// names that failed the strict format check.
type BulkCreateResult struct {
	Created    []string             `json:"created"`
	Existing   []string             `json:"existing"`
	Violations []validate.Violation `json:"violations,omitempty"`
}

// BulkCreate is the administrative entry point for creating tags ahead of
// use. Unlike ResolveOrCreate it enforces the strict tag-name format.
func (t *TagResolver) BulkCreate(db *sqlx.DB, names []string) (*BulkCreateResult, error) {
	out := &BulkCreateResult{}
	seen := make(map[string]bool, len(names))

	for _, raw := range names {
		name := Normalize(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if v := validate.TagName(name); v != nil {
			v.Message = name + ": " + v.Message
			out.Violations = append(out.Violations, *v)
			continue
		}

		if _, err := t.lookup(db, name); err == nil {
			out.Existing = append(out.Existing, name)
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		if _, err := db.Exec(`INSERT INTO tags(name) VALUES(?)`, name); err != nil {
			if isUniqueViolation(err) {
				out.Existing = append(out.Existing, name)
				continue
			}
			return nil, err
		}
		out.Created = append(out.Created, name)
	}

	return out, nil
}

// isUniqueViolation matches the sqlite unique-constraint error. modernc's
// driver reports it in the error text together with code 2067.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
