package validate

import (
	"regexp"
	"strconv"
	"strings"

	"catalogd/internal/config"
)

var (
	reSlug    = regexp.MustCompile(`^[a-z0-9-]+$`)
	reTagName = regexp.MustCompile(`^[A-Za-z-]+$`)
	reSlugGap = regexp.MustCompile(`[^a-z0-9]+`)
)

// Violation is a single failed check on a proposed product record.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ProductInput carries the raw (pre-parse) field values of a create/update
// request. Price stays a string here so "missing" and "not an integer" are
// distinct violations.
type ProductInput struct {
	Name        string
	Description string
	Price       string
	Currency    string
	Slug        string
}

// Product collects every violation; it never short-circuits.
func Product(in ProductInput) []Violation {
	var out []Violation

	if strings.TrimSpace(in.Name) == "" {
		out = append(out, Violation{"name", "name is required"})
	}
	price := strings.TrimSpace(in.Price)
	if price == "" {
		out = append(out, Violation{"price", "price is required"})
	} else if n, err := strconv.ParseInt(price, 10, 64); err != nil {
		out = append(out, Violation{"price", "price must be an integer amount in minor units"})
	} else if n < 0 {
		out = append(out, Violation{"price", "price must not be negative"})
	}
	if strings.TrimSpace(in.Currency) == "" {
		out = append(out, Violation{"currency", "currency is required"})
	}
	if strings.TrimSpace(in.Description) == "" {
		out = append(out, Violation{"description", "description is required"})
	}
	if !reSlug.MatchString(in.Slug) {
		out = append(out, Violation{"slug", "slug may only contain lowercase letters, digits and hyphens"})
	}

	return out
}

// ImageCount checks the effective image count a mutation would leave behind:
// (current - deleted) + uploaded, bounded by the configured limits.
func ImageCount(current, toDelete, uploaded int, limits config.ImageLimits) *Violation {
	effective := current - toDelete + uploaded
	if effective < limits.MinCount {
		return &Violation{"images", "a product needs at least " + strconv.Itoa(limits.MinCount) + " image"}
	}
	if effective > limits.MaxCount {
		return &Violation{"images", "a product may have at most " + strconv.Itoa(limits.MaxCount) + " images"}
	}
	return nil
}

// TagName validates names going through the bulk tag entry point. The batch
// resolver used during product mutations is laxer on purpose.
func TagName(name string) *Violation {
	if name == "" {
		return &Violation{"tag", "tag name is required"}
	}
	if len(name) > 255 {
		return &Violation{"tag", "tag name too long (max 255)"}
	}
	if !reTagName.MatchString(name) {
		return &Violation{"tag", "tag name may only contain letters and hyphens"}
	}
	return nil
}

// Slugify derives a slug from a display name for callers that did not supply
// one. Output always passes the slug check unless the name has no usable runes.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = reSlugGap.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
