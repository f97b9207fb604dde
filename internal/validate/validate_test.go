package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"catalogd/internal/config"
	"catalogd/internal/validate"
)

func fields(vs []validate.Violation) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Field
	}
	return out
}

func TestProduct(t *testing.T) {
	ok := validate.ProductInput{
		Name: "Widget", Description: "desc", Price: "10000", Currency: "IDR", Slug: "widget",
	}

	tests := []struct {
		name   string
		mutate func(*validate.ProductInput)
		fields []string
	}{
		{"valid", func(in *validate.ProductInput) {}, nil},
		{"missing name", func(in *validate.ProductInput) { in.Name = "  " }, []string{"name"}},
		{"missing price", func(in *validate.ProductInput) { in.Price = "" }, []string{"price"}},
		{"price not integer", func(in *validate.ProductInput) { in.Price = "10.50" }, []string{"price"}},
		{"negative price", func(in *validate.ProductInput) { in.Price = "-1" }, []string{"price"}},
		{"zero price ok", func(in *validate.ProductInput) { in.Price = "0" }, nil},
		{"missing currency", func(in *validate.ProductInput) { in.Currency = "" }, []string{"currency"}},
		{"missing description", func(in *validate.ProductInput) { in.Description = "" }, []string{"description"}},
		{"bad slug", func(in *validate.ProductInput) { in.Slug = "Widget One" }, []string{"slug"}},
		{"empty slug", func(in *validate.ProductInput) { in.Slug = "" }, []string{"slug"}},
		{
			"collects everything",
			func(in *validate.ProductInput) { *in = validate.ProductInput{} },
			[]string{"name", "price", "currency", "description", "slug"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := ok
			tc.mutate(&in)
			got := validate.Product(in)
			require.Equal(t, tc.fields, fields(got))
		})
	}
}

func TestImageCount(t *testing.T) {
	limits := config.DefaultImageLimits()

	tests := []struct {
		name                        string
		current, toDelete, uploaded int
		wantViolation               bool
	}{
		{"new product with one image", 0, 0, 1, false},
		{"new product with none", 0, 0, 0, true},
		{"delete all without replacement", 3, 3, 0, true},
		{"swap keeps count in range", 2, 1, 2, false},
		{"exactly max", 0, 0, 10, false},
		{"over max", 9, 0, 2, true},
		{"over max on new product", 0, 0, 11, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := validate.ImageCount(tc.current, tc.toDelete, tc.uploaded, limits)
			require.Equal(t, tc.wantViolation, v != nil)
		})
	}
}

func TestTagName(t *testing.T) {
	require.Nil(t, validate.TagName("summer-sale"))
	require.NotNil(t, validate.TagName(""))
	require.NotNil(t, validate.TagName("tag with space"))
	require.NotNil(t, validate.TagName("tag2"))

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	require.NotNil(t, validate.TagName(string(long)))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "widget", validate.Slugify("Widget"))
	require.Equal(t, "super-widget-2000", validate.Slugify("  Super Widget 2000! "))
	require.Equal(t, "a-b", validate.Slugify("A__B"))
	require.Equal(t, "", validate.Slugify("!!!"))
}
