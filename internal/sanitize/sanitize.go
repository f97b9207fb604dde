package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from user-supplied text before it is persisted or
// echoed back. Strict policy: no elements survive.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text returns s with all markup removed and surrounding whitespace trimmed.
func (s *Sanitizer) Text(in string) string {
	return strings.TrimSpace(s.policy.Sanitize(in))
}
