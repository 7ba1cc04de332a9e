package repository

import "strings"

const (
	// DefaultLimit is used when a list request does not specify a page size.
	DefaultLimit = 20
	// MaxLimit caps the page size of every list query.
	MaxLimit = 100
)

// Page selects a window of a result set.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// HasMore reports whether rows exist past this page.
func (p Page) HasMore(total int64) bool {
	return int64(p.Offset+p.Limit) < total
}

// likePattern builds a lower-cased LIKE pattern with wildcards escaped.
func likePattern(search string) string {
	s := strings.ToLower(strings.TrimSpace(search))
	s = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
	return "%" + s + "%"
}
