package types

import "strings"

// MaxPageSize bounds Page.Size.
const MaxPageSize = 100

// Page carries pagination and search parameters for listings.
type Page struct {
	Number int    `json:"page"`
	Size   int    `json:"page_size"`
	Search string `json:"search_query"`
}

// DefaultPage is the first page of ten with no search filter.
func DefaultPage() Page {
	return Page{Number: 1, Size: 10}
}

// Validate rejects page numbers or sizes below one and sizes above
// MaxPageSize.
func (p Page) Validate() error {
	if p.Number < 1 {
		return Invalid("page number must be at least 1")
	}
	if p.Size < 1 {
		return Invalid("page size must be at least 1")
	}
	if p.Size > MaxPageSize {
		return Invalid("page size must be at most %d", MaxPageSize)
	}
	return nil
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// LikePattern returns a case-folded LIKE pattern matching Search as a
// substring. LIKE metacharacters in Search are escaped with a backslash, so
// the query must use ESCAPE '\'.
func (p Page) LikePattern() string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(p.Search)) + "%"
}
