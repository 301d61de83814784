package domain

// PaginationParams holds offset-based pagination parameters for list queries.
// Page is zero-based: page 0 is the first page.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page.
// Formula: Page * PageSize, clamped to 0 for negative pages.
func (p PaginationParams) Offset() int {
	if p.Page < 0 {
		return 0
	}
	return p.Page * p.PageSize
}

// MemberPage is one page of members plus the paging state it was read with.
// A page past the end of the result set has an empty Members slice.
type MemberPage struct {
	Members  []*Member `json:"members"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Total    int       `json:"total"`
}
