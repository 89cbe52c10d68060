package domain

// PaginationParams selects one page of a list query. Page is 1-based.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit is the number of rows of one page.
func (p PaginationParams) Limit() int {
	return max(p.PageSize, 0)
}

// Offset is the number of rows skipped before the page; pages below 1 read from the start.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// TotalPages is the number of pages needed for total rows; 0 when PageSize is not positive.
func (p PaginationParams) TotalPages(total int) int {
	if p.Limit() == 0 {
		return 0
	}
	return (total + p.Limit() - 1) / p.Limit()
}
