package response

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

// NewPagination derives the page envelope from a total count and the
// number of items actually returned for the page.
func NewPagination(page, pageSize, returned int, total int64) *Pagination {
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	from := 0
	to := 0
	if returned > 0 {
		from = (page-1)*pageSize + 1
		to = from + returned - 1
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(page) < totalPages,
		From:       from,
		To:         to,
	}
}
