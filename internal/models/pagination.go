package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Paginate slices items for the 1-based page. Out of range pages yield an empty slice.
func Paginate[T any](items []T, page, pageSize int) ([]T, *Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	meta := &Pagination{Page: page, PageSize: pageSize, TotalCount: len(items)}
	pages := (len(items) + pageSize - 1) / pageSize
	if page-1 >= pages {
		return []T{}, meta
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], meta
}
