package service

import "storefront/internal/repository"

// PageInfo describes the window returned by a list operation.
type PageInfo struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

func pageInfo(page repository.Page, total int64) PageInfo {
	page = page.Normalize()
	return PageInfo{
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.HasMore(total),
	}
}
