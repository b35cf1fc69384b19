package model

import "time"

const (
	PointPositive = "positive"
	PointNegative = "negative"
)

func ValidPointType(t string) bool {
	return t == PointPositive || t == PointNegative
}

type Point struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	MemberName  string    `json:"member_name"`
	PointType   string    `json:"point_type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Pagination describes a page of a list response.
type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewPagination computes page counts for a total row count.
func NewPagination(page, perPage, total int) Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1 && total > 0,
	}
}
