package service

import (
	"slices"
	"strings"

	"foodway/internal/repository"
	"foodway/pkg/pagination"
)

// ListQuery carries the pagination and ordering parameters shared by every list endpoint.
type ListQuery struct {
	Page      int    `form:"page" json:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" json:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by" json:"sort_by"`
	SortOrder string `form:"sort_order" json:"sort_order" binding:"omitempty,oneof=asc desc"`
}

func (q ListQuery) params(defaultLimit int) pagination.Params {
	return pagination.New(q.Page, q.Limit, defaultLimit)
}

// sort maps the query onto a repository sort. Fields outside allowed fall back to
// the repository default.
func (q ListQuery) sort(allowed ...string) repository.Sort {
	s := repository.Sort{Desc: strings.EqualFold(q.SortOrder, "desc")}
	if slices.Contains(allowed, q.SortBy) {
		s.Field = q.SortBy
	}
	return s
}

func pageOf(p pagination.Params) repository.Page {
	return repository.Page{Offset: p.Offset, Limit: p.Limit}
}

// ListResult is a page of items plus its pagination block.
type ListResult[T any] struct {
	Items      []T
	Pagination pagination.Meta
}

func boolPtr(b bool) *bool { return &b }
