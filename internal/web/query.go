package web

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/ymatsuda/kiroku/internal/services"
)

// Paging and sorting defaults for the listing page. Values outside the
// allow-lists silently fall back to the defaults rather than rejecting the
// request.
const (
	defaultPerPage = 5
	defaultSortBy  = "date"
	defaultOrder   = "desc"
)

var perPageChoices = map[int]bool{5: true, 10: true, 20: true}

var sortByChoices = map[string]bool{
	"date":       true,
	"id":         true,
	"created_at": true,
}

// ListQuery is the sanitized form of the listing request parameters. Build it
// with parseListQuery; every field is already clamped or allow-listed.
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	Order   string
}

// parseListQuery sanitizes raw query parameters. Absent or invalid values
// never fail: page clamps to >= 1 and everything else falls back to its
// default.
func parseListQuery(q url.Values) ListQuery {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || !perPageChoices[perPage] {
		perPage = defaultPerPage
	}

	sortBy := q.Get("sort")
	if !sortByChoices[sortBy] {
		sortBy = defaultSortBy
	}

	order := q.Get("order")
	if order != "asc" && order != "desc" {
		order = defaultOrder
	}

	return ListQuery{
		Page:    page,
		PerPage: perPage,
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  sortBy,
		Order:   order,
	}
}

// Pagination describes one page of a filtered entry set. PrevNum and NextNum
// are zero when HasPrev/HasNext are false; StartIndex and EndIndex are the
// 1-based display bounds, both zero for an empty result set.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
	PrevNum    int  `json:"prev_num,omitempty"`
	NextNum    int  `json:"next_num,omitempty"`
	StartIndex int  `json:"start_index"`
	EndIndex   int  `json:"end_index"`
}

// emptyPagination returns the well-formed pagination object for zero results:
// a single page with no neighbors and zeroed display bounds.
func emptyPagination(q ListQuery) Pagination {
	return Pagination{Page: 1, PerPage: q.PerPage, TotalPages: 1}
}

// loadEntryPage turns a sanitized ListQuery into a page of entries plus
// self-consistent pagination metadata. A page number beyond the last page
// snaps back to the last page instead of erroring or returning an
// unexpectedly empty slice.
func loadEntryPage(ctx context.Context, repo services.EntryRepository, q ListQuery) ([]services.Entry, Pagination, error) {
	filter := services.EntryFilter{Search: q.Search}

	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}

	// total_pages is never zero so page arithmetic stays well-defined.
	totalPages := 1
	if total > 0 {
		totalPages = (total + q.PerPage - 1) / q.PerPage
	}

	page := q.Page
	if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * q.PerPage

	entries, err := repo.List(ctx, filter, services.ListOptions{
		Limit:     q.PerPage,
		Offset:    offset,
		SortBy:    q.SortBy,
		SortOrder: q.Order,
	})
	if err != nil {
		return nil, Pagination{}, err
	}

	pg := Pagination{
		Page:       page,
		PerPage:    q.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	if pg.HasPrev {
		pg.PrevNum = page - 1
	}
	if pg.HasNext {
		pg.NextNum = page + 1
	}
	if total > 0 {
		pg.StartIndex = offset + 1
		pg.EndIndex = min(offset+q.PerPage, total)
	}

	return entries, pg, nil
}

// listURL builds the listing URL for the given page, preserving the rest of
// the query.
func listURL(q ListQuery, page int) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	v.Set("sort", q.SortBy)
	v.Set("order", q.Order)
	return "/?" + v.Encode()
}
