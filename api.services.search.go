package main

import "strings"

// BookFilter holds the listing predicates and the page window.
// Empty predicates match every book.
type BookFilter struct {
	Genre  string
	Author string
	Search string
	Limit  int
	Offset int
}

// Pagination describes the page returned by a listing.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Match reports whether the book satisfies all predicates of the filter.
// The search term is looked up in the title and the description.
func (f BookFilter) Match(b Book) bool {
	if f.Genre != "" && !containsFold(b.Genre, f.Genre) {
		return false
	}
	if f.Author != "" && !containsFold(b.Author, f.Author) {
		return false
	}
	if f.Search != "" && !containsFold(b.Title, f.Search) && !containsFold(b.Description, f.Search) {
		return false
	}
	return true
}

// FilterBooks keeps the books matching the filter then slices the page
// described by its offset and limit. The listing order is preserved.
func FilterBooks(books []Book, f BookFilter) ([]Book, Pagination) {
	matched := make([]Book, 0, len(books))
	for _, b := range books {
		if f.Match(b) {
			matched = append(matched, b)
		}
	}

	total := len(matched)
	start := f.Offset
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}

	return matched[start:end], Pagination{
		Total:   total,
		Limit:   f.Limit,
		Offset:  f.Offset,
		HasMore: f.Offset+f.Limit < total,
	}
}
