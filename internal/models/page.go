package models

import (
	"math"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection maps "asc"/"desc" (any case) to a Direction.
// Anything else yields Asc and false.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return Asc, true
	case "DESC":
		return Desc, true
	default:
		return Asc, false
	}
}

// SortOrder orders results by one property.
type SortOrder struct {
	Property  string    `json:"property"`
	Direction Direction `json:"direction"`
}

// Pageable selects one page of a result set.
// Page is zero-based. Sort is applied in order; the repository appends a
// unique tiebreaker so that consecutive pages never overlap.
type Pageable struct {
	Page int
	Size int
	Sort []SortOrder
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt
// instead of overflowing, so an absurd page lands past the end of any result.
func (p Pageable) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// Page is a bounded slice of a larger result set plus metadata.
// The JSON layout follows the page objects the original search UI consumes.
type Page[T any] struct {
	Content          []T         `json:"content"`
	TotalElements    int64       `json:"totalElements"`
	TotalPages       int         `json:"totalPages"`
	Number           int         `json:"number"`
	Size             int         `json:"size"`
	NumberOfElements int         `json:"numberOfElements"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	Empty            bool        `json:"empty"`
	Sort             []SortOrder `json:"sort"`
}

// NewPage builds a page from its content, the request that produced it and
// the total number of elements across all pages.
func NewPage[T any](content []T, p Pageable, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	sort := p.Sort
	if sort == nil {
		sort = []SortOrder{}
	}

	totalPages := 0
	if p.Size > 0 {
		totalPages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}

	return &Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Number:           p.Page,
		Size:             p.Size,
		NumberOfElements: len(content),
		First:            p.Page == 0,
		Last:             p.Page >= totalPages-1,
		Empty:            len(content) == 0,
		Sort:             sort,
	}
}

// SinglePage wraps content that is not paginated: one page holding everything.
func SinglePage[T any](content []T) *Page[T] {
	return NewPage(content, Pageable{Page: 0, Size: len(content)}, int64(len(content)))
}
