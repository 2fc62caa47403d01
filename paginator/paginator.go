package paginator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// LimitPosts is the page size used by every post listing.
const LimitPosts = 10

var (
	ErrInvalidPage = errors.New("that page number is not an integer")
	ErrEmptyPage   = errors.New("that page contains no results")
)

// Paginator computes page boundaries for count items split into pages of perPage.
type Paginator struct {
	count   int64
	perPage int
}

func New(count int64, perPage int) Paginator {
	if perPage < 1 {
		perPage = 1
	}
	if count < 0 {
		count = 0
	}
	return Paginator{count: count, perPage: perPage}
}

func (p Paginator) Count() int64 {
	return p.count
}

func (p Paginator) PerPage() int {
	return p.perPage
}

// NumPages is never below 1: an empty list still has one empty page.
func (p Paginator) NumPages() int {
	if p.count == 0 {
		return 1
	}
	per := int64(p.perPage)
	return int((p.count + per - 1) / per)
}

// Validate checks n strictly and returns ErrEmptyPage for pages outside 1..NumPages.
func (p Paginator) Validate(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("page %d is less than 1: %w", n, ErrEmptyPage)
	}
	if n > p.NumPages() {
		return 0, fmt.Errorf("page %d is past the last page %d: %w", n, p.NumPages(), ErrEmptyPage)
	}
	return n, nil
}

// ParseNumber parses a raw page query value. An empty value means page 1.
func ParseNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidPage)
	}
	return n, nil
}

// Clamp turns any raw value into a valid page number: garbage gives 1,
// numbers below 1 give 1 and numbers past the end give the last page.
func (p Paginator) Clamp(raw string) int {
	n, err := ParseNumber(raw)
	if err != nil || n < 1 {
		return 1
	}
	if last := p.NumPages(); n > last {
		return last
	}
	return n
}

// Meta describes page n. n must already be valid.
func (p Paginator) Meta(n int) Meta {
	last := p.NumPages()
	m := Meta{
		Number:      n,
		NumPages:    last,
		Count:       p.count,
		PerPage:     p.perPage,
		HasNext:     n < last,
		HasPrevious: n > 1,
	}
	if m.HasNext {
		m.NextNumber = n + 1
	}
	if m.HasPrevious {
		m.PreviousNumber = n - 1
	}
	if p.count > 0 {
		m.StartIndex = int64(p.offset(n)) + 1
		m.EndIndex = min(int64(p.offset(n)+p.perPage), p.count)
	}
	return m
}

func (p Paginator) offset(n int) int {
	return (n - 1) * p.perPage
}

type Meta struct {
	Number         int   `json:"number"`
	NumPages       int   `json:"numPages"`
	Count          int64 `json:"count"`
	PerPage        int   `json:"perPage"`
	HasNext        bool  `json:"hasNext"`
	HasPrevious    bool  `json:"hasPrevious"`
	NextNumber     int   `json:"nextPageNumber,omitempty"`
	PreviousNumber int   `json:"previousPageNumber,omitempty"`
	StartIndex     int64 `json:"startIndex"`
	EndIndex       int64 `json:"endIndex"`
}

type Page[T any] struct {
	Meta
	Items []T `json:"objectList"`
}

func (pg *Page[T]) Len() int {
	return len(pg.Items)
}

// Slice pages an in-memory, already ordered slice. Out of range numbers are clamped.
func Slice[T any](items []T, raw string, perPage int) *Page[T] {
	p := New(int64(len(items)), perPage)
	n := p.Clamp(raw)
	start := min(p.offset(n), len(items))
	end := min(start+p.perPage, len(items))
	page := make([]T, end-start)
	copy(page, items[start:end])
	return &Page[T]{Meta: p.Meta(n), Items: page}
}

// Paginate counts the rows matched by query, clamps raw to a valid page and
// loads that page. load scopes (ordering, preloads) apply only to the page
// query, never to the count.
func Paginate[T any](query *gorm.DB, raw string, perPage int, load ...func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	var count int64
	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count page items: %w", err)
	}
	p := New(count, perPage)
	n := p.Clamp(raw)

	items := make([]T, 0, p.perPage)
	if count > 0 {
		err := query.Session(&gorm.Session{}).
			Scopes(load...).
			Offset(p.offset(n)).
			Limit(p.perPage).
			Find(&items).Error
		if err != nil {
			return nil, fmt.Errorf("load page %d: %w", n, err)
		}
	}
	return &Page[T]{Meta: p.Meta(n), Items: items}, nil
}
