package task

import (
	"cmp"
	"fmt"
	"strings"
)

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortTitle     SortField = "title"
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
)

func (f SortField) Valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortTitle, SortDueDate, SortPriority:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query is the full input of a task listing. OwnerID always comes from the
// verified token; nil filters mean no constraint.
type Query struct {
	OwnerID   string
	Status    *Status
	Priority  *Priority
	Category  *string
	Page      int
	Limit     int
	SortBy    SortField
	SortOrder SortOrder
}

// ListParams is the query string as the HTTP layer receives it.
type ListParams struct {
	Status    string    `form:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority  string    `form:"priority" binding:"omitempty,oneof=low medium high"`
	Category  string    `form:"category" binding:"omitempty,max=50"`
	Page      *int      `form:"page" binding:"omitempty,min=1"`
	Limit     *int      `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    SortField `form:"sortBy" binding:"omitempty,oneof=createdAt updatedAt title dueDate priority"`
	SortOrder SortOrder `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

func (p ListParams) Query(ownerID string) Query {
	q := Query{
		OwnerID:   ownerID,
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    SortCreatedAt,
		SortOrder: SortDesc,
	}

	if p.Status != "" {
		s := Status(p.Status)
		q.Status = &s
	}
	if p.Priority != "" {
		pr := Priority(p.Priority)
		q.Priority = &pr
	}
	if c := strings.TrimSpace(p.Category); c != "" {
		q.Category = &c
	}
	if p.Page != nil {
		q.Page = *p.Page
	}
	if p.Limit != nil {
		q.Limit = *p.Limit
	}
	if p.SortBy != "" {
		q.SortBy = p.SortBy
	}
	if p.SortOrder != "" {
		q.SortOrder = p.SortOrder
	}

	return q
}

// Validate rejects out-of-range input. Nothing is clamped.
func (q Query) Validate() error {
	switch {
	case q.OwnerID == "":
		return fmt.Errorf("%w: owner is required", ErrInvalidQuery)
	case q.Page < 1:
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidQuery)
	case q.Limit < 1 || q.Limit > MaxLimit:
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, MaxLimit)
	case !q.SortBy.Valid():
		return fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, q.SortBy)
	case q.SortOrder != SortAsc && q.SortOrder != SortDesc:
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalidQuery, q.SortOrder)
	case q.Status != nil && !q.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidQuery, *q.Status)
	case q.Priority != nil && !q.Priority.Valid():
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidQuery, *q.Priority)
	}
	return nil
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Matches is the filter predicate: owner AND status AND priority AND category.
func (q Query) Matches(t Task) bool {
	if t.OwnerID != q.OwnerID {
		return false
	}
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.Priority != nil && t.Priority != *q.Priority {
		return false
	}
	if q.Category != nil && !strings.Contains(strings.ToLower(t.Category), strings.ToLower(*q.Category)) {
		return false
	}
	return true
}

// Compare orders two tasks by the sort key, then by id, both in SortOrder.
// A missing due date sorts before any date.
func (q Query) Compare(a, b Task) int {
	c := compareKey(q.SortBy, a, b)
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if q.SortOrder == SortDesc {
		return -c
	}
	return c
}

func compareKey(field SortField, a, b Task) int {
	switch field {
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortTitle:
		return strings.Compare(a.Title, b.Title)
	case SortDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return -1
		case b.DueDate == nil:
			return 1
		}
		return a.DueDate.Compare(*b.DueDate)
	case SortPriority:
		return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
