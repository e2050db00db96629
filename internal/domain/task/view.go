package task

import "github.com/geocoder89/taskhub/internal/domain/user"

// View is a task as returned to clients, with its owner looked up separately.
type View struct {
	Task
	User *user.Summary `json:"user,omitempty"`
}

// Compose pairs tasks with owner summaries. Tasks whose owner is not in the
// map are returned without one.
func Compose(tasks []Task, owners map[string]user.Summary) []View {
	out := make([]View, 0, len(tasks))

	for _, t := range tasks {
		v := View{Task: t}
		if s, ok := owners[t.OwnerID]; ok {
			v.User = &s
		}
		out = append(out, v)
	}

	return out
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalTasks  int  `json:"totalTasks"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalTasks:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Page is one window of a listing.
type Page struct {
	Tasks      []View       `json:"tasks"`
	Pagination Pagination   `json:"pagination"`
	Stats      *StatusStats `json:"stats,omitempty"`
}
