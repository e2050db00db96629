package task

import "time"

type StatusStats struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in-progress"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}

type PriorityCount struct {
	Priority Priority `json:"_id"`
	Count    int      `json:"count"`
}

type Stats struct {
	StatusStats   StatusStats     `json:"statusStats"`
	PriorityStats []PriorityCount `json:"priorityStats"`
	OverdueTasks  int             `json:"overdueTasks"`
}

// Counts is what a store reports for one owner in one read.
type Counts struct {
	Pending    int
	InProgress int
	Completed  int
	Low        int
	Medium     int
	High       int
	Overdue    int
}

// Stats shapes raw counts; priorities without tasks are left out.
func (c Counts) Stats() Stats {
	s := Stats{
		StatusStats: StatusStats{
			Pending:    c.Pending,
			InProgress: c.InProgress,
			Completed:  c.Completed,
			Total:      c.Pending + c.InProgress + c.Completed,
		},
		PriorityStats: make([]PriorityCount, 0, len(Priorities)),
		OverdueTasks:  c.Overdue,
	}

	for _, p := range Priorities {
		n := c.byPriority(p)
		if n > 0 {
			s.PriorityStats = append(s.PriorityStats, PriorityCount{Priority: p, Count: n})
		}
	}

	return s
}

func (c Counts) byPriority(p Priority) int {
	switch p {
	case PriorityLow:
		return c.Low
	case PriorityMedium:
		return c.Medium
	case PriorityHigh:
		return c.High
	}
	return 0
}

// Tally counts an owner's tasks in memory.
func Tally(tasks []Task, now time.Time) Counts {
	var c Counts

	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			c.Pending++
		case StatusInProgress:
			c.InProgress++
		case StatusCompleted:
			c.Completed++
		}

		switch t.Priority {
		case PriorityLow:
			c.Low++
		case PriorityMedium:
			c.Medium++
		case PriorityHigh:
			c.High++
		}

		if t.IsOverdue(now) {
			c.Overdue++
		}
	}

	return c
}
