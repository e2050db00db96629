package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities in ascending rank.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities low < medium < high. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

var (
	// ErrNotFound covers both a missing task and a task owned by someone else.
	ErrNotFound     = errors.New("task not found")
	ErrInvalidQuery = errors.New("invalid task query")
)

type Task struct {
	ID          string     `json:"_id"`
	OwnerID     string     `json:"ownerId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CreateRequest struct {
	Title       string     `json:"title" binding:"required,notblank,max=100"`
	Description string     `json:"description" binding:"omitempty,max=500"`
	Status      Status     `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    Priority   `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
	Category    string     `json:"category" binding:"omitempty,max=50"`
	Tags        []string   `json:"tags" binding:"omitempty,max=50,dive,max=30"`
}

// UpdateRequest is a partial update, nil means leave unchanged.
type UpdateRequest struct {
	Title       *string      `json:"title" binding:"omitempty,notblank,max=100"`
	Description *string      `json:"description" binding:"omitempty,max=500"`
	Status      *Status      `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    *Priority    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     OptionalTime `json:"dueDate"`
	Category    *string      `json:"category" binding:"omitempty,max=50"`
	Tags        *[]string    `json:"tags" binding:"omitempty,max=50,dive,max=30"`
}

// OptionalTime tells "absent" apart from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true

	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}

	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

func NewFromCreateRequest(ownerID string, req CreateRequest, now time.Time) Task {
	t := Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      StatusPending,
		Priority:    PriorityMedium,
		DueDate:     utcPtr(req.DueDate),
		Category:    strings.TrimSpace(req.Category),
		Tags:        cleanTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.Priority != "" {
		t.Priority = req.Priority
	}

	if req.Status != "" {
		t.SetStatus(req.Status, now)
	}

	return t
}

// SetStatus keeps IsCompleted and CompletedAt in step with Status.
// Re-setting completed on an already completed task keeps the original instant.
func (t *Task) SetStatus(s Status, now time.Time) {
	t.Status = s

	if s != StatusCompleted {
		t.IsCompleted = false
		t.CompletedAt = nil
		return
	}

	if !t.IsCompleted || t.CompletedAt == nil {
		at := now
		t.CompletedAt = &at
	}
	t.IsCompleted = true
}

// Apply copies the supplied fields onto t.
func (t *Task) Apply(req UpdateRequest, now time.Time) {
	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate.Set {
		t.DueDate = utcPtr(req.DueDate.Value)
	}
	if req.Category != nil {
		t.Category = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		t.Tags = cleanTags(*req.Tags)
	}
	if req.Status != nil {
		t.SetStatus(*req.Status, now)
	}

	t.UpdatedAt = now
}

// Toggle flips between pending and completed. An in-progress task completes.
func (t *Task) Toggle(now time.Time) {
	next := StatusCompleted
	if t.Status == StatusCompleted {
		next = StatusPending
	}

	t.SetStatus(next, now)
	t.UpdatedAt = now
}

func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
