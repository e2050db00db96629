package task

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestNewFromCreateRequest_Defaults(t *testing.T) {
	tk := NewFromCreateRequest("owner-1", CreateRequest{Title: "  Write report  ", Tags: []string{" a ", "", "b"}}, t0)

	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, "owner-1", tk.OwnerID)
	assert.Equal(t, "Write report", tk.Title)
	assert.Equal(t, StatusPending, tk.Status)
	assert.Equal(t, PriorityMedium, tk.Priority)
	assert.False(t, tk.IsCompleted)
	assert.Nil(t, tk.CompletedAt)
	assert.Equal(t, []string{"a", "b"}, tk.Tags)
	assert.Equal(t, t0, tk.CreatedAt)
	assert.Equal(t, t0, tk.UpdatedAt)
}

func TestNewFromCreateRequest_CompletedStatusStampsCompletedAt(t *testing.T) {
	tk := NewFromCreateRequest("owner-1", CreateRequest{Title: "done", Status: StatusCompleted, Priority: PriorityHigh}, t0)

	assert.Equal(t, PriorityHigh, tk.Priority)
	assert.True(t, tk.IsCompleted)
	require.NotNil(t, tk.CompletedAt)
	assert.Equal(t, t0, *tk.CompletedAt)
}

func TestSetStatus_CompletionInvariant(t *testing.T) {
	tk := NewFromCreateRequest("o", CreateRequest{Title: "x"}, t0)

	for _, s := range []Status{StatusInProgress, StatusCompleted, StatusPending, StatusCompleted, StatusInProgress} {
		tk.SetStatus(s, t0.Add(time.Hour))
		assert.Equal(t, s == StatusCompleted, tk.IsCompleted, "status %s", s)
		assert.Equal(t, tk.IsCompleted, tk.CompletedAt != nil, "status %s", s)
	}
}

func TestSetStatus_RecompletingKeepsOriginalInstant(t *testing.T) {
	tk := NewFromCreateRequest("o", CreateRequest{Title: "x"}, t0)
	tk.SetStatus(StatusCompleted, t0)
	tk.SetStatus(StatusCompleted, t0.Add(time.Hour))

	require.NotNil(t, tk.CompletedAt)
	assert.Equal(t, t0, *tk.CompletedAt)
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name  string
		start Status
		want  Status
	}{
		{"pending_to_completed", StatusPending, StatusCompleted},
		{"completed_to_pending", StatusCompleted, StatusPending},
		{"in_progress_to_completed", StatusInProgress, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := NewFromCreateRequest("o", CreateRequest{Title: "x", Status: tt.start}, t0)
			tk.Toggle(t0.Add(time.Minute))

			assert.Equal(t, tt.want, tk.Status)
			assert.Equal(t, tt.want == StatusCompleted, tk.CompletedAt != nil)
			assert.Equal(t, t0.Add(time.Minute), tk.UpdatedAt)
		})
	}
}

func TestToggleTwice_RestoresPendingAndCompleted(t *testing.T) {
	for _, start := range []Status{StatusPending, StatusCompleted} {
		tk := NewFromCreateRequest("o", CreateRequest{Title: "x", Status: start}, t0)
		orig := tk

		tk.Toggle(t0.Add(time.Minute))
		tk.Toggle(t0.Add(2 * time.Minute))

		assert.Equal(t, orig.Status, tk.Status)
		assert.Equal(t, orig.CompletedAt == nil, tk.CompletedAt == nil)
	}
}

func TestApply_OnlySuppliedFields(t *testing.T) {
	due := t0.Add(48 * time.Hour)
	tk := NewFromCreateRequest("o", CreateRequest{
		Title:       "title",
		Description: "desc",
		DueDate:     &due,
		Category:    "work",
		Tags:        []string{"a"},
	}, t0)

	tk.Apply(UpdateRequest{Priority: ptr(PriorityLow)}, t0.Add(time.Hour))

	assert.Equal(t, "title", tk.Title)
	assert.Equal(t, "desc", tk.Description)
	assert.Equal(t, PriorityLow, tk.Priority)
	require.NotNil(t, tk.DueDate)
	assert.Equal(t, due, *tk.DueDate)
	assert.Equal(t, "work", tk.Category)
	assert.Equal(t, []string{"a"}, tk.Tags)
	assert.Equal(t, t0.Add(time.Hour), tk.UpdatedAt)
}

func TestApply_StatusTransitions(t *testing.T) {
	tk := NewFromCreateRequest("o", CreateRequest{Title: "x"}, t0)

	tk.Apply(UpdateRequest{Status: ptr(StatusCompleted)}, t0.Add(time.Hour))
	require.NotNil(t, tk.CompletedAt)
	assert.Equal(t, t0.Add(time.Hour), *tk.CompletedAt)
	assert.True(t, tk.IsCompleted)

	tk.Apply(UpdateRequest{Status: ptr(StatusInProgress)}, t0.Add(2*time.Hour))
	assert.Nil(t, tk.CompletedAt)
	assert.False(t, tk.IsCompleted)
}

func TestUpdateRequest_DueDateNullVersusAbsent(t *testing.T) {
	var absent UpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &absent))
	assert.False(t, absent.DueDate.Set)

	var cleared UpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":null}`), &cleared))
	assert.True(t, cleared.DueDate.Set)
	assert.Nil(t, cleared.DueDate.Value)

	var set UpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2025-03-12T00:00:00Z"}`), &set))
	assert.True(t, set.DueDate.Set)
	require.NotNil(t, set.DueDate.Value)

	due := t0.Add(24 * time.Hour)
	tk := NewFromCreateRequest("o", CreateRequest{Title: "x", DueDate: &due}, t0)
	tk.Apply(absent, t0)
	assert.NotNil(t, tk.DueDate)
	tk.Apply(cleared, t0)
	assert.Nil(t, tk.DueDate)
}

func TestIsOverdue(t *testing.T) {
	past := t0.Add(-time.Hour)
	future := t0.Add(time.Hour)

	assert.True(t, Task{Status: StatusPending, DueDate: &past}.IsOverdue(t0))
	assert.True(t, Task{Status: StatusInProgress, DueDate: &past}.IsOverdue(t0))
	assert.False(t, Task{Status: StatusCompleted, DueDate: &past}.IsOverdue(t0))
	assert.False(t, Task{Status: StatusPending, DueDate: &future}.IsOverdue(t0))
	assert.False(t, Task{Status: StatusPending}.IsOverdue(t0))
}

func TestListParams_Defaults(t *testing.T) {
	q := ListParams{}.Query("owner")

	assert.Equal(t, "owner", q.OwnerID)
	assert.Nil(t, q.Status)
	assert.Nil(t, q.Priority)
	assert.Nil(t, q.Category)
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, SortCreatedAt, q.SortBy)
	assert.Equal(t, SortDesc, q.SortOrder)
	assert.NoError(t, q.Validate())
}

func TestQuery_ValidateRejectsInsteadOfClamping(t *testing.T) {
	base := ListParams{}.Query("owner")

	bad := []func(q *Query){
		func(q *Query) { q.OwnerID = "" },
		func(q *Query) { q.Page = 0 },
		func(q *Query) { q.Limit = 0 },
		func(q *Query) { q.Limit = MaxLimit + 1 },
		func(q *Query) { q.SortBy = "owner" },
		func(q *Query) { q.SortOrder = "up" },
		func(q *Query) { q.Status = ptr(Status("archived")) },
		func(q *Query) { q.Priority = ptr(Priority("urgent")) },
	}

	for i, mutate := range bad {
		q := base
		mutate(&q)
		assert.ErrorIs(t, q.Validate(), ErrInvalidQuery, "case %d", i)
	}
}

func TestQuery_Matches(t *testing.T) {
	tk := Task{OwnerID: "o", Status: StatusPending, Priority: PriorityHigh, Category: "Home Chores"}

	assert.True(t, Query{OwnerID: "o"}.Matches(tk))
	assert.False(t, Query{OwnerID: "other"}.Matches(tk))
	assert.True(t, Query{OwnerID: "o", Category: ptr("home")}.Matches(tk))
	assert.True(t, Query{OwnerID: "o", Category: ptr("CHORES")}.Matches(tk))
	assert.False(t, Query{OwnerID: "o", Category: ptr("work")}.Matches(tk))
	assert.False(t, Query{OwnerID: "o", Status: ptr(StatusCompleted)}.Matches(tk))
	assert.True(t, Query{OwnerID: "o", Priority: ptr(PriorityHigh), Status: ptr(StatusPending)}.Matches(tk))
	// regex metacharacters are plain text
	assert.False(t, Query{OwnerID: "o", Category: ptr(".*")}.Matches(tk))
}

func TestQuery_CompareOrdering(t *testing.T) {
	d1 := t0.Add(time.Hour)
	tasks := []Task{
		{ID: "c", Title: "beta", Priority: PriorityLow, CreatedAt: t0, DueDate: &d1},
		{ID: "a", Title: "alpha", Priority: PriorityHigh, CreatedAt: t0},
		{ID: "b", Title: "Gamma", Priority: PriorityMedium, CreatedAt: t0.Add(time.Minute)},
	}

	ids := func(q Query) []string {
		sorted := slices.Clone(tasks)
		slices.SortFunc(sorted, q.Compare)
		out := make([]string, 0, len(sorted))
		for _, tk := range sorted {
			out = append(out, tk.ID)
		}
		return out
	}

	assert.Equal(t, []string{"b", "c", "a"}, ids(Query{SortBy: SortCreatedAt, SortOrder: SortDesc}))
	assert.Equal(t, []string{"a", "c", "b"}, ids(Query{SortBy: SortCreatedAt, SortOrder: SortAsc}))
	assert.Equal(t, []string{"c", "b", "a"}, ids(Query{SortBy: SortPriority, SortOrder: SortAsc}))
	// byte order: upper case sorts first
	assert.Equal(t, []string{"b", "a", "c"}, ids(Query{SortBy: SortTitle, SortOrder: SortAsc}))
	// missing due dates sort lowest
	assert.Equal(t, []string{"a", "b", "c"}, ids(Query{SortBy: SortDueDate, SortOrder: SortAsc}))
	assert.Equal(t, []string{"c", "b", "a"}, ids(Query{SortBy: SortDueDate, SortOrder: SortDesc}))
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, limit, total int
		want               Pagination
	}{
		{1, 10, 0, Pagination{CurrentPage: 1, TotalPages: 0, TotalTasks: 0}},
		{1, 10, 10, Pagination{CurrentPage: 1, TotalPages: 1, TotalTasks: 10}},
		{1, 10, 11, Pagination{CurrentPage: 1, TotalPages: 2, TotalTasks: 11, HasNext: true}},
		{2, 10, 11, Pagination{CurrentPage: 2, TotalPages: 2, TotalTasks: 11, HasPrev: true}},
		{5, 10, 11, Pagination{CurrentPage: 5, TotalPages: 2, TotalTasks: 11, HasPrev: true}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPagination(tt.page, tt.limit, tt.total))
	}
}

func TestCountsStats(t *testing.T) {
	past := t0.Add(-24 * time.Hour)
	tasks := []Task{
		{Status: StatusPending, Priority: PriorityHigh, DueDate: &past},
		{Status: StatusInProgress, Priority: PriorityHigh},
		{Status: StatusCompleted, Priority: PriorityLow, DueDate: &past},
	}

	s := Tally(tasks, t0).Stats()

	assert.Equal(t, StatusStats{Pending: 1, InProgress: 1, Completed: 1, Total: 3}, s.StatusStats)
	assert.Equal(t, []PriorityCount{{PriorityLow, 1}, {PriorityHigh, 2}}, s.PriorityStats)
	assert.Equal(t, 1, s.OverdueTasks)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"statusStats": {"pending":1,"in-progress":1,"completed":1,"total":3},
		"priorityStats": [{"_id":"low","count":1},{"_id":"high","count":2}],
		"overdueTasks": 1
	}`, string(raw))
}

func TestCompose(t *testing.T) {
	owner := user.Summary{ID: "o", Name: "Ada", Email: "ada@example.com"}
	views := Compose([]Task{{ID: "1", OwnerID: "o"}, {ID: "2", OwnerID: "ghost"}}, map[string]user.Summary{"o": owner})

	require.Len(t, views, 2)
	require.NotNil(t, views[0].User)
	assert.Equal(t, owner, *views[0].User)
	assert.Nil(t, views[1].User)
}

func TestCompose_SummariesAreNotShared(t *testing.T) {
	owners := map[string]user.Summary{
		"a": {ID: "a", Name: "Ada"},
		"b": {ID: "b", Name: "Bob"},
	}
	views := Compose([]Task{{ID: "1", OwnerID: "a"}, {ID: "2", OwnerID: "b"}, {ID: "3", OwnerID: "a"}}, owners)

	require.Len(t, views, 3)
	assert.Equal(t, "Ada", views[0].User.Name)
	assert.Equal(t, "Bob", views[1].User.Name)
	assert.Equal(t, "Ada", views[2].User.Name)

	views[0].User.Name = "changed"
	assert.Equal(t, "Ada", views[2].User.Name)
	assert.Equal(t, "Ada", owners["a"].Name)
}
